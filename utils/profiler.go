package utils

import (
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"

	"github.com/curately/goodreads/utils/flag"
	Logger "github.com/curately/goodreads/utils/log"
)

// InitProfiler starts the Datadog profiler. Must be called after ParseFlags.
func InitProfiler() {
	env := "development"
	if !flag.IsDevelopment {
		env = "production"
	}

	if err := profiler.Start(
		profiler.WithService(flag.ServiceName),
		profiler.WithEnv(env),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
			// The profiles below are disabled by
			// default to keep overhead low, but
			// can be enabled as needed.
			// profiler.BlockProfile,
			// profiler.MutexProfile,
			// profiler.GoroutineProfile,
		),
	); err != nil {
		Logger.Log.Fatal(err)
	}
}

// Stop profiler, OK to be closed multiple times
func CloseProfiler() {
	profiler.Stop()
}
