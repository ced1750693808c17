package utils

import (
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/curately/goodreads/utils/flag"
	Logger "github.com/curately/goodreads/utils/log"
)

// InitTracer starts the Datadog tracer. Must be called after ParseFlags.
func InitTracer() {
	env := "development"
	if !flag.IsDevelopment {
		env = "production"
	}

	tracer.Start(
		tracer.WithService(flag.ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
