package scheduler

import (
	"context"
	"time"

	Logger "github.com/curately/goodreads/utils/log"
)

const gracefulRetryDelay = 3 * time.Second

// Module is a long lived background task managed by the Engine.
type Module interface {
	// RunModule contains the module's loop. It takes in a context object
	// by which its lifecycle is managed. Return error if encountered any
	// error during execution.
	RunModule(ctx context.Context) error

	// Name uniquely identifies the module instance.
	Name() string

	// Shutdown releases any resource held outside the context lifecycle.
	Shutdown()
}

// RunModuleWithGracefulRestart reruns a module whenever it exits with an
// error, so a single bad run never kills the background job chain.
func RunModuleWithGracefulRestart(ctx context.Context, module Module) {
	for {
		err := module.RunModule(ctx)
		if err == nil {
			break
		}
		Logger.Log.Errorf(
			"module %s exited with error %v, restart in %s",
			module.Name(), err, gracefulRetryDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(gracefulRetryDelay):
		}
	}
}
