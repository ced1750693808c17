// Package scheduler runs the background jobs: the weekly and monthly
// digest schedules and the periodic search index sync. Modules share a
// lifecycle managed by the Engine and communicate over an in-process
// event bus.
package scheduler

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	Logger "github.com/curately/goodreads/utils/log"
)

// Engine manages shared resources and execution lifecycle of each
// module. Each Module runs in its own goroutine; the shared EventBus
// carries digest jobs from schedules to the worker.
type Engine struct {
	Modules []Module

	ctx    context.Context
	cancel context.CancelFunc

	// In-process event bus. Could be substituted with an external broker
	// later without touching module code.
	EventBus *gochannel.GoChannel
}

// NewEngine creates an Engine over the provided modules and event bus.
func NewEngine(ms []Module, ctx context.Context, cancel context.CancelFunc, e *gochannel.GoChannel) *Engine {
	return &Engine{
		Modules:  ms,
		ctx:      ctx,
		cancel:   cancel,
		EventBus: e,
	}
}

// Run executes all modules and blocks until every one finished.
func (e *Engine) Run() {
	var wg sync.WaitGroup

	for idx := range e.Modules {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			Logger.Log.Infof("start engine module %s", e.Modules[index].Name())
			RunModuleWithGracefulRestart(e.ctx, e.Modules[index])
			Logger.Log.Infof("module %s finished execution", e.Modules[index].Name())
		}(idx)
	}

	wg.Wait()
}

// Shutdown cancels the root context and shuts every module down.
func (e *Engine) Shutdown() {
	Logger.Log.Infoln("starting graceful shutdown process")
	e.cancel()

	var wg sync.WaitGroup
	for idx := range e.Modules {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			e.Modules[index].Shutdown()
			Logger.Log.Infof("module %s shut down", e.Modules[index].Name())
		}(idx)
	}

	wg.Wait()
}
