package services

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
)

// Dispatcher runs fan-out jobs in the background after a mutation has committed.
// Jobs are never awaited by the request that spawned them; their errors and
// panics end up in the log and nowhere else.
type Dispatcher struct {
	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Go starts job on its own goroutine with a context detached from the request
func (d *Dispatcher) Go(ctx context.Context, name string, job func(ctx context.Context) error) {
	jobCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[FANOUT] Job %s panicked: %v\n%s", name, r, debug.Stack())
			}
		}()

		if err := job(jobCtx); err != nil {
			log.Printf("[FANOUT] Job %s failed: %v", name, err)
		}
	}()
}

// Wait blocks until every started job has returned
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
