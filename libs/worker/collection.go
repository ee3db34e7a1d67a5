package worker

import (
	"time"

	"github.com/sprucehealth/mediaindexer/libs/conc"
)

// Collection is a collection of workers
type Collection struct {
	workers []Worker
}

// Start starts the workers
func (c *Collection) Start() {
	for _, wk := range c.workers {
		wk.Start()
	}
}

// Stop stops the workers in parallel, waiting up to wait for each
func (c *Collection) Stop(wait time.Duration) {
	parallel := conc.NewParallel()
	for _, wk := range c.workers {
		wk := wk
		parallel.Go(func() error {
			wk.Stop(wait)
			return nil
		})
	}
	parallel.Wait()
}

// Started returns true if any worker in the collection is running
func (c *Collection) Started() bool {
	for _, wk := range c.workers {
		if wk.Started() {
			return true
		}
	}
	return false
}

// AddWorker adds a worker to the collection of managed workers
func (c *Collection) AddWorker(w Worker) {
	c.workers = append(c.workers, w)
}

// Len returns the number of workers in the collection
func (c *Collection) Len() int {
	return len(c.workers)
}
