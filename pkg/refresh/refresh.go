// Package refresh replaces the old fixed-interval browser polling with a
// server-side refresher that owns its schedule and can be torn down.
package refresh

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Refresher struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
	cron     *cron.Cron
}

// New builds a refresher that runs fn every interval. Nothing runs until
// Start.
func New(name string, interval time.Duration, fn func(ctx context.Context) error) *Refresher {
	return &Refresher{
		name:     name,
		interval: interval,
		fn:       fn,
	}
}

// Start runs fn once synchronously so consumers never observe an empty
// snapshot, then begins the schedule. The error from the initial run is
// returned; scheduled runs only log.
func (r *Refresher) Start() error {
	if err := r.run(); err != nil {
		return fmt.Errorf("initial %s refresh: %w", r.name, err)
	}

	r.cron = cron.New()
	_, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		if err := r.run(); err != nil {
			log.Printf("Refresh: %s failed: %v", r.name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling %s refresh: %w", r.name, err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
}

func (r *Refresher) run() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()
	return r.fn(ctx)
}
