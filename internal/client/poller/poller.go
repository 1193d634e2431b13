// Package poller runs periodic tasks whose lifetime is tied to a view.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

var (
	// ErrAlreadyRunning возвращается при повторном Start
	ErrAlreadyRunning = errors.New("poller already running")
	// ErrInvalidInterval возвращается при interval <= 0
	ErrInvalidInterval = errors.New("poller interval must be positive")
)

// Task is one poll. ctx is cancelled by Stop, aborting in-flight requests.
type Task func(ctx context.Context) error

// Poller запускает Task сразу и затем каждые interval до Stop
type Poller struct {
	task     Task
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
	name     string
	interval time.Duration
	mu       sync.Mutex
}

// New creates a stopped poller
func New(name string, interval time.Duration, task Task, logger *slog.Logger) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger,
	}
}

// Name returns the poller name used in logs
func (p *Poller) Name() string {
	return p.name
}

// Interval returns the poll period
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start runs the task in a background goroutine until Stop or ctx is done
func (p *Poller) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return ErrInvalidInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(runCtx, p.done)
	return nil
}

// Stop cancels the task and waits for the goroutine to exit.
// Once Stop returns the task is not running and will not run again.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether Start was called without a matching Stop
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

// runOnce выполняет task, перехватывая panic
func (p *Poller) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Panic recovered",
				"poller", p.name,
				"error", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	if err := p.task(ctx); err != nil && ctx.Err() == nil {
		p.logger.Warn("poll failed", "poller", p.name, "error", err)
	}
}

// Group starts and stops a set of pollers together
type Group struct {
	pollers []*Poller
}

// NewGroup groups pollers
func NewGroup(pollers ...*Poller) *Group {
	return &Group{pollers: pollers}
}

// Add appends a poller to the group
func (g *Group) Add(p *Poller) {
	g.pollers = append(g.pollers, p)
}

// Start starts every poller; on error the already started ones are stopped
func (g *Group) Start(ctx context.Context) error {
	for i, p := range g.pollers {
		if err := p.Start(ctx); err != nil {
			for _, started := range g.pollers[:i] {
				started.Stop()
			}
			return err
		}
	}
	return nil
}

// Stop stops every poller and waits for all of them
func (g *Group) Stop() {
	var wg sync.WaitGroup
	for _, p := range g.pollers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Stop()
		}()
	}
	wg.Wait()
}
