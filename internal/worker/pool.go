// Package worker runs personalization work off the request path: a bounded
// in-process pool for batch runs and a poller that drains the durable queue.
package worker

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// ErrNotStarted is reported for a task the pool never ran.
var ErrNotStarted = errors.New("task not started")

type Task struct {
	Key string
	Run func(ctx context.Context) error
}

type Result struct {
	Key string
	Err error
}

type Pool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	limiter *rate.Limiter
}

func NewPool(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, buffer),
	}
}

// SetRateLimit caps how many tasks start per second. Call it before Run;
// rps <= 0 removes the cap.
func (p *Pool) SetRateLimit(rps float64) {
	if p == nil {
		return
	}
	if rps <= 0 {
		p.limiter = nil
		return
	}
	p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

func (p *Pool) Submit(t Task) {
	if p == nil || t.Run == nil {
		return
	}
	p.tasks <- t
}

// Close stops intake; Run's channel closes once queued tasks finish.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	close(p.tasks)
}

func (p *Pool) Run(ctx context.Context) <-chan Result {
	out := make(chan Result, p.workers*64)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok || ctx.Err() != nil {
						return
					}
					if p.limiter != nil {
						if err := p.limiter.Wait(ctx); err != nil {
							out <- Result{Key: t.Key, Err: err}
							return
						}
					}
					err := runSafely(ctx, t)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Key: t.Key, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}

// RunAll pushes every task through a pool of the given size and returns one
// result per task. A task whose result never arrives, because ctx ended
// before it started or while it ran, is reported with ctx's error.
func RunAll(ctx context.Context, workers int, tasks []Task) []Result {
	p := NewPool(workers, len(tasks))
	results := p.Run(ctx)
	for _, t := range tasks {
		p.Submit(t)
	}
	p.Close()

	out := make([]Result, 0, len(tasks))
	reported := make(map[string]int, len(tasks))
	for r := range results {
		out = append(out, r)
		reported[r.Key]++
	}
	for _, t := range tasks {
		if reported[t.Key] > 0 {
			reported[t.Key]--
			continue
		}
		err := ErrNotStarted
		if ctx.Err() != nil {
			err = errors.Join(ErrNotStarted, ctx.Err())
		}
		out = append(out, Result{Key: t.Key, Err: err})
	}
	return out
}

func runSafely(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{Val: r}
		}
	}()
	return t.Run(ctx)
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return "panic: unexpected error" }
