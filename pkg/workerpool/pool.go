// Package workerpool runs tasks on a fixed number of goroutines.
//
//	pool := workerpool.New(4)
//	for _, code := range barcodes {
//	    code := code
//	    if err := pool.Submit(ctx, func() { importOne(ctx, code) }); err != nil {
//	        break
//	    }
//	}
//	pool.Shutdown() // waits for queued tasks
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// ErrPoolClosed is returned by Submit after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks   chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closeCh chan struct{}
}

// New starts size workers. A non-positive size means one worker.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		tasks:   make(chan func()),
		closeCh: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit hands task to an idle worker, blocking until one is free, ctx is
// done or the pool is shut down.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case <-p.closeCh:
		return ErrPoolClosed
	default:
	}

	select {
	case <-p.closeCh:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.tasks <- task:
		return nil
	}
}

// Shutdown stops accepting tasks and waits for running ones to finish.
// It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.closeCh)
		close(p.tasks)
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

// safeRun keeps a panicking task from killing its worker.
func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", fmt.Sprint(r))
		}
	}()
	task()
}
