package runtime

import (
	"sync"

	"go.uber.org/zap"
)

// Loop is the default dispatcher: a single goroutine draining a task
// channel. Threadsafe callback trampolines enqueue here from arbitrary
// native threads; running every callback on one goroutine gives the
// managed side a stable owning thread.
type Loop struct {
	tasks    chan func()
	quit     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a Loop and starts its processing goroutine.
func NewLoop() *Loop {
	l := &Loop{
		tasks: make(chan func(), 64),
		quit:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case fn := <-l.tasks:
			l.execute(fn)
		case <-l.quit:
			return
		}
	}
}

// execute runs one task, recovering from panics so a failing callback
// cannot take down the loop.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("dispatched callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Enqueue submits a task for execution on the loop goroutine. It blocks
// only while the task buffer is full; after Stop the task is dropped.
func (l *Loop) Enqueue(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.quit:
	}
}

// Stop shuts down the loop goroutine. Tasks still buffered are dropped.
// Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
}
