package dom

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Loop is the single logical thread every window runs on. Tasks and
// microtasks only execute inside Run (or RunOnce) on the caller's goroutine.
// Background work started with Go and expired timers post their continuations
// back as tasks.
type Loop struct {
	mu         sync.Mutex
	microtasks []func()
	tasks      []func()
	pending    int
	timers     map[int]*loopTimer
	nextTimer  int
	wake       chan struct{}
	logger     *zap.Logger
}

type loopTimer struct {
	t        *time.Timer
	fn       func()
	interval time.Duration
}

// NewLoop creates an idle loop.
func NewLoop(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		timers: make(map[int]*loopTimer),
		wake:   make(chan struct{}, 1),
		logger: logger.Named("loop"),
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// QueueMicrotask schedules fn to run at the end of the current task.
func (l *Loop) QueueMicrotask(fn func()) {
	l.mu.Lock()
	l.microtasks = append(l.microtasks, fn)
	l.mu.Unlock()
	l.signal()
}

// QueueTask schedules fn as a new task.
func (l *Loop) QueueTask(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// Go runs work on its own goroutine. The function work returns, if any, runs
// on the loop as a task. The loop does not go idle while work is in flight.
func (l *Loop) Go(work func() func()) {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()
	go func() {
		cont := work()
		l.mu.Lock()
		l.pending--
		if cont != nil {
			l.tasks = append(l.tasks, cont)
		}
		l.mu.Unlock()
		l.signal()
	}()
}

// SetTimeout runs fn once after d and returns an id for ClearTimer.
func (l *Loop) SetTimeout(fn func(), d time.Duration) int {
	return l.addTimer(fn, d, 0)
}

// SetInterval runs fn every d until cleared. A live interval keeps Run busy.
func (l *Loop) SetInterval(fn func(), d time.Duration) int {
	if d <= 0 {
		d = time.Millisecond
	}
	return l.addTimer(fn, d, d)
}

func (l *Loop) addTimer(fn func(), d, interval time.Duration) int {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextTimer++
	id := l.nextTimer
	lt := &loopTimer{fn: fn, interval: interval}
	l.timers[id] = lt
	l.pending++
	lt.t = time.AfterFunc(d, func() { l.QueueTask(func() { l.fire(id) }) })
	return id
}

func (l *Loop) fire(id int) {
	l.mu.Lock()
	lt, ok := l.timers[id]
	if ok && lt.interval == 0 {
		delete(l.timers, id)
		l.pending--
	}
	l.mu.Unlock()
	if !ok {
		return
	}
	lt.fn()
	if lt.interval > 0 {
		l.mu.Lock()
		if _, live := l.timers[id]; live {
			lt.t.Reset(lt.interval)
		}
		l.mu.Unlock()
	}
}

// ClearTimer cancels a timeout or interval. Unknown ids are ignored.
func (l *Loop) ClearTimer(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lt, ok := l.timers[id]; ok {
		lt.t.Stop()
		delete(l.timers, id)
		l.pending--
	}
}

// RunMicrotasks drains the microtask queue, including microtasks queued by
// the ones it runs.
func (l *Loop) RunMicrotasks() {
	for {
		l.mu.Lock()
		if len(l.microtasks) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.microtasks[0]
		l.microtasks = l.microtasks[1:]
		l.mu.Unlock()
		l.safely("microtask", fn)
	}
}

// RunOnce runs at most one task followed by all microtasks. It reports
// whether a task ran.
func (l *Loop) RunOnce() bool {
	l.RunMicrotasks()
	l.mu.Lock()
	if len(l.tasks) == 0 {
		l.mu.Unlock()
		return false
	}
	fn := l.tasks[0]
	l.tasks = l.tasks[1:]
	l.mu.Unlock()
	l.safely("task", fn)
	l.RunMicrotasks()
	return true
}

// Idle reports whether nothing is queued or in flight.
func (l *Loop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) == 0 && len(l.microtasks) == 0 && l.pending == 0
}

// Run processes tasks until the loop is idle or ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if l.RunOnce() {
			continue
		}
		if l.Idle() {
			return nil
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops every timer. Work already in flight still completes.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, lt := range l.timers {
		lt.t.Stop()
		delete(l.timers, id)
		l.pending--
	}
}

func (l *Loop) safely(what string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Error("recovered panic", zap.String("in", what), zap.Error(fmt.Errorf("%v", p)))
		}
	}()
	fn()
}
