package debounce

import (
	"context"
	"sync"
	"time"
)

// Func is the unit of work a Scheduler runs once its key has been quiet for the delay.
// ctx is cancelled when a newer call for the same key supersedes it.
type Func func(ctx context.Context)

type task struct {
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	fn     Func
	done   chan struct{}
}

// Scheduler coalesces bursts of calls per key: only the most recent call runs,
// and scheduling a new call cancels any pending or in-flight older one.
type Scheduler struct {
	delay time.Duration
	base  context.Context
	stop  context.CancelFunc

	mu     sync.Mutex
	tasks  map[string]*task
	seq    uint64
	closed bool
	wg     sync.WaitGroup
}

func New(delay time.Duration) *Scheduler {
	if delay < 0 {
		delay = 0
	}
	base, stop := context.WithCancel(context.Background())
	return &Scheduler{
		delay: delay,
		base:  base,
		stop:  stop,
		tasks: map[string]*task{},
	}
}

// Schedule replaces whatever is queued under key with fn.
// It returns false once the scheduler is closed.
func (s *Scheduler) Schedule(key string, fn Func) bool {
	if fn == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
		prev.cancel()
	}

	s.seq++
	ctx, cancel := context.WithCancel(s.base)
	t := &task{seq: s.seq, cancel: cancel, fn: fn, done: make(chan struct{})}
	t.timer = time.AfterFunc(s.delay, func() { s.fire(ctx, key, t.seq) })
	s.tasks[key] = t
	return true
}

// Flush runs the pending call for key immediately and waits for it.
// If the call is already running, Flush waits for it to finish instead.
func (s *Scheduler) Flush(key string) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	if !t.timer.Stop() {
		done := t.done
		s.mu.Unlock()
		<-done
		return
	}
	delete(s.tasks, key)
	fn, cancel := t.fn, t.cancel
	ctx := s.base
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer close(t.done)
	defer cancel()
	fn(ctx)
}

// Cancel drops the pending or in-flight call for key.
func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[key]; ok {
		t.timer.Stop()
		t.cancel()
		delete(s.tasks, key)
	}
}

// Pending reports whether a call for key is queued or running.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Wait blocks until every call that has started has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close flushes every pending call, waits for in-flight ones and rejects new work.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	keys := make([]string, 0, len(s.tasks))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.Flush(k)
	}
	s.wg.Wait()
	s.stop()
}

func (s *Scheduler) fire(ctx context.Context, key string, seq uint64) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if !ok || t.seq != seq || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	fn := t.fn
	s.mu.Unlock()

	defer s.wg.Done()
	defer close(t.done)
	fn(ctx)

	s.mu.Lock()
	if cur, ok := s.tasks[key]; ok && cur.seq == seq {
		delete(s.tasks, key)
		cur.cancel()
	}
	s.mu.Unlock()
}
