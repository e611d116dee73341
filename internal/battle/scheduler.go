package battle

import (
	"sync"
	"time"
)

// taskKind labels the category of scheduled work so tests and debugging can
// tell the phase tick, attack resolutions, the auto-attack generator, the
// intel poll, and cosmetic display windows apart.
type taskKind int

const (
	taskPhaseTick taskKind = iota
	taskResolve
	taskAutoAttack
	taskIntelPoll
	taskDisplay
)

type task struct {
	id        int
	kind      taskKind
	interval  time.Duration // >0 for recurring tasks
	fn        func()
	timer     *time.Timer
	deadline  time.Time
	remaining time.Duration // valid while paused
	pending   bool          // fired while paused; runs right after resume
}

// scheduler tracks every outstanding timer in one collection so stop can
// cancel all of them deterministically and pause can preserve remaining
// time. All timers pause uniformly, including pending attack resolutions.
type scheduler struct {
	mu      sync.Mutex
	now     func() time.Time
	nextID  int
	tasks   map[int]*task
	paused  bool
	stopped bool
}

func newScheduler(now func() time.Time) *scheduler {
	if now == nil {
		now = time.Now
	}
	return &scheduler{now: now, tasks: make(map[int]*task)}
}

// After schedules a one-shot task. Returns the task id, or 0 after stop.
func (s *scheduler) After(kind taskKind, d time.Duration, fn func()) int {
	return s.schedule(kind, d, 0, fn)
}

// Every schedules a recurring task with a fixed interval.
func (s *scheduler) Every(kind taskKind, interval time.Duration, fn func()) int {
	return s.schedule(kind, interval, interval, fn)
}

func (s *scheduler) schedule(kind taskKind, d, interval time.Duration, fn func()) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	s.nextID++
	t := &task{id: s.nextID, kind: kind, interval: interval, fn: fn, deadline: s.now().Add(d)}
	s.tasks[t.id] = t
	if s.paused {
		t.remaining = d
	} else {
		id := t.id
		t.timer = time.AfterFunc(d, func() { s.fire(id) })
	}
	return t.id
}

func (s *scheduler) fire(id int) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok || s.stopped {
		s.mu.Unlock()
		return
	}
	if s.paused {
		// The timer beat Pause to the lock; defer the callback to resume.
		t.pending = true
		t.remaining = 0
		t.timer = nil
		s.mu.Unlock()
		return
	}
	if t.interval > 0 {
		t.deadline = s.now().Add(t.interval)
		t.timer.Reset(t.interval)
	} else {
		delete(s.tasks, id)
	}
	fn := t.fn
	s.mu.Unlock()
	fn()
}

// Cancel removes a single task.
func (s *scheduler) Cancel(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		if t.timer != nil {
			t.timer.Stop()
		}
		delete(s.tasks, id)
	}
}

// Pause halts every outstanding timer and records the time remaining until
// each deadline so Resume can restore it exactly.
func (s *scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.stopped {
		return
	}
	s.paused = true
	now := s.now()
	for _, t := range s.tasks {
		if t.timer != nil && t.timer.Stop() {
			t.remaining = t.deadline.Sub(now)
			if t.remaining < 0 {
				t.remaining = 0
			}
		}
		// If Stop lost the race the in-flight fire marks the task pending.
		t.timer = nil
	}
}

// Resume restarts every task with its preserved remaining duration. Tasks
// that fired during the pause run after a minimal delay.
func (s *scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.stopped {
		return
	}
	s.paused = false
	now := s.now()
	for _, t := range s.tasks {
		d := t.remaining
		if t.pending || d <= 0 {
			d = time.Millisecond
		}
		t.pending = false
		t.remaining = 0
		t.deadline = now.Add(d)
		id := t.id
		t.timer = time.AfterFunc(d, func() { s.fire(id) })
	}
}

// Stop cancels every outstanding task across all categories. No task
// callback passes the stopped check after Stop returns.
func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	for id, t := range s.tasks {
		if t.timer != nil {
			t.timer.Stop()
		}
		delete(s.tasks, id)
	}
}

// outstanding reports the number of tracked tasks, optionally filtered by kind.
func (s *scheduler) outstanding(kinds ...taskKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(kinds) == 0 {
		return len(s.tasks)
	}
	n := 0
	for _, t := range s.tasks {
		for _, k := range kinds {
			if t.kind == k {
				n++
				break
			}
		}
	}
	return n
}
