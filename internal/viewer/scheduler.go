package viewer

// Scheduler is a FIFO queue of deferred work. Everything in the viewer runs
// on one goroutine; work that must not execute inside the current event
// (layout refits, focus side effects) is deferred here and pumped by the
// host after the triggering event returns. Tasks deferred while draining
// run in the same drain, after everything queued before them.
type Scheduler struct {
	queue []func()
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Defer appends fn to the queue. Nil funcs are ignored.
func (s *Scheduler) Defer(fn func()) {
	if fn == nil {
		return
	}
	s.queue = append(s.queue, fn)
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// RunNext executes the oldest queued task. Returns false when the queue
// is empty.
func (s *Scheduler) RunNext() bool {
	if len(s.queue) == 0 {
		return false
	}
	fn := s.queue[0]
	s.queue = s.queue[1:]
	fn()
	return true
}

// Drain runs tasks until the queue is empty, including tasks deferred by
// the tasks themselves, and returns how many ran.
func (s *Scheduler) Drain() int {
	n := 0
	for s.RunNext() {
		n++
	}
	return n
}
