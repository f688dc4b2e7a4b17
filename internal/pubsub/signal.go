package pubsub

import "sync"

// Conn identifies one connection to a Signal. The zero value is never a
// live connection, so a forgotten handle disconnects as a harmless no-op.
type Conn uint64

// Signal is a synchronous, handle-tracked observer list. Connect returns a
// Conn for every listener; Disconnect removes exactly that listener and
// nothing else. There is deliberately no "disconnect all" - callers own
// only the handles they created, and tearing down by handle keeps
// unrelated listeners on the same signal intact.
//
// Emit delivers to listeners in connect order, on the caller's goroutine.
type Signal[T any] struct {
	mu    sync.Mutex
	next  Conn
	order []Conn
	fns   map[Conn]func(T)
}

// NewSignal creates an empty signal.
func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{fns: make(map[Conn]func(T))}
}

// Connect registers fn and returns its handle.
func (s *Signal[T]) Connect(fn func(T)) Conn {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	c := s.next
	s.order = append(s.order, c)
	s.fns[c] = fn
	return c
}

// Disconnect removes the connection. Disconnecting a handle that was never
// connected, or was already disconnected, is a no-op rather than an error:
// teardown paths run unconditionally and must tolerate both.
func (s *Signal[T]) Disconnect(c Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fns[c]; !ok {
		return
	}
	delete(s.fns, c)
	for i, o := range s.order {
		if o == c {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Emit invokes every connected listener with v, in connect order. Listeners
// connected or disconnected during delivery take effect on the next Emit.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.order))
	for _, c := range s.order {
		if fn, ok := s.fns[c]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// ConnCount returns the number of live connections.
func (s *Signal[T]) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}
