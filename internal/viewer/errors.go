package viewer

import "fmt"

// InvalidViewportIndexError reports a viewport index outside the current
// layout. This is always a caller bug: the layout mutator must run before
// a slot outside the grid is addressed. It is raised, never swallowed -
// silently falling back to slot 0 here is how wrong-viewport bugs hide.
type InvalidViewportIndexError struct {
	Index int
	Slots int
}

func (e *InvalidViewportIndexError) Error() string {
	return fmt.Sprintf("viewport index %d outside current layout (%d slots)", e.Index, e.Slots)
}
