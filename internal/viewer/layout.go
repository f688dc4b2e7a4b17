package viewer

import "fmt"

// Shape is a viewport grid layout. The four supported shapes cover one to
// four concurrent viewports; slot indices are row-major and stable across
// layout changes, so slot 0 survives every mutation.
type Shape string

const (
	Layout1x1 Shape = "1x1"
	Layout1x2 Shape = "1x2"
	Layout2x1 Shape = "2x1"
	Layout2x2 Shape = "2x2"
)

var shapeDims = map[Shape][2]int{
	Layout1x1: {1, 1},
	Layout1x2: {1, 2},
	Layout2x1: {2, 1},
	Layout2x2: {2, 2},
}

// ParseShape validates a layout string from config or user input.
func ParseShape(s string) (Shape, error) {
	sh := Shape(s)
	if _, ok := shapeDims[sh]; !ok {
		return "", fmt.Errorf("unknown layout shape: %q", s)
	}
	return sh, nil
}

// Rows returns the number of grid rows.
func (s Shape) Rows() int { return shapeDims[s][0] }

// Cols returns the number of grid columns.
func (s Shape) Cols() int { return shapeDims[s][1] }

// Slots returns the number of viewport slots in this layout.
func (s Shape) Slots() int { return shapeDims[s][0] * shapeDims[s][1] }

// Valid reports whether the shape is one of the supported grids.
func (s Shape) Valid() bool {
	_, ok := shapeDims[s]
	return ok
}
