package app

import (
	"quadview/internal/dicom"
	"quadview/internal/viewer"
)

// cellRenderer is the terminal rendering surface for one viewport slot.
// There is no pixel pipeline in a cell grid; the surface records what it
// was told to show and the app's View draws a text representation from
// the bundle's display state. Zoom and refits are tracked so the core's
// transform handling behaves the same as it would over a real canvas.
type cellRenderer struct {
	index  int
	events *viewer.RendererEvents
	ds     *dicom.Dataset
	zoom   float64
	fits   int
}

func newCellRenderer(index int) *cellRenderer {
	return &cellRenderer{
		index:  index,
		events: viewer.NewRendererEvents(),
		zoom:   1.0,
	}
}

func (r *cellRenderer) Display(ds *dicom.Dataset)      { r.ds = ds }
func (r *cellRenderer) CurrentZoom() float64           { return r.zoom }
func (r *cellRenderer) SetZoom(z float64)              { r.zoom = z }
func (r *cellRenderer) FitToView(bool)                 { r.fits++ }
func (r *cellRenderer) Events() *viewer.RendererEvents { return r.events }
