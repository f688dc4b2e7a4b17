package viewer

import (
	"quadview/internal/dicom"
	"quadview/internal/pubsub"
)

// DrawPhase marks the lifecycle of an interactive drawing gesture.
type DrawPhase int

const (
	DrawStarted DrawPhase = iota
	DrawUpdated
	DrawFinished
)

// DrawEvent is emitted by a rendering surface while the user draws a tool
// item. On DrawFinished the Item carries the completed geometry.
type DrawEvent struct {
	Phase DrawPhase
	Kind  ToolKind
	Item  ToolItem
}

// MenuAction is a context-menu choice on a rendering surface.
type MenuAction string

const (
	MenuResetView    MenuAction = "reset-view"
	MenuClearTools   MenuAction = "clear-tools"
	MenuToggleInvert MenuAction = "toggle-invert"
)

// RendererEvents are the signals a rendering surface emits. The focus
// router connects the focused surface's events to the shared controls and
// disconnects them on every focus change; surfaces in unfocused viewports
// keep emitting, but nothing is listening.
type RendererEvents struct {
	TransformChanged *pubsub.Signal[Transform]
	ZoomChanged      *pubsub.Signal[float64]
	SliceScrolled    *pubsub.Signal[int] // wheel delta in slices
	Draw             *pubsub.Signal[DrawEvent]
	ContextMenu      *pubsub.Signal[MenuAction]
	SeriesDropped    *pubsub.Signal[dicom.SeriesUID]
}

// NewRendererEvents builds an empty signal set.
func NewRendererEvents() *RendererEvents {
	return &RendererEvents{
		TransformChanged: pubsub.NewSignal[Transform](),
		ZoomChanged:      pubsub.NewSignal[float64](),
		SliceScrolled:    pubsub.NewSignal[int](),
		Draw:             pubsub.NewSignal[DrawEvent](),
		ContextMenu:      pubsub.NewSignal[MenuAction](),
		SeriesDropped:    pubsub.NewSignal[dicom.SeriesUID](),
	}
}

// ConnCount returns the total live connections across all signals. The
// invariant tests use it to prove teardown leaves nothing behind.
func (e *RendererEvents) ConnCount() int {
	return e.TransformChanged.ConnCount() +
		e.ZoomChanged.ConnCount() +
		e.SliceScrolled.ConnCount() +
		e.Draw.ConnCount() +
		e.ContextMenu.ConnCount() +
		e.SeriesDropped.ConnCount()
}

// Renderer is a viewport's rendering surface. The core never draws; it
// drives a surface through this interface and reacts to its events. The
// terminal shell provides a cell-based implementation, tests use the
// recording fake.
type Renderer interface {
	// Display shows a dataset, or blanks the surface when ds is nil.
	Display(ds *dicom.Dataset)
	// CurrentZoom returns the surface zoom factor.
	CurrentZoom() float64
	// SetZoom changes the zoom factor without emitting ZoomChanged.
	SetZoom(z float64)
	// FitToView refits the image to the surface. With preserveCenter the
	// current pan center survives the refit.
	FitToView(preserveCenter bool)
	// Events returns the surface's signal set.
	Events() *RendererEvents
}

// RendererFactory builds the surface for a viewport slot.
type RendererFactory func(index int) Renderer

// nullRenderer is the fallback surface when no factory is configured.
// It records enough state for the core to stay consistent.
type nullRenderer struct {
	events *RendererEvents
	zoom   float64
	shown  *dicom.Dataset
	fits   int
}

// NewNullRenderer returns a surface that draws nothing.
func NewNullRenderer() Renderer {
	return &nullRenderer{events: NewRendererEvents(), zoom: 1.0}
}

func (r *nullRenderer) Display(ds *dicom.Dataset) { r.shown = ds }
func (r *nullRenderer) CurrentZoom() float64      { return r.zoom }
func (r *nullRenderer) SetZoom(z float64)         { r.zoom = z }
func (r *nullRenderer) FitToView(bool)            { r.fits++ }
func (r *nullRenderer) Events() *RendererEvents   { return r.events }
