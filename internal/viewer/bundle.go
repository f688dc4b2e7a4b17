package viewer

import "quadview/internal/dicom"

// WindowLevel is a display window: center and width in stored pixel units.
type WindowLevel struct {
	Center float64
	Width  float64
}

// Zero reports whether the window is unset.
func (w WindowLevel) Zero() bool { return w.Center == 0 && w.Width == 0 }

// Transform is the pan/zoom state of a viewport surface.
type Transform struct {
	Zoom float64
	PanX float64
	PanY float64
}

// DefaultTransform is the identity transform applied to fresh viewports.
func DefaultTransform() Transform { return Transform{Zoom: 1.0} }

// Projection selects how a slab of slices collapses to one image.
type Projection int

const (
	ProjectionNone Projection = iota
	ProjectionMIP
	ProjectionMinIP
	ProjectionAverage
)

func (p Projection) String() string {
	switch p {
	case ProjectionMIP:
		return "mip"
	case ProjectionMinIP:
		return "minip"
	case ProjectionAverage:
		return "average"
	default:
		return "none"
	}
}

// DisplayState is everything a viewport shows: which slice of which series,
// and how. Series and Study are recorded alongside the dataset pointer so a
// stale reference after a file-set reload can be detected and re-derived.
type DisplayState struct {
	Dataset       *dicom.Dataset
	SliceIndex    int
	Series        dicom.SeriesUID
	Study         dicom.StudyUID
	WindowLevel   WindowLevel
	Transform     Transform
	Projection    Projection
	SlabThickness int
	Inverted      bool
}

// Empty reports whether the viewport has no series assigned.
func (d DisplayState) Empty() bool { return d.Series == "" && d.Dataset == nil }

// Key returns the slice key for the displayed slice.
func (d DisplayState) Key() SliceKey {
	return SliceKey{Study: d.Study, Series: d.Series, Slice: d.SliceIndex}
}

// FusionState is the per-viewport fusion flag. The caches and the per-study
// notification flags live on the shared fusion engine; a bundle only knows
// whether blending is on for its slot.
type FusionState struct {
	Enabled bool
}

// OverlayState controls which text overlays a viewport draws.
type OverlayState struct {
	PatientInfo bool
	SeriesInfo  bool
	WindowLevel bool
	SliceNumber bool
	Scale       bool
}

// DefaultOverlayState shows everything except the scale bar.
func DefaultOverlayState() OverlayState {
	return OverlayState{
		PatientInfo: true,
		SeriesInfo:  true,
		WindowLevel: true,
		SliceNumber: true,
	}
}

// ManagerBundle is one viewport's complete private state: display, tools,
// fusion flag, overlays and its rendering surface. Bundles are created
// lazily by the registry and owned by it; nothing outside the registry
// holds a bundle across a layout change.
type ManagerBundle struct {
	index    int
	Display  DisplayState
	Tools    ToolState
	Fusion   FusionState
	Overlay  OverlayState
	renderer Renderer
}

func newManagerBundle(index int, r Renderer) *ManagerBundle {
	return &ManagerBundle{
		index: index,
		Display: DisplayState{
			Transform: DefaultTransform(),
		},
		Tools:    NewToolState(),
		Overlay:  DefaultOverlayState(),
		renderer: r,
	}
}

// Index returns the bundle's slot in the grid.
func (b *ManagerBundle) Index() int { return b.index }

// Renderer returns the bundle's rendering surface.
func (b *ManagerBundle) Renderer() Renderer { return b.renderer }

// ShowSlice points the bundle at one slice of a series and pushes it to
// the renderer. Window/level, transform and tools are left untouched.
func (b *ManagerBundle) ShowSlice(series *dicom.Series, study dicom.StudyUID, idx int) {
	ds := series.SliceAt(idx)
	if ds == nil {
		return
	}
	b.Display.Dataset = ds
	b.Display.SliceIndex = idx
	b.Display.Series = series.UID
	b.Display.Study = study
	if b.renderer != nil {
		b.renderer.Display(ds)
	}
}

// ClearDisplay empties the viewport. Tool items are kept; they are keyed
// by slice and become visible again if the same series returns.
func (b *ManagerBundle) ClearDisplay() {
	b.Display = DisplayState{Transform: DefaultTransform()}
	if b.renderer != nil {
		b.renderer.Display(nil)
	}
}
