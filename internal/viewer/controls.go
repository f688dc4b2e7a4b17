package viewer

import (
	"quadview/internal/dicom"
	"quadview/internal/pubsub"
)

// WindowPreset is a named window/level pair.
type WindowPreset struct {
	Name string
	WL   WindowLevel
}

// WindowPresets are the built-in presets, in toolbar order.
var WindowPresets = []WindowPreset{
	{Name: "soft-tissue", WL: WindowLevel{Center: 40, Width: 400}},
	{Name: "lung", WL: WindowLevel{Center: -600, Width: 1500}},
	{Name: "bone", WL: WindowLevel{Center: 300, Width: 1500}},
	{Name: "brain", WL: WindowLevel{Center: 40, Width: 80}},
}

// PresetByName looks up a built-in preset.
func PresetByName(name string) (WindowPreset, bool) {
	for _, p := range WindowPresets {
		if p.Name == name {
			return p, true
		}
	}
	return WindowPreset{}, false
}

// SeriesRequest is a series-navigator pick: assign this series to the
// focused viewport.
type SeriesRequest struct {
	Study  dicom.StudyUID
	Series dicom.SeriesUID
}

// SeriesEntry is one row of the series navigator.
type SeriesEntry struct {
	Study       dicom.StudyUID
	Series      dicom.SeriesUID
	Description string
	Modality    string
	SliceCount  int
}

// MetadataView is the metadata panel content for the focused viewport.
type MetadataView struct {
	PatientName string
	Modality    string
	StudyDesc   string
	SeriesDesc  string
	SliceIndex  int
	SliceCount  int
	Rows        int
	Cols        int
}

// SharedControls is the single set of control panels every viewport
// shares. There is exactly one instance; the focus router retargets it on
// every focus change. Signals carry user input outward; Publish methods
// push state inward without re-emitting, so a republish after a focus
// change can never masquerade as a user edit.
type SharedControls struct {
	// User-input signals. Connected by the focus router to the focused
	// bundle, disconnected on every focus change.
	WindowLevelChanged *pubsub.Signal[WindowLevel]
	PresetApplied      *pubsub.Signal[string]
	ZoomChanged        *pubsub.Signal[float64]
	ROISelected        *pubsub.Signal[string]
	SeriesRequested    *pubsub.Signal[SeriesRequest]
	NavigateRequested  *pubsub.Signal[int] // slice delta
	ToolSelected       *pubsub.Signal[ToolKind]
	InvertToggled      *pubsub.Signal[struct{}]

	// Displayed state, written by the Publish methods and read by the
	// widgets that render the panels.
	Metadata      MetadataView
	WL            WindowLevel
	Zoom          float64
	ActiveTool    ToolKind
	Inverted      bool
	ROIList       []ToolItem
	SelectedROI   string
	SelectedStats ROIStats
	SeriesList    []SeriesEntry
	Highlighted   dicom.SeriesUID

	// publishing suppresses signal emission while a Publish method is
	// pushing state into the widgets.
	publishing bool

	// Delegates to the focused bundle, repointed by the focus router.
	// They go through the registry on every call so they can never pin a
	// discarded bundle.
	CurrentDisplay func() DisplayState
	CurrentTools   func() (ToolState, bool)
}

// NewSharedControls builds the singleton control set.
func NewSharedControls() *SharedControls {
	return &SharedControls{
		WindowLevelChanged: pubsub.NewSignal[WindowLevel](),
		PresetApplied:      pubsub.NewSignal[string](),
		ZoomChanged:        pubsub.NewSignal[float64](),
		ROISelected:        pubsub.NewSignal[string](),
		SeriesRequested:    pubsub.NewSignal[SeriesRequest](),
		NavigateRequested:  pubsub.NewSignal[int](),
		ToolSelected:       pubsub.NewSignal[ToolKind](),
		InvertToggled:      pubsub.NewSignal[struct{}](),
		Zoom:               1.0,
		CurrentDisplay:     func() DisplayState { return DisplayState{} },
		CurrentTools:       func() (ToolState, bool) { return ToolState{}, false },
	}
}

// ConnCount returns the live connections across every input signal.
func (c *SharedControls) ConnCount() int {
	return c.WindowLevelChanged.ConnCount() +
		c.PresetApplied.ConnCount() +
		c.ZoomChanged.ConnCount() +
		c.ROISelected.ConnCount() +
		c.SeriesRequested.ConnCount() +
		c.NavigateRequested.ConnCount() +
		c.ToolSelected.ConnCount() +
		c.InvertToggled.ConnCount()
}

// SetWindowLevel is the user-input path for the W/L widget. During a
// republish it updates the display only.
func (c *SharedControls) SetWindowLevel(wl WindowLevel) {
	c.WL = wl
	if !c.publishing {
		c.WindowLevelChanged.Emit(wl)
	}
}

// ApplyPreset is the user-input path for a preset button.
func (c *SharedControls) ApplyPreset(name string) {
	p, ok := PresetByName(name)
	if !ok {
		return
	}
	c.WL = p.WL
	if !c.publishing {
		c.PresetApplied.Emit(name)
	}
}

// SetZoom is the user-input path for the zoom widget.
func (c *SharedControls) SetZoom(z float64) {
	c.Zoom = z
	if !c.publishing {
		c.ZoomChanged.Emit(z)
	}
}

// SelectROI is the user-input path for the ROI list.
func (c *SharedControls) SelectROI(id string) {
	c.SelectedROI = id
	if !c.publishing {
		c.ROISelected.Emit(id)
	}
}

// RequestSeries is the user-input path for the series navigator.
func (c *SharedControls) RequestSeries(req SeriesRequest) {
	if !c.publishing {
		c.SeriesRequested.Emit(req)
	}
}

// RequestNavigate is the user-input path for slice navigation.
func (c *SharedControls) RequestNavigate(delta int) {
	if !c.publishing {
		c.NavigateRequested.Emit(delta)
	}
}

// SelectTool is the user-input path for the toolbar.
func (c *SharedControls) SelectTool(kind ToolKind) {
	c.ActiveTool = kind
	if !c.publishing {
		c.ToolSelected.Emit(kind)
	}
}

// ToggleInvert is the user-input path for the invert button.
func (c *SharedControls) ToggleInvert() {
	c.Inverted = !c.Inverted
	if !c.publishing {
		c.InvertToggled.Emit(struct{}{})
	}
}

// publish runs fn with emission suppressed.
func (c *SharedControls) publish(fn func()) {
	c.publishing = true
	defer func() { c.publishing = false }()
	fn()
}

// PublishWindowLevel pushes a W/L into the widget without emitting.
func (c *SharedControls) PublishWindowLevel(wl WindowLevel) {
	c.publish(func() { c.SetWindowLevel(wl) })
}

// PublishZoom pushes a zoom factor into the widget without emitting.
func (c *SharedControls) PublishZoom(z float64) {
	c.publish(func() { c.SetZoom(z) })
}

// PublishMetadata replaces the metadata panel content.
func (c *SharedControls) PublishMetadata(m MetadataView) {
	c.Metadata = m
}

// PublishROIs replaces the ROI list, selection and stats.
func (c *SharedControls) PublishROIs(items []ToolItem, selected string) {
	c.publish(func() {
		c.ROIList = items
		c.SelectedROI = selected
		c.SelectedStats = ROIStats{}
		for _, it := range items {
			if it.ID == selected {
				c.SelectedStats = it.Stats()
				break
			}
		}
	})
}

// PublishSeriesList replaces the series navigator rows.
func (c *SharedControls) PublishSeriesList(entries []SeriesEntry) {
	c.SeriesList = entries
}

// PublishHighlight moves the navigator highlight without emitting.
func (c *SharedControls) PublishHighlight(uid dicom.SeriesUID) {
	c.Highlighted = uid
}

// PublishTool pushes the active tool into the toolbar without emitting.
func (c *SharedControls) PublishTool(kind ToolKind) {
	c.publish(func() { c.SelectTool(kind) })
}

// PublishInvert pushes the invert flag without emitting.
func (c *SharedControls) PublishInvert(inverted bool) {
	c.Inverted = inverted
}
