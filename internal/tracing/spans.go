package tracing

// Span attribute keys for viewer tracing.
const (
	// Viewport attributes
	AttrViewportIndex = "viewport.index"
	AttrPrevIndex     = "viewport.prev_index"

	// Layout attributes
	AttrLayoutShape = "layout.shape"
	AttrLayoutSlots = "layout.slots"

	// Series attributes
	AttrStudyUID   = "series.study_uid"
	AttrSeriesUID  = "series.uid"
	AttrSliceIndex = "series.slice_index"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// Span names for the core transitions.
const (
	SpanSetFocus     = "viewer.set_focus"
	SpanApplyLayout  = "viewer.apply_layout"
	SpanAssignSeries = "viewer.assign_series"
	SpanLoadFileSet  = "viewer.load_fileset"
)

// Event names for span events.
const (
	EventTeardownComplete = "focus.teardown_complete"
	EventRewireComplete   = "focus.rewire_complete"
	EventRepublished      = "focus.republished"
	EventRefitScheduled   = "layout.refit_scheduled"
	EventBundleDiscarded  = "layout.bundle_discarded"
)
