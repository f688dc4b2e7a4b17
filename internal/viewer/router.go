package viewer

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"quadview/internal/dicom"
	"quadview/internal/log"
	"quadview/internal/pubsub"
	"quadview/internal/tracing"
)

// FocusRouter retargets the shared controls whenever focus moves between
// viewports. A focus change always runs the same sequence:
//
//  1. teardown  - disconnect every tracked subscription from the old wiring
//  2. repoint   - swap the controls' delegates to the new bundle
//  3. rewire    - connect controls and renderer signals for the new bundle
//  4. republish - push the new bundle's state into the controls, guarded
//  5. resync    - recompute the legacy aliases
//  6. side effects - deselect the old bundle's tool items, announce focus
//
// Every subscription made in rewire is tracked by its handle and torn down
// individually; there is no disconnect-all anywhere, so wiring owned by
// other collaborators survives focus changes untouched.
type FocusRouter struct {
	registry *Registry
	controls *SharedControls
	aliases  *AliasSet
	tracer   trace.Tracer

	focused int
	wired   bool
	conns   []func()

	// FocusChanged announces (previous, current) after a completed switch.
	FocusChanged *pubsub.Signal[[2]int]

	// Callbacks into the owning viewer for operations that reach beyond
	// the focused bundle.
	OnNavigate    func(delta int)
	OnAssign      func(req SeriesRequest)
	OnItemAdded   func(item ToolItem)
	ResolveSeries func(uid dicom.SeriesUID) (*dicom.Series, dicom.StudyUID, bool)
}

// NewFocusRouter builds a router over the given collaborators. Focus
// starts at slot 0 but nothing is wired until the first SetFocus.
func NewFocusRouter(reg *Registry, controls *SharedControls, aliases *AliasSet) *FocusRouter {
	return &FocusRouter{
		registry:     reg,
		controls:     controls,
		aliases:      aliases,
		tracer:       noop.NewTracerProvider().Tracer("focus"),
		FocusChanged: pubsub.NewSignal[[2]int](),
	}
}

// SetTracer installs the tracer used for focus spans.
func (r *FocusRouter) SetTracer(t trace.Tracer) {
	if t != nil {
		r.tracer = t
	}
}

// Focused returns the focused slot index.
func (r *FocusRouter) Focused() int { return r.focused }

// Wired reports whether the controls are currently wired to a bundle.
func (r *FocusRouter) Wired() bool { return r.wired }

// ConnCount returns the number of tracked subscriptions.
func (r *FocusRouter) ConnCount() int { return len(r.conns) }

// connect wires fn to sig and tracks the handle for teardown.
func connect[T any](r *FocusRouter, sig *pubsub.Signal[T], fn func(T)) {
	c := sig.Connect(fn)
	r.conns = append(r.conns, func() { sig.Disconnect(c) })
}

// SetFocus moves focus to a slot, creating its bundle if needed. Focusing
// the already-focused slot is a no-op once wired. An invalid index returns
// InvalidViewportIndexError and leaves the current wiring untouched.
func (r *FocusRouter) SetFocus(ctx context.Context, index int) error {
	if r.wired && index == r.focused {
		return nil
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanSetFocus, trace.WithAttributes(
		attribute.Int(tracing.AttrViewportIndex, index),
		attribute.Int(tracing.AttrPrevIndex, r.focused),
	))
	defer span.End()
	_ = ctx

	bundle, err := r.registry.GetOrCreate(index)
	if err != nil {
		span.SetAttributes(attribute.String(tracing.AttrErrorMessage, err.Error()))
		log.ErrorErr(log.CatFocus, "focus rejected", err, "index", index)
		return err
	}

	prev := r.focused
	oldBundle, hadOld := r.registry.Lookup(prev)

	// 1. teardown
	for _, disconnect := range r.conns {
		disconnect()
	}
	r.conns = nil
	span.AddEvent(tracing.EventTeardownComplete)

	// 2. repoint
	r.focused = index
	r.controls.CurrentDisplay = func() DisplayState {
		if b, ok := r.registry.Lookup(r.focused); ok {
			return b.Display
		}
		return DisplayState{}
	}
	r.controls.CurrentTools = func() (ToolState, bool) {
		if b, ok := r.registry.Lookup(r.focused); ok {
			return b.Tools, true
		}
		return ToolState{}, false
	}

	// 3. rewire
	r.wireControls()
	r.wireRenderer(bundle.Renderer())
	r.wired = true
	span.AddEvent(tracing.EventRewireComplete)

	// 4. republish
	r.Republish()
	span.AddEvent(tracing.EventRepublished)

	// 5. alias resync
	r.aliases.Resync(bundle)

	// 6. side effects
	if hadOld && oldBundle != bundle {
		oldBundle.Tools.DeselectAll()
	}
	log.Info(log.CatFocus, "focus changed", "from", prev, "to", index)
	r.FocusChanged.Emit([2]int{prev, index})
	return nil
}

// focusedBundle resolves the focused bundle through the registry. Handlers
// use this instead of capturing the bundle so a discarded bundle can never
// be revived by a stale closure.
func (r *FocusRouter) focusedBundle() (*ManagerBundle, bool) {
	return r.registry.Lookup(r.focused)
}

func (r *FocusRouter) wireControls() {
	connect(r, r.controls.WindowLevelChanged, func(wl WindowLevel) {
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		b.Display.WindowLevel = wl
		if rd := b.Renderer(); rd != nil && b.Display.Dataset != nil {
			rd.Display(b.Display.Dataset)
		}
		r.aliases.Resync(b)
	})
	connect(r, r.controls.PresetApplied, func(name string) {
		p, ok := PresetByName(name)
		if !ok {
			return
		}
		b, okB := r.focusedBundle()
		if !okB {
			return
		}
		b.Display.WindowLevel = p.WL
		r.aliases.Resync(b)
		log.Debug(log.CatTools, "preset applied", "preset", name, "viewport", b.Index())
	})
	connect(r, r.controls.ZoomChanged, func(z float64) {
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		b.Display.Transform.Zoom = z
		if rd := b.Renderer(); rd != nil {
			rd.SetZoom(z)
		}
		r.aliases.Resync(b)
	})
	connect(r, r.controls.ROISelected, func(id string) {
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		b.Tools.ROIs.Select(id)
		r.publishROIs(b)
	})
	connect(r, r.controls.SeriesRequested, func(req SeriesRequest) {
		if r.OnAssign != nil {
			r.OnAssign(req)
		}
	})
	connect(r, r.controls.NavigateRequested, func(delta int) {
		if r.OnNavigate != nil {
			r.OnNavigate(delta)
		}
	})
	connect(r, r.controls.ToolSelected, func(kind ToolKind) {
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		// Picking a new tool drops any active selection in the old one.
		b.Tools.DeselectAll()
		r.publishROIs(b)
	})
	connect(r, r.controls.InvertToggled, func(struct{}) {
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		b.Display.Inverted = !b.Display.Inverted
		if rd := b.Renderer(); rd != nil && b.Display.Dataset != nil {
			rd.Display(b.Display.Dataset)
		}
		r.aliases.Resync(b)
	})
}

func (r *FocusRouter) wireRenderer(rd Renderer) {
	if rd == nil {
		return
	}
	ev := rd.Events()
	connect(r, ev.ZoomChanged, func(z float64) {
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		b.Display.Transform.Zoom = z
		r.controls.PublishZoom(z)
		r.aliases.Resync(b)
	})
	connect(r, ev.TransformChanged, func(t Transform) {
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		b.Display.Transform = t
		r.aliases.Resync(b)
	})
	connect(r, ev.SliceScrolled, func(delta int) {
		if r.OnNavigate != nil {
			r.OnNavigate(delta)
		}
	})
	connect(r, ev.Draw, func(de DrawEvent) {
		if de.Phase != DrawFinished {
			return
		}
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		mgr, okM := b.Tools.ManagerFor(de.Kind)
		if !okM {
			return
		}
		item := de.Item
		if item.Key == (SliceKey{}) {
			item.Key = b.Display.Key()
		}
		mgr.Add(item)
		mgr.Select(item.ID)
		r.publishROIs(b)
		if r.OnItemAdded != nil {
			r.OnItemAdded(item)
		}
		log.Debug(log.CatTools, "item added", "kind", de.Kind, "viewport", b.Index())
	})
	connect(r, ev.ContextMenu, func(action MenuAction) {
		b, ok := r.focusedBundle()
		if !ok {
			return
		}
		switch action {
		case MenuResetView:
			b.Display.Transform = DefaultTransform()
			if rd := b.Renderer(); rd != nil {
				rd.SetZoom(1.0)
				rd.FitToView(false)
			}
			r.controls.PublishZoom(1.0)
		case MenuClearTools:
			b.Tools.ClearAll()
			r.publishROIs(b)
		case MenuToggleInvert:
			b.Display.Inverted = !b.Display.Inverted
		}
		r.aliases.Resync(b)
	})
	connect(r, ev.SeriesDropped, func(uid dicom.SeriesUID) {
		if r.OnAssign == nil {
			return
		}
		req := SeriesRequest{Series: uid}
		if r.ResolveSeries != nil {
			if _, study, ok := r.ResolveSeries(uid); ok {
				req.Study = study
			}
		}
		r.OnAssign(req)
	})
}

// Republish pushes the focused bundle's state into every shared control
// without emitting any user-input signal. Called on every focus change and
// whenever the focused bundle's display changes underneath the controls.
func (r *FocusRouter) Republish() {
	b, ok := r.focusedBundle()
	if !ok {
		return
	}
	d := b.Display

	r.controls.PublishWindowLevel(d.WindowLevel)
	r.controls.PublishZoom(d.Transform.Zoom)
	r.controls.PublishInvert(d.Inverted)
	r.controls.PublishHighlight(d.Series)
	r.publishROIs(b)

	m := MetadataView{SliceIndex: d.SliceIndex}
	if d.Dataset != nil {
		m.PatientName = d.Dataset.Element(dicom.TagPatientName)
		m.Modality = d.Dataset.Element(dicom.TagModality)
		m.StudyDesc = d.Dataset.Element(dicom.TagStudyDescription)
		m.SeriesDesc = d.Dataset.Element(dicom.TagSeriesDescription)
		m.Rows = d.Dataset.Rows
		m.Cols = d.Dataset.Cols
	}
	if r.ResolveSeries != nil && d.Series != "" {
		if s, _, okS := r.ResolveSeries(d.Series); okS {
			m.SliceCount = len(s.Slices)
			if m.SeriesDesc == "" {
				m.SeriesDesc = s.Description
			}
			if m.Modality == "" {
				m.Modality = s.Modality
			}
		}
	}
	r.controls.PublishMetadata(m)
}

func (r *FocusRouter) publishROIs(b *ManagerBundle) {
	items := b.Tools.ROIs.ItemsFor(b.Display.Key())
	selected := ""
	if it, ok := b.Tools.ROIs.Selected(); ok {
		selected = it.ID
	}
	r.controls.PublishROIs(items, selected)
}

// Teardown disconnects everything and leaves the router unwired. Used on
// shutdown and before a layout mutation that removes the focused slot.
func (r *FocusRouter) Teardown() {
	for _, disconnect := range r.conns {
		disconnect()
	}
	r.conns = nil
	r.wired = false
}
