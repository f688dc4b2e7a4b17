// Package viewer is the multi-viewport core: a 1-4 slot grid of viewport
// bundles, exactly one of which is focused, sharing a single set of
// control panels that a focus router retargets on every focus change.
// The package is UI-free; the terminal shell drives it and pumps its
// scheduler after every event.
package viewer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"quadview/internal/dicom"
	"quadview/internal/log"
	"quadview/internal/tracing"
)

// AnnotationStore persists tool items across sessions. Implemented by the
// sqlite store; nil disables persistence.
type AnnotationStore interface {
	SaveItem(ctx context.Context, item ToolItem) error
	DeleteItem(ctx context.Context, id string) error
	ItemsForSeries(ctx context.Context, study dicom.StudyUID, series dicom.SeriesUID) ([]ToolItem, error)
}

// Options configures a Viewer. Zero values get working defaults: null
// renderers, an in-memory fusion engine, no persistence, no tracing.
type Options struct {
	RendererFactory RendererFactory
	Fusion          Fusion
	// FusionCacheTTL bounds the default fusion engine's caches; ignored
	// when Fusion is set. Zero selects the cache manager default.
	FusionCacheTTL time.Duration
	Loader         dicom.Loader
	Annotations    AnnotationStore
	Tracer         trace.Tracer
	SaveLayout     func(Shape)
}

// Viewer is the facade over the registry, focus router, layout mutator,
// aliases and shared controls. Everything runs on one goroutine; deferred
// work goes through the scheduler, which the host pumps after each event.
type Viewer struct {
	registry  *Registry
	router    *FocusRouter
	mutator   *LayoutMutator
	controls  *SharedControls
	aliases   *AliasSet
	scheduler *Scheduler
	fusion    Fusion
	store     AnnotationStore
	loader    dicom.Loader
	tracer    trace.Tracer

	fileset *dicom.FileSet

	// Re-entrancy guards. Slice navigation updates widgets that echo
	// value-changed events back; the guard makes the echo a no-op
	// instead of a recursion.
	navigating    bool
	projResetting bool
}

// New builds a Viewer and wires focus to slot 0.
func New(opts Options) (*Viewer, error) {
	fusion := opts.Fusion
	if fusion == nil {
		fusion = NewFusionEngine(opts.FusionCacheTTL)
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("viewer")
	}
	loader := opts.Loader
	if loader == nil {
		loader = dicom.DirLoader{}
	}

	reg := NewRegistry(opts.RendererFactory, fusion)
	controls := NewSharedControls()
	aliases := &AliasSet{CurrentZoom: 1.0}
	router := NewFocusRouter(reg, controls, aliases)
	router.SetTracer(tracer)
	scheduler := NewScheduler()
	mutator := NewLayoutMutator(reg, router, scheduler)
	mutator.SetTracer(tracer)
	mutator.SaveLayout = opts.SaveLayout

	v := &Viewer{
		registry:  reg,
		router:    router,
		mutator:   mutator,
		controls:  controls,
		aliases:   aliases,
		scheduler: scheduler,
		fusion:    fusion,
		store:     opts.Annotations,
		loader:    loader,
		tracer:    tracer,
	}

	router.OnNavigate = v.navigateBy
	router.OnAssign = func(req SeriesRequest) {
		if err := v.AssignSeries(context.Background(), v.router.Focused(), req.Series, -1); err != nil {
			log.ErrorErr(log.CatSeries, "assign from controls failed", err)
		}
	}
	router.OnItemAdded = func(item ToolItem) {
		if v.store == nil {
			return
		}
		if err := v.store.SaveItem(context.Background(), item); err != nil {
			log.ErrorErr(log.CatDB, "persist tool item failed", err, "id", item.ID)
		}
	}
	router.ResolveSeries = func(uid dicom.SeriesUID) (*dicom.Series, dicom.StudyUID, bool) {
		s, ok := v.fileset.SeriesByUID(uid)
		if !ok {
			return nil, "", false
		}
		return s, s.Study, true
	}

	if err := router.SetFocus(context.Background(), 0); err != nil {
		return nil, err
	}
	return v, nil
}

// Controls returns the shared control set.
func (v *Viewer) Controls() *SharedControls { return v.controls }

// Aliases returns the legacy alias set.
func (v *Viewer) Aliases() *AliasSet { return v.aliases }

// Scheduler returns the deferred-work queue for the host to pump.
func (v *Viewer) Scheduler() *Scheduler { return v.scheduler }

// Registry returns the viewport registry.
func (v *Viewer) Registry() *Registry { return v.registry }

// Router returns the focus router.
func (v *Viewer) Router() *FocusRouter { return v.router }

// FileSet returns the loaded file set, or nil.
func (v *Viewer) FileSet() *dicom.FileSet { return v.fileset }

// FocusedIndex returns the focused slot.
func (v *Viewer) FocusedIndex() int { return v.router.Focused() }

// Layout returns the current grid shape.
func (v *Viewer) Layout() Shape { return v.registry.Layout() }

// SetFocus moves focus to a slot.
func (v *Viewer) SetFocus(ctx context.Context, index int) error {
	return v.router.SetFocus(ctx, index)
}

// ApplyLayout switches the grid shape.
func (v *Viewer) ApplyLayout(ctx context.Context, shape Shape) error {
	return v.mutator.Apply(ctx, shape)
}

// DisplayState returns a copy of a slot's display state without creating
// a bundle.
func (v *Viewer) DisplayState(index int) (DisplayState, error) {
	if index < 0 || index >= v.registry.Layout().Slots() {
		return DisplayState{}, &InvalidViewportIndexError{Index: index, Slots: v.registry.Layout().Slots()}
	}
	if b, ok := v.registry.Lookup(index); ok {
		return b.Display, nil
	}
	return DisplayState{Transform: DefaultTransform()}, nil
}

// AssignSeries puts a series into a slot at the given slice index; a
// negative index selects the middle of the series. The slot's bundle is
// created on demand. Assigning to the focused slot republishes the
// controls and resyncs the aliases; assigning elsewhere changes nothing
// the user is looking at.
func (v *Viewer) AssignSeries(ctx context.Context, index int, uid dicom.SeriesUID, slice int) error {
	ctx, span := v.tracer.Start(ctx, tracing.SpanAssignSeries, trace.WithAttributes(
		attribute.Int(tracing.AttrViewportIndex, index),
		attribute.String(tracing.AttrSeriesUID, string(uid)),
	))
	defer span.End()

	series, ok := v.fileset.SeriesByUID(uid)
	if !ok {
		return fmt.Errorf("series %s not in loaded file set", uid)
	}
	b, err := v.registry.GetOrCreate(index)
	if err != nil {
		return err
	}

	if slice < 0 {
		slice = len(series.Slices) / 2
	}
	if slice >= len(series.Slices) {
		slice = len(series.Slices) - 1
	}
	b.ShowSlice(series, series.Study, slice)
	if b.Display.WindowLevel.Zero() {
		b.Display.WindowLevel = WindowPresets[0].WL
	}
	v.restoreItems(ctx, b, series)
	v.maybeNotifyFusion(series.Study)

	if rd := b.Renderer(); rd != nil {
		rd.FitToView(false)
	}
	if index == v.router.Focused() {
		v.router.Republish()
		v.aliases.Resync(b)
	}
	log.Info(log.CatSeries, "series assigned", "viewport", index, "series", uid, "slices", len(series.Slices))
	return nil
}

// restoreItems loads persisted tool items for a series into the bundle.
// Items already present (same ID) are left alone.
func (v *Viewer) restoreItems(ctx context.Context, b *ManagerBundle, series *dicom.Series) {
	if v.store == nil {
		return
	}
	items, err := v.store.ItemsForSeries(ctx, series.Study, series.UID)
	if err != nil {
		log.ErrorErr(log.CatDB, "restore tool items failed", err, "series", series.UID)
		return
	}
	for _, it := range items {
		if mgr, ok := b.Tools.ManagerFor(it.Kind); ok {
			mgr.Add(it)
		}
	}
	if len(items) > 0 {
		log.Debug(log.CatDB, "tool items restored", "series", series.UID, "count", len(items))
	}
}

// maybeNotifyFusion shows the one-time per-study fusion hint when a study
// with more than one series lands in a viewport.
func (v *Viewer) maybeNotifyFusion(study dicom.StudyUID) {
	var st *dicom.Study
	for _, s := range v.fileset.Studies {
		if s.UID == study {
			st = s
			break
		}
	}
	if st == nil || len(st.Series) < 2 {
		return
	}
	if v.fusion.NotificationShown(study) {
		return
	}
	v.fusion.MarkNotificationShown(study)
	log.Info(log.CatFusion, "fusion available", "study", study, "series", len(st.Series))
}

// NavigateBy moves the focused viewport by a slice delta, clamped to the
// series bounds.
func (v *Viewer) NavigateBy(delta int) {
	v.navigateBy(delta)
}

// NavigateTo jumps the focused viewport to an absolute slice index.
func (v *Viewer) NavigateTo(idx int) {
	b, ok := v.registry.Lookup(v.router.Focused())
	if !ok || b.Display.Empty() {
		return
	}
	v.navigateBy(idx - b.Display.SliceIndex)
}

func (v *Viewer) navigateBy(delta int) {
	if v.navigating {
		return
	}
	v.navigating = true
	defer func() { v.navigating = false }()

	b, ok := v.registry.Lookup(v.router.Focused())
	if !ok || b.Display.Series == "" {
		return
	}
	series, okS := v.fileset.SeriesByUID(b.Display.Series)
	if !okS {
		return
	}
	idx := b.Display.SliceIndex + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(series.Slices) {
		idx = len(series.Slices) - 1
	}
	if idx == b.Display.SliceIndex {
		return
	}
	b.ShowSlice(series, series.Study, idx)
	v.router.Republish()
	v.aliases.Resync(b)
}

// SetWindowLevel drives the shared W/L widget as the user would; the
// router's wiring applies it to the focused bundle.
func (v *Viewer) SetWindowLevel(wl WindowLevel) {
	v.controls.SetWindowLevel(wl)
}

// ApplyPreset applies a named window preset through the controls.
func (v *Viewer) ApplyPreset(name string) {
	v.controls.ApplyPreset(name)
}

// SetZoom drives the shared zoom widget.
func (v *Viewer) SetZoom(z float64) {
	v.controls.SetZoom(z)
}

// ToggleInvert flips grayscale inversion on the focused viewport.
func (v *Viewer) ToggleInvert() {
	v.controls.ToggleInvert()
}

// SetProjection changes a slot's projection mode. Changing modes resets
// the slab and re-displays; the guard swallows the value-changed echoes
// the reset causes.
func (v *Viewer) SetProjection(index int, p Projection, thickness int) error {
	if v.projResetting {
		return nil
	}
	v.projResetting = true
	defer func() { v.projResetting = false }()

	b, ok := v.registry.Lookup(index)
	if !ok {
		return &InvalidViewportIndexError{Index: index, Slots: v.registry.Layout().Slots()}
	}
	b.Display.Projection = p
	if p == ProjectionNone {
		b.Display.SlabThickness = 0
	} else {
		if thickness < 1 {
			thickness = 1
		}
		b.Display.SlabThickness = thickness
	}
	if rd := b.Renderer(); rd != nil && b.Display.Dataset != nil {
		rd.Display(b.Display.Dataset)
	}
	if index == v.router.Focused() {
		v.aliases.Resync(b)
	}
	log.Debug(log.CatSeries, "projection changed", "viewport", index, "mode", p, "slab", b.Display.SlabThickness)
	return nil
}

// ToggleFusion flips blending for a slot.
func (v *Viewer) ToggleFusion(index int) error {
	b, ok := v.registry.Lookup(index)
	if !ok {
		return &InvalidViewportIndexError{Index: index, Slots: v.registry.Layout().Slots()}
	}
	if v.fusion.Enabled(index) {
		v.fusion.Disable(index)
		b.Fusion.Enabled = false
	} else {
		v.fusion.Enable(index)
		b.Fusion.Enabled = true
	}
	return nil
}

// RequestRefit defers a fit-to-view for a slot one scheduler turn. The
// refit re-checks that the bundle still exists when it runs.
func (v *Viewer) RequestRefit(index int) {
	v.scheduler.Defer(func() {
		b, ok := v.registry.Lookup(index)
		if !ok {
			return
		}
		if rd := b.Renderer(); rd != nil && b.Display.Dataset != nil {
			rd.FitToView(true)
		}
	})
}

// LoadFileSet loads the directory tree at root, publishes the series list
// and forces focus back to slot 0. Nothing is auto-assigned; viewports
// fill on request. Loading over an already-open file set discards every
// viewport's display with the fusion cache-invalidation contract, but
// per-study notification flags survive; only CloseFileSet clears those.
func (v *Viewer) LoadFileSet(ctx context.Context, root string) error {
	ctx, span := v.tracer.Start(ctx, tracing.SpanLoadFileSet)
	defer span.End()

	fs, err := v.loader.Load(root)
	if err != nil {
		span.SetAttributes(attribute.String(tracing.AttrErrorMessage, err.Error()))
		return fmt.Errorf("load file set: %w", err)
	}
	if v.fileset != nil {
		for _, idx := range v.registry.Indices() {
			if b, ok := v.registry.Lookup(idx); ok {
				v.fusion.Disable(idx)
				v.fusion.ClearCaches(idx)
				b.Fusion.Enabled = false
				b.ClearDisplay()
			}
		}
	}
	v.fileset = fs
	v.publishSeriesList()
	if err := v.router.SetFocus(ctx, 0); err != nil {
		return err
	}
	v.router.Republish()
	if b, ok := v.registry.Lookup(0); ok {
		v.aliases.Resync(b)
	}
	log.Info(log.CatSeries, "file set loaded", "root", root, "studies", len(fs.Studies))
	return nil
}

// ReloadFileSet re-reads the loaded root and revalidates every viewport's
// series reference against the new index.
func (v *Viewer) ReloadFileSet(ctx context.Context) error {
	if v.fileset == nil {
		return fmt.Errorf("no file set loaded")
	}
	root := v.fileset.Root
	fs, err := v.loader.Load(root)
	if err != nil {
		return fmt.Errorf("reload file set: %w", err)
	}
	v.fileset = fs
	v.publishSeriesList()
	v.revalidateAssignments()
	log.Info(log.CatSeries, "file set reloaded", "root", root)
	return nil
}

// revalidateAssignments repairs viewports whose stored series UID no
// longer resolves after a reload. Recovery re-derives the series from the
// displayed slice's path; when the slice is gone too, the viewport is
// cleared rather than left pointing at nothing.
func (v *Viewer) revalidateAssignments() {
	for _, idx := range v.registry.Indices() {
		b, ok := v.registry.Lookup(idx)
		if !ok || b.Display.Series == "" {
			continue
		}
		if v.fileset.HasSeries(b.Display.Series) {
			// UID survived; repoint the dataset at the fresh index.
			series, _ := v.fileset.SeriesByUID(b.Display.Series)
			sliceIdx := b.Display.SliceIndex
			if sliceIdx >= len(series.Slices) {
				sliceIdx = len(series.Slices) - 1
			}
			b.ShowSlice(series, series.Study, sliceIdx)
			continue
		}
		recovered := v.recoverByPath(b)
		if recovered {
			log.Warn(log.CatSeries, "stale series reference corrected", "viewport", idx)
		} else {
			log.Warn(log.CatSeries, "stale series reference cleared", "viewport", idx, "series", b.Display.Series)
			b.ClearDisplay()
		}
	}
	if b, ok := v.registry.Lookup(v.router.Focused()); ok {
		v.router.Republish()
		v.aliases.Resync(b)
	}
}

// recoverByPath finds the displayed slice's file in the reloaded set and
// re-derives the series identity from it.
func (v *Viewer) recoverByPath(b *ManagerBundle) bool {
	if b.Display.Dataset == nil {
		return false
	}
	path := b.Display.Dataset.Path
	for _, series := range v.fileset.AllSeries() {
		for i, ds := range series.Slices {
			if ds.Path == path {
				b.ShowSlice(series, series.Study, i)
				return true
			}
		}
	}
	return false
}

// CloseFileSet clears every viewport, resets fusion state including the
// per-study notification flags, and empties the series list.
func (v *Viewer) CloseFileSet() {
	for _, idx := range v.registry.Indices() {
		if b, ok := v.registry.Lookup(idx); ok {
			b.ClearDisplay()
			b.Tools.ClearAll()
		}
	}
	v.fusion.Reset()
	v.fileset = nil
	v.controls.PublishSeriesList(nil)
	v.controls.PublishHighlight("")
	v.router.Republish()
	if b, ok := v.registry.Lookup(v.router.Focused()); ok {
		v.aliases.Resync(b)
	}
	log.Info(log.CatSeries, "file set closed")
}

func (v *Viewer) publishSeriesList() {
	var entries []SeriesEntry
	for _, series := range v.fileset.AllSeries() {
		entries = append(entries, SeriesEntry{
			Study:       series.Study,
			Series:      series.UID,
			Description: series.Description,
			Modality:    series.Modality,
			SliceCount:  len(series.Slices),
		})
	}
	v.controls.PublishSeriesList(entries)
}
