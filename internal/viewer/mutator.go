package viewer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"quadview/internal/log"
	"quadview/internal/tracing"
)

// LayoutMutator applies grid changes. A mutation captures the surviving
// viewports' transforms, discards the bundles that fall outside the new
// grid, moves focus back to slot 0 when the focused slot is removed, and
// defers the refit of the surviving surfaces one scheduler turn so it runs
// after the host has resized them. The refit re-checks bundle existence at
// run time; a slot discarded between scheduling and execution is skipped.
type LayoutMutator struct {
	registry  *Registry
	router    *FocusRouter
	scheduler *Scheduler
	tracer    trace.Tracer

	// SaveLayout persists the applied shape, typically into the config
	// file. Nil disables persistence.
	SaveLayout func(Shape)
}

// NewLayoutMutator builds a mutator over the given collaborators.
func NewLayoutMutator(reg *Registry, router *FocusRouter, sched *Scheduler) *LayoutMutator {
	return &LayoutMutator{
		registry:  reg,
		router:    router,
		scheduler: sched,
		tracer:    noop.NewTracerProvider().Tracer("layout"),
	}
}

// SetTracer installs the tracer used for layout spans.
func (m *LayoutMutator) SetTracer(t trace.Tracer) {
	if t != nil {
		m.tracer = t
	}
}

// Apply switches the grid to a new shape. Applying the current shape is a
// no-op. Surviving viewports keep their display state; removed viewports
// are discarded through the registry, which disables fusion and clears its
// caches before the bundle goes away.
func (m *LayoutMutator) Apply(ctx context.Context, shape Shape) error {
	if !shape.Valid() {
		return fmt.Errorf("unknown layout shape: %q", shape)
	}
	old := m.registry.Layout()
	if shape == old {
		return nil
	}

	ctx, span := m.tracer.Start(ctx, tracing.SpanApplyLayout, trace.WithAttributes(
		attribute.String(tracing.AttrLayoutShape, string(shape)),
		attribute.Int(tracing.AttrLayoutSlots, shape.Slots()),
	))
	defer span.End()

	// Capture transforms before anything moves. Only surviving slots
	// matter; removed slots are not preserved.
	captured := make(map[int]Transform)
	for _, idx := range m.registry.Indices() {
		if idx < shape.Slots() {
			if b, ok := m.registry.Lookup(idx); ok {
				captured[idx] = b.Display.Transform
			}
		}
	}

	for _, idx := range m.registry.Indices() {
		if idx >= shape.Slots() {
			m.registry.Discard(idx)
			span.AddEvent(tracing.EventBundleDiscarded,
				trace.WithAttributes(attribute.Int(tracing.AttrViewportIndex, idx)))
		}
	}
	m.registry.setLayout(shape)

	if m.router.Focused() >= shape.Slots() {
		if err := m.router.SetFocus(ctx, 0); err != nil {
			return err
		}
	}

	m.scheduler.Defer(func() {
		for idx, tf := range captured {
			b, ok := m.registry.Lookup(idx)
			if !ok {
				continue
			}
			if rd := b.Renderer(); rd != nil && b.Display.Dataset != nil {
				rd.FitToView(true)
				rd.SetZoom(tf.Zoom)
			}
			b.Display.Transform = tf
		}
		if b, ok := m.registry.Lookup(m.router.Focused()); ok {
			m.router.aliases.Resync(b)
		}
	})
	span.AddEvent(tracing.EventRefitScheduled)

	if m.SaveLayout != nil {
		m.SaveLayout(shape)
	}
	log.Info(log.CatLayout, "layout applied", "from", old, "to", shape)
	return nil
}
