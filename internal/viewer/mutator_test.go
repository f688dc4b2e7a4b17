package viewer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"quadview/internal/dicom"
)

type mutatorFixture struct {
	*routerFixture
	scheduler *Scheduler
	mutator   *LayoutMutator
}

func newMutatorFixture(t *testing.T) *mutatorFixture {
	t.Helper()
	rf := newRouterFixture(t, Layout1x1)
	f := &mutatorFixture{routerFixture: rf, scheduler: NewScheduler()}
	f.mutator = NewLayoutMutator(rf.registry, rf.router, f.scheduler)
	require.NoError(t, rf.router.SetFocus(context.Background(), 0))
	return f
}

func (f *mutatorFixture) fillSlot(t *testing.T, idx int) *ManagerBundle {
	t.Helper()
	b, err := f.registry.GetOrCreate(idx)
	require.NoError(t, err)
	b.Display.Dataset = dicom.NewDataset("study-1", dicom.SeriesUID("series"), idx, "/x")
	b.Display.Series = "series"
	b.Display.Study = "study-1"
	return b
}

func TestLayoutMutator_SameShapeIsNoop(t *testing.T) {
	f := newMutatorFixture(t)
	var saved []Shape
	f.mutator.SaveLayout = func(s Shape) { saved = append(saved, s) }

	require.NoError(t, f.mutator.Apply(context.Background(), Layout1x1))
	require.Empty(t, saved)
	require.Zero(t, f.scheduler.Pending())
}

func TestLayoutMutator_ShrinkDiscardsAndRefocuses(t *testing.T) {
	f := newMutatorFixture(t)
	require.NoError(t, f.mutator.Apply(context.Background(), Layout2x2))
	for i := 0; i < 4; i++ {
		f.fillSlot(t, i)
	}
	require.NoError(t, f.router.SetFocus(context.Background(), 3))

	require.NoError(t, f.mutator.Apply(context.Background(), Layout1x1))

	require.Equal(t, Layout1x1, f.registry.Layout())
	require.Equal(t, 0, f.router.Focused(), "focus falls back to slot 0")
	require.Equal(t, 1, f.registry.Count())
	require.ElementsMatch(t, []int{1, 2, 3}, f.fusion.disabled)
	require.ElementsMatch(t, []int{1, 2, 3}, f.fusion.cleared)

	// Slot 0 kept its state.
	b0, ok := f.registry.Lookup(0)
	require.True(t, ok)
	require.Equal(t, dicom.SeriesUID("series"), b0.Display.Series)
}

func TestLayoutMutator_RefitDeferredOneTurn(t *testing.T) {
	f := newMutatorFixture(t)
	b0 := f.fillSlot(t, 0)
	b0.Display.Transform.Zoom = 2.0

	require.NoError(t, f.mutator.Apply(context.Background(), Layout2x2))

	require.Zero(t, f.renderers[0].fits, "refit must not run inside the mutation")
	require.Equal(t, 1, f.scheduler.Pending())

	f.scheduler.Drain()
	require.Equal(t, 1, f.renderers[0].fits)
	require.Equal(t, 2.0, b0.Display.Transform.Zoom, "captured transform restored")
	require.Equal(t, 2.0, f.renderers[0].zoom)
}

func TestLayoutMutator_RefitSkipsDiscardedSlot(t *testing.T) {
	f := newMutatorFixture(t)
	require.NoError(t, f.mutator.Apply(context.Background(), Layout1x2))
	f.fillSlot(t, 0)
	f.fillSlot(t, 1)

	// Shrink twice without pumping: the first refit still references
	// slot 1, which the second mutation discards.
	require.NoError(t, f.mutator.Apply(context.Background(), Layout2x2))
	require.NoError(t, f.mutator.Apply(context.Background(), Layout1x1))

	f.scheduler.Drain()
	require.Zero(t, f.renderers[1].fits, "discarded slot skipped by stale refit")
	require.Equal(t, 2, f.renderers[0].fits, "slot 0 refit once per mutation")
}

func TestLayoutMutator_EmptySlotNotRefitted(t *testing.T) {
	f := newMutatorFixture(t)
	require.NoError(t, f.mutator.Apply(context.Background(), Layout1x2))
	f.scheduler.Drain()
	require.Zero(t, f.renderers[0].fits, "no dataset, nothing to refit")
}

func TestLayoutMutator_SavesAppliedShape(t *testing.T) {
	f := newMutatorFixture(t)
	var saved []Shape
	f.mutator.SaveLayout = func(s Shape) { saved = append(saved, s) }

	require.NoError(t, f.mutator.Apply(context.Background(), Layout2x1))
	require.NoError(t, f.mutator.Apply(context.Background(), Layout2x2))
	require.Equal(t, []Shape{Layout2x1, Layout2x2}, saved)
}

func TestLayoutMutator_RejectsUnknownShape(t *testing.T) {
	f := newMutatorFixture(t)
	require.Error(t, f.mutator.Apply(context.Background(), Shape("3x3")))
	require.Equal(t, Layout1x1, f.registry.Layout())
}
