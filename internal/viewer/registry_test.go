package viewer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"quadview/internal/dicom"
)

// fakeFusion records which slots were disabled and cleared.
type fakeFusion struct {
	enabled  map[int]bool
	disabled []int
	cleared  []int
	notified map[dicom.StudyUID]bool
	resets   int
}

func newFakeFusion() *fakeFusion {
	return &fakeFusion{enabled: map[int]bool{}, notified: map[dicom.StudyUID]bool{}}
}

func (f *fakeFusion) Enable(i int)       { f.enabled[i] = true }
func (f *fakeFusion) Disable(i int)      { delete(f.enabled, i); f.disabled = append(f.disabled, i) }
func (f *fakeFusion) Enabled(i int) bool { return f.enabled[i] }
func (f *fakeFusion) ClearCaches(i int)  { f.cleared = append(f.cleared, i) }
func (f *fakeFusion) NotificationShown(s dicom.StudyUID) bool { return f.notified[s] }
func (f *fakeFusion) MarkNotificationShown(s dicom.StudyUID)  { f.notified[s] = true }

func (f *fakeFusion) Reset() {
	f.resets++
	f.notified = map[dicom.StudyUID]bool{}
}

func TestRegistry_GetOrCreateIdempotent(t *testing.T) {
	r := NewRegistry(nil, newFakeFusion())
	r.setLayout(Layout2x2)

	a, err := r.GetOrCreate(2)
	require.NoError(t, err)
	b, err := r.GetOrCreate(2)
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 2, a.Index())
	require.Equal(t, 1, r.Count())
}

func TestRegistry_InvalidIndex(t *testing.T) {
	r := NewRegistry(nil, newFakeFusion())

	for _, idx := range []int{-1, 1, 4} {
		_, err := r.GetOrCreate(idx)
		require.Error(t, err)
		var iv *InvalidViewportIndexError
		require.ErrorAs(t, err, &iv)
		require.Equal(t, idx, iv.Index)
		require.Equal(t, 1, iv.Slots)
	}
}

func TestRegistry_LookupDoesNotCreate(t *testing.T) {
	r := NewRegistry(nil, newFakeFusion())
	_, ok := r.Lookup(0)
	require.False(t, ok)
	require.Equal(t, 0, r.Count())
}

func TestRegistry_DiscardClearsFusion(t *testing.T) {
	fusion := newFakeFusion()
	r := NewRegistry(nil, fusion)
	r.setLayout(Layout2x2)

	_, err := r.GetOrCreate(3)
	require.NoError(t, err)
	r.Discard(3)

	require.Equal(t, 0, r.Count())
	require.Equal(t, []int{3}, fusion.disabled)
	require.Equal(t, []int{3}, fusion.cleared)
}

func TestRegistry_SlotZeroNeverDiscarded(t *testing.T) {
	r := NewRegistry(nil, newFakeFusion())
	b, err := r.GetOrCreate(0)
	require.NoError(t, err)

	r.Discard(0)
	got, ok := r.Lookup(0)
	require.True(t, ok)
	require.Same(t, b, got)
}

func TestRegistry_IndicesAscending(t *testing.T) {
	r := NewRegistry(nil, newFakeFusion())
	r.setLayout(Layout2x2)
	for _, i := range []int{3, 0, 2} {
		_, err := r.GetOrCreate(i)
		require.NoError(t, err)
	}
	require.Equal(t, []int{0, 2, 3}, r.Indices())
}
