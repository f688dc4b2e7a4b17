package viewer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"quadview/internal/dicom"
)

// recordingRenderer is a surface fake that counts calls and exposes its
// event signals for the tests to fire.
type recordingRenderer struct {
	events   *RendererEvents
	zoom     float64
	shown    *dicom.Dataset
	displays int
	fits     int
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{events: NewRendererEvents(), zoom: 1.0}
}

func (r *recordingRenderer) Display(ds *dicom.Dataset) { r.shown = ds; r.displays++ }
func (r *recordingRenderer) CurrentZoom() float64      { return r.zoom }
func (r *recordingRenderer) SetZoom(z float64)         { r.zoom = z }
func (r *recordingRenderer) FitToView(bool)            { r.fits++ }
func (r *recordingRenderer) Events() *RendererEvents   { return r.events }

// routerFixture wires a registry, controls, aliases and router over
// recording renderers.
type routerFixture struct {
	registry  *Registry
	controls  *SharedControls
	aliases   *AliasSet
	router    *FocusRouter
	renderers map[int]*recordingRenderer
	fusion    *fakeFusion
}

func newRouterFixture(t *testing.T, shape Shape) *routerFixture {
	t.Helper()
	f := &routerFixture{
		controls:  NewSharedControls(),
		aliases:   &AliasSet{CurrentZoom: 1.0},
		renderers: map[int]*recordingRenderer{},
		fusion:    newFakeFusion(),
	}
	f.registry = NewRegistry(func(idx int) Renderer {
		r := newRecordingRenderer()
		f.renderers[idx] = r
		return r
	}, f.fusion)
	f.registry.setLayout(shape)
	f.router = NewFocusRouter(f.registry, f.controls, f.aliases)
	return f
}

func TestFocusRouter_WiresUserInputToFocusedBundle(t *testing.T) {
	f := newRouterFixture(t, Layout2x2)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	f.controls.SetWindowLevel(WindowLevel{Center: -600, Width: 1500})

	b, ok := f.registry.Lookup(0)
	require.True(t, ok)
	require.Equal(t, WindowLevel{Center: -600, Width: 1500}, b.Display.WindowLevel)
	require.Equal(t, WindowLevel{Center: -600, Width: 1500}, f.aliases.CurrentWindow)
}

func TestFocusRouter_SwitchRetargetsControls(t *testing.T) {
	f := newRouterFixture(t, Layout2x2)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))
	require.NoError(t, f.router.SetFocus(context.Background(), 1))

	f.controls.SetZoom(3.0)

	b0, _ := f.registry.Lookup(0)
	b1, _ := f.registry.Lookup(1)
	require.Equal(t, 1.0, b0.Display.Transform.Zoom, "unfocused viewport must not move")
	require.Equal(t, 3.0, b1.Display.Transform.Zoom)
	require.Equal(t, 3.0, f.renderers[1].zoom)
}

func TestFocusRouter_TeardownIsBalanced(t *testing.T) {
	f := newRouterFixture(t, Layout2x2)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	wired := f.controls.ConnCount()
	require.Greater(t, wired, 0)

	// Cycling focus must neither leak nor drop connections.
	for _, idx := range []int{1, 2, 3, 0, 2} {
		require.NoError(t, f.router.SetFocus(context.Background(), idx))
		require.Equal(t, wired, f.controls.ConnCount())
	}

	// Every unfocused renderer's events must be fully disconnected.
	for idx, r := range f.renderers {
		if idx == f.router.Focused() {
			require.Greater(t, r.events.ConnCount(), 0)
		} else {
			require.Equal(t, 0, r.events.ConnCount(), "renderer %d still wired", idx)
		}
	}
}

func TestFocusRouter_TeardownSparesForeignConnections(t *testing.T) {
	f := newRouterFixture(t, Layout1x2)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	// A connection owned by someone else must survive focus changes.
	var foreign int
	conn := f.controls.WindowLevelChanged.Connect(func(WindowLevel) { foreign++ })
	defer f.controls.WindowLevelChanged.Disconnect(conn)

	require.NoError(t, f.router.SetFocus(context.Background(), 1))
	f.controls.SetWindowLevel(WindowLevel{Center: 1, Width: 2})
	require.Equal(t, 1, foreign)
}

func TestFocusRouter_RepublishDoesNotEmit(t *testing.T) {
	f := newRouterFixture(t, Layout1x2)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	b0, _ := f.registry.Lookup(0)
	b0.Display.WindowLevel = WindowLevel{Center: 300, Width: 1500}
	b0.Display.Transform.Zoom = 2.0

	var wlEmits, zoomEmits int
	f.controls.WindowLevelChanged.Connect(func(WindowLevel) { wlEmits++ })
	f.controls.ZoomChanged.Connect(func(float64) { zoomEmits++ })

	require.NoError(t, f.router.SetFocus(context.Background(), 1))
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	require.Zero(t, wlEmits, "republish must not look like user input")
	require.Zero(t, zoomEmits)
	require.Equal(t, WindowLevel{Center: 300, Width: 1500}, f.controls.WL)
	require.Equal(t, 2.0, f.controls.Zoom)
}

func TestFocusRouter_InvalidIndexKeepsWiring(t *testing.T) {
	f := newRouterFixture(t, Layout1x2)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))
	before := f.controls.ConnCount()

	err := f.router.SetFocus(context.Background(), 7)
	var iv *InvalidViewportIndexError
	require.ErrorAs(t, err, &iv)
	require.Equal(t, 0, f.router.Focused())
	require.Equal(t, before, f.controls.ConnCount())

	// Wiring still works after the rejected focus.
	f.controls.SetZoom(1.5)
	b0, _ := f.registry.Lookup(0)
	require.Equal(t, 1.5, b0.Display.Transform.Zoom)
}

func TestFocusRouter_RefocusSameSlotIsNoop(t *testing.T) {
	f := newRouterFixture(t, Layout1x2)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	var changes int
	f.router.FocusChanged.Connect(func([2]int) { changes++ })

	require.NoError(t, f.router.SetFocus(context.Background(), 0))
	require.Zero(t, changes)
}

func TestFocusRouter_SwitchDeselectsOldBundle(t *testing.T) {
	f := newRouterFixture(t, Layout1x2)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	b0, _ := f.registry.Lookup(0)
	item := NewToolItem(ToolROI, SliceKey{Study: "s", Series: "a", Slice: 0}, "roi-1")
	b0.Tools.ROIs.Add(item)
	b0.Tools.ROIs.Select(item.ID)

	require.NoError(t, f.router.SetFocus(context.Background(), 1))

	_, selected := b0.Tools.ROIs.Selected()
	require.False(t, selected, "leaving a viewport drops its selection")
}

func TestFocusRouter_RendererZoomPublishesWithoutEcho(t *testing.T) {
	f := newRouterFixture(t, Layout1x1)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	var userZooms int
	f.controls.ZoomChanged.Connect(func(float64) { userZooms++ })

	f.renderers[0].events.ZoomChanged.Emit(4.0)

	require.Equal(t, 4.0, f.controls.Zoom)
	require.Zero(t, userZooms, "surface zoom is published, not re-emitted")
	b0, _ := f.registry.Lookup(0)
	require.Equal(t, 4.0, b0.Display.Transform.Zoom)
	require.Equal(t, 4.0, f.aliases.CurrentZoom)
}

func TestFocusRouter_DrawFinishedStoresItem(t *testing.T) {
	f := newRouterFixture(t, Layout1x1)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	var persisted []ToolItem
	f.router.OnItemAdded = func(it ToolItem) { persisted = append(persisted, it) }

	b0, _ := f.registry.Lookup(0)
	b0.Display.Study = "study-1"
	b0.Display.Series = "series-a"
	b0.Display.SliceIndex = 3

	item := NewToolItem(ToolROI, SliceKey{}, "lesion")
	item.Samples = []float64{10, 20, 30}
	f.renderers[0].events.Draw.Emit(DrawEvent{Phase: DrawStarted, Kind: ToolROI})
	f.renderers[0].events.Draw.Emit(DrawEvent{Phase: DrawFinished, Kind: ToolROI, Item: item})

	items := b0.Tools.ROIs.ItemsFor(SliceKey{Study: "study-1", Series: "series-a", Slice: 3})
	require.Len(t, items, 1)
	require.Equal(t, "lesion", items[0].Label)
	require.Len(t, persisted, 1)
	require.Equal(t, items[0].Key, persisted[0].Key, "key derived from the displayed slice")

	// Finished item lands selected and in the shared panel.
	require.Equal(t, items[0].ID, f.controls.SelectedROI)
	require.Equal(t, 20.0, f.controls.SelectedStats.Mean)
}

func TestFocusRouter_ContextMenuResetView(t *testing.T) {
	f := newRouterFixture(t, Layout1x1)
	require.NoError(t, f.router.SetFocus(context.Background(), 0))

	b0, _ := f.registry.Lookup(0)
	b0.Display.Transform = Transform{Zoom: 5, PanX: 10, PanY: 10}

	f.renderers[0].events.ContextMenu.Emit(MenuResetView)

	require.Equal(t, DefaultTransform(), b0.Display.Transform)
	require.Equal(t, 1.0, f.controls.Zoom)
	require.Equal(t, 1, f.renderers[0].fits)
}
