package viewer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedControls_UserInputEmits(t *testing.T) {
	c := NewSharedControls()

	var got []WindowLevel
	c.WindowLevelChanged.Connect(func(wl WindowLevel) { got = append(got, wl) })

	c.SetWindowLevel(WindowLevel{Center: 50, Width: 350})
	require.Equal(t, []WindowLevel{{Center: 50, Width: 350}}, got)
	require.Equal(t, WindowLevel{Center: 50, Width: 350}, c.WL)
}

func TestSharedControls_PublishNeverEmits(t *testing.T) {
	c := NewSharedControls()

	emits := 0
	c.WindowLevelChanged.Connect(func(WindowLevel) { emits++ })
	c.ZoomChanged.Connect(func(float64) { emits++ })
	c.ToolSelected.Connect(func(ToolKind) { emits++ })

	c.PublishWindowLevel(WindowLevel{Center: 1, Width: 2})
	c.PublishZoom(3.0)
	c.PublishTool(ToolMeasure)

	require.Zero(t, emits)
	require.Equal(t, WindowLevel{Center: 1, Width: 2}, c.WL)
	require.Equal(t, 3.0, c.Zoom)
	require.Equal(t, ToolMeasure, c.ActiveTool)
}

func TestSharedControls_PublishGuardResets(t *testing.T) {
	c := NewSharedControls()
	c.PublishZoom(2.0)

	// After a publish, user input emits again.
	var zooms []float64
	c.ZoomChanged.Connect(func(z float64) { zooms = append(zooms, z) })
	c.SetZoom(4.0)
	require.Equal(t, []float64{4.0}, zooms)
}

func TestSharedControls_ApplyPresetUnknownIgnored(t *testing.T) {
	c := NewSharedControls()
	emits := 0
	c.PresetApplied.Connect(func(string) { emits++ })

	c.ApplyPreset("x-ray-vision")
	require.Zero(t, emits)

	c.ApplyPreset("bone")
	require.Equal(t, 1, emits)
	require.Equal(t, WindowLevel{Center: 300, Width: 1500}, c.WL)
}

func TestSharedControls_PublishROIsComputesStats(t *testing.T) {
	c := NewSharedControls()
	a := NewToolItem(ToolROI, SliceKey{}, "a")
	a.Samples = []float64{1, 3}
	b := NewToolItem(ToolROI, SliceKey{}, "b")

	c.PublishROIs([]ToolItem{a, b}, a.ID)
	require.Equal(t, a.ID, c.SelectedROI)
	require.Equal(t, 2.0, c.SelectedStats.Mean)

	c.PublishROIs([]ToolItem{a, b}, "")
	require.Zero(t, c.SelectedStats)
}

func TestPresetByName(t *testing.T) {
	p, ok := PresetByName("lung")
	require.True(t, ok)
	require.Equal(t, WindowLevel{Center: -600, Width: 1500}, p.WL)

	_, ok = PresetByName("nope")
	require.False(t, ok)
}
