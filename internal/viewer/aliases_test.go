package viewer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"quadview/internal/dicom"
)

func TestAliasSet_ResyncMirrorsBundle(t *testing.T) {
	b := newManagerBundle(1, NewNullRenderer())
	ds := dicom.NewDataset("study-1", "series-a", 5, "/data/s5.dcm")
	b.Display = DisplayState{
		Dataset:     ds,
		SliceIndex:  5,
		Series:      "series-a",
		Study:       "study-1",
		WindowLevel: WindowLevel{Center: 40, Width: 400},
		Transform:   Transform{Zoom: 2.5, PanX: 3, PanY: -1},
		Projection:  ProjectionMIP,
		Inverted:    true,
	}

	var a AliasSet
	a.Resync(b)

	require.Same(t, ds, a.CurrentDataset)
	require.Equal(t, 5, a.CurrentSliceIndex)
	require.Equal(t, dicom.SeriesUID("series-a"), a.CurrentSeries)
	require.Equal(t, dicom.StudyUID("study-1"), a.CurrentStudy)
	require.Equal(t, WindowLevel{Center: 40, Width: 400}, a.CurrentWindow)
	require.Equal(t, 2.5, a.CurrentZoom)
	require.Equal(t, ProjectionMIP, a.CurrentProjection)
	require.True(t, a.CurrentInverted)
}

func TestAliasSet_ResyncNilClears(t *testing.T) {
	a := AliasSet{CurrentSeries: "stale", CurrentSliceIndex: 9}
	a.Resync(nil)
	require.Empty(t, a.CurrentSeries)
	require.Nil(t, a.CurrentDataset)
	require.Equal(t, 0, a.CurrentSliceIndex)
	require.Equal(t, 1.0, a.CurrentZoom)
}
