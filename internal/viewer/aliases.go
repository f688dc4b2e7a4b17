package viewer

import "quadview/internal/dicom"

// AliasSet mirrors the focused viewport's state under the flat names older
// call sites expect. Aliases are a pure recomputation from the focused
// bundle: Resync overwrites every field on every focus change and display
// update, so no alias can outlive the state it mirrors. Nothing writes
// these fields except Resync.
type AliasSet struct {
	CurrentDataset    *dicom.Dataset
	CurrentSliceIndex int
	CurrentSeries     dicom.SeriesUID
	CurrentStudy      dicom.StudyUID
	CurrentWindow     WindowLevel
	CurrentZoom       float64
	CurrentProjection Projection
	CurrentInverted   bool
}

// Resync recomputes every alias from the focused bundle. A nil bundle
// (no focus, e.g. during shutdown) clears the set.
func (a *AliasSet) Resync(b *ManagerBundle) {
	if b == nil {
		*a = AliasSet{CurrentZoom: 1.0}
		return
	}
	d := b.Display
	a.CurrentDataset = d.Dataset
	a.CurrentSliceIndex = d.SliceIndex
	a.CurrentSeries = d.Series
	a.CurrentStudy = d.Study
	a.CurrentWindow = d.WindowLevel
	a.CurrentZoom = d.Transform.Zoom
	a.CurrentProjection = d.Projection
	a.CurrentInverted = d.Inverted
}
