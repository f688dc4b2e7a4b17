// Package dicom models the organized view of a loaded file set: studies
// containing series containing ordered slices. It stores identifiers and
// header-level metadata only; pixel decoding belongs to the rendering layer.
package dicom

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// StudyUID identifies a study within a file set.
type StudyUID string

// SeriesUID identifies a series within a study.
type SeriesUID string

// Tag is a DICOM tag (group, element).
type Tag struct {
	Group   uint16
	Element uint16
}

// String returns the tag in (GGGG,EEEE) format.
func (t Tag) String() string {
	return fmt.Sprintf("(%04x,%04x)", t.Group, t.Element)
}

// Commonly displayed tags.
var (
	TagPatientName       = Tag{0x0010, 0x0010}
	TagModality          = Tag{0x0008, 0x0060}
	TagStudyDescription  = Tag{0x0008, 0x1030}
	TagSeriesDescription = Tag{0x0008, 0x103E}
	TagInstanceNumber    = Tag{0x0020, 0x0013}
	TagSliceLocation     = Tag{0x0020, 0x1041}
)

// Dataset is one slice's header-level data. The pixel payload is never
// held here; Path points at the source file for the renderer.
type Dataset struct {
	ID       string // Stable identity, assigned at load
	Study    StudyUID
	Series   SeriesUID
	Instance int // Instance number, drives slice ordering
	Path     string
	Rows     int
	Cols     int
	Elements map[Tag]string // Display metadata, stringified
}

// NewDataset creates a dataset with a fresh identity.
func NewDataset(study StudyUID, series SeriesUID, instance int, path string) *Dataset {
	return &Dataset{
		ID:       uuid.NewString(),
		Study:    study,
		Series:   series,
		Instance: instance,
		Path:     path,
		Elements: make(map[Tag]string),
	}
}

// Element returns the stringified value for a tag, or "" if absent.
func (d *Dataset) Element(t Tag) string {
	if d == nil || d.Elements == nil {
		return ""
	}
	return d.Elements[t]
}

// Series is an ordered list of slices sharing a series UID.
type Series struct {
	UID         SeriesUID
	Study       StudyUID
	Number      int
	Description string
	Modality    string
	Slices      []*Dataset
}

// SortSlices orders slices by instance number (stable for ties).
func (s *Series) SortSlices() {
	sort.SliceStable(s.Slices, func(i, j int) bool {
		return s.Slices[i].Instance < s.Slices[j].Instance
	})
}

// SliceAt returns the dataset at index, or nil if out of range.
func (s *Series) SliceAt(idx int) *Dataset {
	if s == nil || idx < 0 || idx >= len(s.Slices) {
		return nil
	}
	return s.Slices[idx]
}

// Study groups the series of one acquisition.
type Study struct {
	UID         StudyUID
	Description string
	PatientName string
	Series      []*Series
}

// FileSet is the organized index of one loaded file-set root.
type FileSet struct {
	Root    string
	Studies []*Study

	bySeries map[SeriesUID]*Series
}

// NewFileSet builds an indexed file set from studies. Series slice order
// within each study is preserved; the per-UID index is rebuilt.
func NewFileSet(root string, studies []*Study) *FileSet {
	fs := &FileSet{Root: root, Studies: studies, bySeries: make(map[SeriesUID]*Series)}
	for _, st := range studies {
		for _, se := range st.Series {
			fs.bySeries[se.UID] = se
		}
	}
	return fs
}

// SeriesByUID looks up a series anywhere in the file set.
func (f *FileSet) SeriesByUID(uid SeriesUID) (*Series, bool) {
	if f == nil {
		return nil, false
	}
	s, ok := f.bySeries[uid]
	return s, ok
}

// HasSeries reports whether the series still exists in this file set.
func (f *FileSet) HasSeries(uid SeriesUID) bool {
	_, ok := f.SeriesByUID(uid)
	return ok
}

// FirstSeries returns the first series of the first study, or nil when the
// file set is empty.
func (f *FileSet) FirstSeries() *Series {
	if f == nil {
		return nil
	}
	for _, st := range f.Studies {
		if len(st.Series) > 0 {
			return st.Series[0]
		}
	}
	return nil
}

// AllSeries returns every series in study order.
func (f *FileSet) AllSeries() []*Series {
	if f == nil {
		return nil
	}
	var out []*Series
	for _, st := range f.Studies {
		out = append(out, st.Series...)
	}
	return out
}

// StudyOf returns the study containing the series, or nil.
func (f *FileSet) StudyOf(uid SeriesUID) *Study {
	if f == nil {
		return nil
	}
	for _, st := range f.Studies {
		for _, se := range st.Series {
			if se.UID == uid {
				return st
			}
		}
	}
	return nil
}
