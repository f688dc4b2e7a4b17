package dicom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildFileSet() *FileSet {
	sa := &Series{UID: "series-a", Study: "study-1", Number: 1}
	for i := 3; i >= 1; i-- {
		sa.Slices = append(sa.Slices, NewDataset("study-1", "series-a", i, ""))
	}
	sa.SortSlices()

	sb := &Series{UID: "series-b", Study: "study-1", Number: 2}
	sb.Slices = append(sb.Slices, NewDataset("study-1", "series-b", 1, ""))

	sc := &Series{UID: "series-c", Study: "study-2", Number: 1}
	sc.Slices = append(sc.Slices, NewDataset("study-2", "series-c", 1, ""))

	return NewFileSet("/data", []*Study{
		{UID: "study-1", Series: []*Series{sa, sb}},
		{UID: "study-2", Series: []*Series{sc}},
	})
}

func TestFileSet_SeriesByUID(t *testing.T) {
	fs := buildFileSet()

	s, ok := fs.SeriesByUID("series-b")
	require.True(t, ok)
	require.Equal(t, StudyUID("study-1"), s.Study)

	_, ok = fs.SeriesByUID("missing")
	require.False(t, ok)
	require.False(t, fs.HasSeries("missing"))
}

func TestFileSet_FirstSeries(t *testing.T) {
	fs := buildFileSet()
	require.Equal(t, SeriesUID("series-a"), fs.FirstSeries().UID)

	empty := NewFileSet("/data", nil)
	require.Nil(t, empty.FirstSeries())
}

func TestSeries_SortSlicesOrdersByInstance(t *testing.T) {
	fs := buildFileSet()
	s, _ := fs.SeriesByUID("series-a")

	require.Equal(t, 1, s.SliceAt(0).Instance)
	require.Equal(t, 2, s.SliceAt(1).Instance)
	require.Equal(t, 3, s.SliceAt(2).Instance)
	require.Nil(t, s.SliceAt(3))
	require.Nil(t, s.SliceAt(-1))
}

func TestFileSet_StudyOf(t *testing.T) {
	fs := buildFileSet()

	require.Equal(t, StudyUID("study-2"), fs.StudyOf("series-c").UID)
	require.Nil(t, fs.StudyOf("missing"))
}

func TestTag_String(t *testing.T) {
	require.Equal(t, "(0010,0010)", TagPatientName.String())
}
