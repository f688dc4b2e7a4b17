package dicom

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"quadview/internal/log"
)

// Loader organizes a file-set root into the study/series/slice index.
// Implementations read headers only, never pixel data.
type Loader interface {
	Load(root string) (*FileSet, error)
}

// DirLoader loads a file set from a directory tree laid out as
// root/<study>/<series>/<slice files>. A series directory may carry a
// series.yaml sidecar with descriptive metadata.
type DirLoader struct{}

// seriesSidecar is the optional per-series metadata file.
type seriesSidecar struct {
	Description string `yaml:"description"`
	Modality    string `yaml:"modality"`
	Number      int    `yaml:"number"`
	PatientName string `yaml:"patient_name"`
}

// Load scans the directory tree. Slice order within a series follows the
// numeric suffix of the file name when present, file-name order otherwise.
func (DirLoader) Load(root string) (*FileSet, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading file-set root: %w", err)
	}

	var studies []*Study
	for _, studyDir := range entries {
		if !studyDir.IsDir() {
			continue
		}
		study := &Study{UID: StudyUID(studyDir.Name())}

		seriesDirs, err := os.ReadDir(filepath.Join(root, studyDir.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading study %s: %w", studyDir.Name(), err)
		}

		for _, seriesDir := range seriesDirs {
			if !seriesDir.IsDir() {
				continue
			}
			series, err := loadSeries(root, study.UID, seriesDir.Name())
			if err != nil {
				return nil, err
			}
			if len(series.Slices) == 0 {
				// Empty series directories are skipped, not errors
				continue
			}
			if study.PatientName == "" {
				study.PatientName = series.SliceAt(0).Element(TagPatientName)
			}
			study.Series = append(study.Series, series)
		}

		if len(study.Series) > 0 {
			sort.SliceStable(study.Series, func(i, j int) bool {
				return study.Series[i].Number < study.Series[j].Number
			})
			studies = append(studies, study)
		}
	}

	fs := NewFileSet(root, studies)
	log.Info(log.CatSeries, "File set loaded", "root", root,
		"studies", len(studies), "series", len(fs.AllSeries()))
	return fs, nil
}

func loadSeries(root string, study StudyUID, name string) (*Series, error) {
	dir := filepath.Join(root, string(study), name)
	series := &Series{UID: SeriesUID(name), Study: study}

	// Optional sidecar metadata
	var meta seriesSidecar
	if raw, err := os.ReadFile(filepath.Join(dir, "series.yaml")); err == nil {
		if err := yaml.Unmarshal(raw, &meta); err != nil {
			log.Warn(log.CatSeries, "Ignoring malformed series sidecar", "series", name, "error", err)
		}
	}
	series.Description = meta.Description
	series.Modality = meta.Modality
	series.Number = meta.Number

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading series %s: %w", name, err)
	}

	instance := 0
	for _, f := range files {
		if f.IsDir() || f.Name() == "series.yaml" {
			continue
		}
		instance++
		n := instanceFromName(f.Name(), instance)
		ds := NewDataset(study, series.UID, n, filepath.Join(dir, f.Name()))
		ds.Elements[TagModality] = meta.Modality
		ds.Elements[TagSeriesDescription] = meta.Description
		ds.Elements[TagPatientName] = meta.PatientName
		ds.Elements[TagInstanceNumber] = strconv.Itoa(n)
		series.Slices = append(series.Slices, ds)
	}

	series.SortSlices()
	return series, nil
}

// instanceFromName extracts a trailing number from names like slice_0042.dcm.
// Falls back to the scan position when no number is present.
func instanceFromName(name string, fallback int) int {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	if i == len(base) {
		return fallback
	}
	n, err := strconv.Atoi(base[i:])
	if err != nil {
		return fallback
	}
	return n
}
