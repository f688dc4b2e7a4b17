package sqlite

import (
	"encoding/json"
	"fmt"

	"quadview/internal/dicom"
	"quadview/internal/viewer"
)

// ToolItemModel represents the database row for the tool_items table.
// Points and Samples are JSON encoded; timestamps are Unix seconds.
type ToolItemModel struct {
	ID         string
	Kind       string
	StudyUID   string
	SeriesUID  string
	SliceIndex int
	Label      string
	Points     string
	Samples    string
	CreatedAt  int64
	UpdatedAt  int64
}

var kindNames = map[viewer.ToolKind]string{
	viewer.ToolROI:        "roi",
	viewer.ToolMeasure:    "measure",
	viewer.ToolAnnotation: "annotation",
	viewer.ToolCrosshair:  "crosshair",
}

var kindValues = map[string]viewer.ToolKind{
	"roi":        viewer.ToolROI,
	"measure":    viewer.ToolMeasure,
	"annotation": viewer.ToolAnnotation,
	"crosshair":  viewer.ToolCrosshair,
}

// toModel converts a viewer ToolItem to its database row.
func toModel(item viewer.ToolItem, now int64) (*ToolItemModel, error) {
	kind, ok := kindNames[item.Kind]
	if !ok {
		return nil, fmt.Errorf("unsupported tool kind: %v", item.Kind)
	}
	points, err := json.Marshal(item.Points)
	if err != nil {
		return nil, fmt.Errorf("encode points: %w", err)
	}
	samples, err := json.Marshal(item.Samples)
	if err != nil {
		return nil, fmt.Errorf("encode samples: %w", err)
	}
	return &ToolItemModel{
		ID:         item.ID,
		Kind:       kind,
		StudyUID:   string(item.Key.Study),
		SeriesUID:  string(item.Key.Series),
		SliceIndex: item.Key.Slice,
		Label:      item.Label,
		Points:     string(points),
		Samples:    string(samples),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// toItem converts a database row back to a viewer ToolItem.
func (m *ToolItemModel) toItem() (viewer.ToolItem, error) {
	kind, ok := kindValues[m.Kind]
	if !ok {
		return viewer.ToolItem{}, fmt.Errorf("unknown tool kind in database: %q", m.Kind)
	}
	item := viewer.ToolItem{
		ID:   m.ID,
		Kind: kind,
		Key: viewer.SliceKey{
			Study:  dicom.StudyUID(m.StudyUID),
			Series: dicom.SeriesUID(m.SeriesUID),
			Slice:  m.SliceIndex,
		},
		Label: m.Label,
	}
	if err := json.Unmarshal([]byte(m.Points), &item.Points); err != nil {
		return viewer.ToolItem{}, fmt.Errorf("decode points: %w", err)
	}
	if err := json.Unmarshal([]byte(m.Samples), &item.Samples); err != nil {
		return viewer.ToolItem{}, fmt.Errorf("decode samples: %w", err)
	}
	return item, nil
}
