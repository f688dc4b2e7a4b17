package viewer

import (
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"quadview/internal/dicom"
)

// ToolKind identifies a drawing tool family.
type ToolKind int

const (
	ToolNone ToolKind = iota
	ToolROI
	ToolMeasure
	ToolAnnotation
	ToolCrosshair
)

func (k ToolKind) String() string {
	switch k {
	case ToolROI:
		return "roi"
	case ToolMeasure:
		return "measure"
	case ToolAnnotation:
		return "annotation"
	case ToolCrosshair:
		return "crosshair"
	default:
		return "none"
	}
}

// SliceKey addresses the slice a tool item belongs to. Items are scoped to
// a single slice of a single series; switching slices swaps the visible set
// without touching storage.
type SliceKey struct {
	Study  dicom.StudyUID
	Series dicom.SeriesUID
	Slice  int
}

// Point is an image-space coordinate.
type Point struct {
	X float64
	Y float64
}

// ToolItem is one drawn object: an ROI outline, a measurement line, a text
// annotation or a crosshair position. Samples carries the pixel values
// under an ROI for statistics.
type ToolItem struct {
	ID      string
	Kind    ToolKind
	Key     SliceKey
	Label   string
	Points  []Point
	Samples []float64
}

// NewToolItem builds an item with a fresh ID.
func NewToolItem(kind ToolKind, key SliceKey, label string) ToolItem {
	return ToolItem{
		ID:    uuid.NewString(),
		Kind:  kind,
		Key:   key,
		Label: label,
	}
}

// ROIStats summarizes the pixel values under an ROI.
type ROIStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Stats computes ROI statistics from the item's samples. Zero samples
// yields a zero-value result.
func (it ToolItem) Stats() ROIStats {
	if len(it.Samples) == 0 {
		return ROIStats{}
	}
	s := ROIStats{
		Count: len(it.Samples),
		Mean:  stat.Mean(it.Samples, nil),
		Min:   it.Samples[0],
		Max:   it.Samples[0],
	}
	if len(it.Samples) > 1 {
		s.StdDev = stat.StdDev(it.Samples, nil)
	}
	for _, v := range it.Samples[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

// ToolManager holds the items of one tool family for one viewport. Each
// viewport bundle owns its own managers; selection state lives here, not
// in the shared panels, so a focus change never leaks selection between
// viewports.
type ToolManager interface {
	// Add stores an item.
	Add(item ToolItem)
	// Remove deletes an item by ID. Unknown IDs are a no-op.
	Remove(id string)
	// Clear drops every item and the selection.
	Clear()
	// Items returns all items in insertion order.
	Items() []ToolItem
	// ItemsFor returns the items on one slice, in insertion order.
	ItemsFor(key SliceKey) []ToolItem
	// Select marks an item as selected. Unknown IDs clear the selection.
	Select(id string)
	// Deselect clears the selection.
	Deselect()
	// Selected returns the selected item, if any.
	Selected() (ToolItem, bool)
	// Count returns the number of stored items.
	Count() int
}

type memoryToolManager struct {
	kind     ToolKind
	order    []string
	items    map[string]ToolItem
	selected string
}

// NewToolManager returns an in-memory manager for one tool family.
func NewToolManager(kind ToolKind) ToolManager {
	return &memoryToolManager{
		kind:  kind,
		items: make(map[string]ToolItem),
	}
}

func (m *memoryToolManager) Add(item ToolItem) {
	if _, ok := m.items[item.ID]; !ok {
		m.order = append(m.order, item.ID)
	}
	m.items[item.ID] = item
}

func (m *memoryToolManager) Remove(id string) {
	if _, ok := m.items[id]; !ok {
		return
	}
	delete(m.items, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.selected == id {
		m.selected = ""
	}
}

func (m *memoryToolManager) Clear() {
	m.order = nil
	m.items = make(map[string]ToolItem)
	m.selected = ""
}

func (m *memoryToolManager) Items() []ToolItem {
	out := make([]ToolItem, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out
}

func (m *memoryToolManager) ItemsFor(key SliceKey) []ToolItem {
	var out []ToolItem
	for _, id := range m.order {
		if it := m.items[id]; it.Key == key {
			out = append(out, it)
		}
	}
	return out
}

func (m *memoryToolManager) Select(id string) {
	if _, ok := m.items[id]; !ok {
		m.selected = ""
		return
	}
	m.selected = id
}

func (m *memoryToolManager) Deselect() {
	m.selected = ""
}

func (m *memoryToolManager) Selected() (ToolItem, bool) {
	if m.selected == "" {
		return ToolItem{}, false
	}
	it, ok := m.items[m.selected]
	return it, ok
}

func (m *memoryToolManager) Count() int {
	return len(m.items)
}

// ToolState groups the per-viewport tool managers.
type ToolState struct {
	ROIs         ToolManager
	Measurements ToolManager
	Annotations  ToolManager
	Crosshairs   ToolManager
}

// NewToolState builds a fresh set of empty managers.
func NewToolState() ToolState {
	return ToolState{
		ROIs:         NewToolManager(ToolROI),
		Measurements: NewToolManager(ToolMeasure),
		Annotations:  NewToolManager(ToolAnnotation),
		Crosshairs:   NewToolManager(ToolCrosshair),
	}
}

// Managers returns the managers in a stable order, for code that iterates
// over all families.
func (t ToolState) Managers() []ToolManager {
	return []ToolManager{t.ROIs, t.Measurements, t.Annotations, t.Crosshairs}
}

// ManagerFor returns the manager owning a tool family.
func (t ToolState) ManagerFor(kind ToolKind) (ToolManager, bool) {
	switch kind {
	case ToolROI:
		return t.ROIs, true
	case ToolMeasure:
		return t.Measurements, true
	case ToolAnnotation:
		return t.Annotations, true
	case ToolCrosshair:
		return t.Crosshairs, true
	default:
		return nil, false
	}
}

// DeselectAll clears the selection in every manager.
func (t ToolState) DeselectAll() {
	for _, m := range t.Managers() {
		m.Deselect()
	}
}

// ClearAll drops every item in every manager.
func (t ToolState) ClearAll() {
	for _, m := range t.Managers() {
		m.Clear()
	}
}

// SortedSliceIndices returns the distinct slice indices that carry items,
// ascending. Used by the slice indicator to mark annotated slices.
func (t ToolState) SortedSliceIndices() []int {
	seen := map[int]bool{}
	for _, m := range t.Managers() {
		for _, it := range m.Items() {
			seen[it.Key.Slice] = true
		}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
