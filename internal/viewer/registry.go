package viewer

import "quadview/internal/log"

// Registry owns the viewport bundles. Bundles are created lazily on first
// access and identified by their slot index; asking twice for the same
// index returns the same bundle. The registry is the only place bundles
// are created or discarded, and every lookup is bounds-checked against the
// current layout.
type Registry struct {
	layout  Shape
	bundles map[int]*ManagerBundle
	factory RendererFactory
	fusion  Fusion
}

// NewRegistry builds a registry for a 1x1 grid. A nil factory falls back
// to null rendering surfaces.
func NewRegistry(factory RendererFactory, fusion Fusion) *Registry {
	if factory == nil {
		factory = func(int) Renderer { return NewNullRenderer() }
	}
	return &Registry{
		layout:  Layout1x1,
		bundles: make(map[int]*ManagerBundle),
		factory: factory,
		fusion:  fusion,
	}
}

// Layout returns the current grid shape.
func (r *Registry) Layout() Shape { return r.layout }

// setLayout changes the grid shape. Discarding bundles outside the new
// shape is the layout mutator's job, done before this is called.
func (r *Registry) setLayout(s Shape) { r.layout = s }

// GetOrCreate returns the bundle for a slot, creating it on first access.
// Indices outside the current layout return InvalidViewportIndexError.
func (r *Registry) GetOrCreate(index int) (*ManagerBundle, error) {
	if index < 0 || index >= r.layout.Slots() {
		return nil, &InvalidViewportIndexError{Index: index, Slots: r.layout.Slots()}
	}
	if b, ok := r.bundles[index]; ok {
		return b, nil
	}
	b := newManagerBundle(index, r.factory(index))
	r.bundles[index] = b
	log.Debug(log.CatReg, "bundle created", "viewport", index, "layout", r.layout)
	return b, nil
}

// Lookup returns an existing bundle without creating one.
func (r *Registry) Lookup(index int) (*ManagerBundle, bool) {
	b, ok := r.bundles[index]
	return b, ok
}

// Discard destroys a slot's bundle: fusion is disabled and its caches
// cleared first, then the bundle is dropped. Slot 0 is never discarded.
func (r *Registry) Discard(index int) {
	if index == 0 {
		return
	}
	b, ok := r.bundles[index]
	if !ok {
		return
	}
	if r.fusion != nil {
		r.fusion.Disable(index)
		r.fusion.ClearCaches(index)
	}
	b.Tools.DeselectAll()
	delete(r.bundles, index)
	log.Debug(log.CatReg, "bundle discarded", "viewport", index)
}

// Indices returns the slots that currently hold bundles, ascending.
func (r *Registry) Indices() []int {
	out := make([]int, 0, len(r.bundles))
	for i := 0; i < r.layout.Slots(); i++ {
		if _, ok := r.bundles[i]; ok {
			out = append(out, i)
		}
	}
	return out
}

// Count returns the number of live bundles.
func (r *Registry) Count() int { return len(r.bundles) }
