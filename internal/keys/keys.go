// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	// Viewport focus
	Focus1 key.Binding
	Focus2 key.Binding
	Focus3 key.Binding
	Focus4 key.Binding

	// Layout
	Layout1x1 key.Binding
	Layout1x2 key.Binding
	Layout2x1 key.Binding
	Layout2x2 key.Binding

	// Slice navigation
	NextSlice  key.Binding
	PrevSlice  key.Binding
	FirstSlice key.Binding
	LastSlice  key.Binding

	// Display
	PresetSoftTissue key.Binding
	PresetLung       key.Binding
	PresetBone       key.Binding
	PresetBrain      key.Binding
	ZoomIn           key.Binding
	ZoomOut          key.Binding
	ResetView        key.Binding
	Invert           key.Binding
	ToggleFusion     key.Binding

	// Tools
	ToolROI     key.Binding
	ToolMeasure key.Binding
	ClearTools  key.Binding

	// Series
	SeriesList key.Binding
	Reload     key.Binding

	// General
	Help     key.Binding
	DebugLog key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Viewport focus
		Focus1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "focus viewport 1"),
		),
		Focus2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "focus viewport 2"),
		),
		Focus3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "focus viewport 3"),
		),
		Focus4: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "focus viewport 4"),
		),

		// Layout
		Layout1x1: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "1x1 layout"),
		),
		Layout1x2: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "1x2 layout"),
		),
		Layout2x1: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "2x1 layout"),
		),
		Layout2x2: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "2x2 layout"),
		),

		// Slice navigation
		NextSlice: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next slice"),
		),
		PrevSlice: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous slice"),
		),
		FirstSlice: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "first slice"),
		),
		LastSlice: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "last slice"),
		),

		// Display
		PresetSoftTissue: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "soft tissue window"),
		),
		PresetLung: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "lung window"),
		),
		PresetBone: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "bone window"),
		),
		PresetBrain: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "brain window"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "zoom out"),
		),
		ResetView: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset view"),
		),
		Invert: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "invert grayscale"),
		),
		ToggleFusion: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle fusion"),
		),

		// Tools
		ToolROI: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "ROI tool"),
		),
		ToolMeasure: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "measure tool"),
		),
		ClearTools: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear tools"),
		),

		// Series
		SeriesList: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "series list"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload file set"),
		),

		// General
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		DebugLog: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "debug log"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// FocusBindings returns the viewport focus bindings in slot order.
func (k KeyMap) FocusBindings() []key.Binding {
	return []key.Binding{k.Focus1, k.Focus2, k.Focus3, k.Focus4}
}
