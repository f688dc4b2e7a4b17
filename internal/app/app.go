// Package app is the terminal shell over the viewer core: it translates
// key presses into viewer operations, pumps the viewer's scheduler after
// every message, and renders the viewport grid with its side panels.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"quadview/internal/config"
	"quadview/internal/keys"
	"quadview/internal/log"
	"quadview/internal/pubsub"
	"quadview/internal/ui/toaster"
	"quadview/internal/viewer"
	"quadview/internal/watcher"
)

const (
	toastDuration = 3 * time.Second
	maxLogLines   = 200
)

// Config configures the app model.
type Config struct {
	Viewer  *viewer.Viewer
	Watcher *watcher.Watcher // nil disables auto-reload
	UI      config.UIConfig
	Debug   bool
}

// Model is the root Bubble Tea model.
type Model struct {
	viewer *viewer.Viewer
	keymap keys.KeyMap
	toast  toaster.Model
	ui     config.UIConfig

	watch         *watcher.Watcher
	watchListener *pubsub.ContinuousListener[watcher.Event]
	logListener   *log.LogListener
	logLines      []string

	ctx      context.Context
	cancel   context.CancelFunc
	width    int
	height   int
	debug    bool
	showHelp bool
	showLog  bool
	err      error
}

// New creates the root model. A renderer factory for the viewer should be
// NewRendererFactory from this package so the grid can draw the surfaces.
func New(cfg Config) *Model {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		viewer: cfg.Viewer,
		keymap: keys.DefaultKeyMap(),
		toast:  toaster.New(),
		ui:     cfg.UI,
		watch:  cfg.Watcher,
		ctx:    ctx,
		cancel: cancel,
		debug:  cfg.Debug,
	}
	if m.watch != nil {
		m.watchListener = pubsub.NewContinuousListener(ctx, m.watch.Broker())
	}
	if cfg.Debug {
		m.logListener = log.NewListener(ctx)
	}
	return m
}

// NewRendererFactory returns the factory the viewer should use so the app
// can render its surfaces.
func NewRendererFactory() viewer.RendererFactory {
	return func(index int) viewer.Renderer {
		return newCellRenderer(index)
	}
}

// Init starts the background listeners.
func (m *Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.watchListener != nil {
		cmds = append(cmds, m.watchListener.Listen())
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Update routes messages and pumps the viewer scheduler afterwards, so
// work the core deferred during this message runs before the next render.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case pubsub.Event[watcher.Event]:
		cmd = m.handleWatcherEvent(msg)

	case pubsub.Event[string]:
		m.logLines = append(m.logLines, msg.Payload)
		if len(m.logLines) > maxLogLines {
			m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
		}
		if m.logListener != nil {
			cmd = m.logListener.Listen()
		}

	case toaster.DismissMsg:
		m.toast = m.toast.Hide()
	}

	m.viewer.Scheduler().Drain()
	return m, cmd
}

func (m *Model) handleWatcherEvent(ev pubsub.Event[watcher.Event]) tea.Cmd {
	var cmds []tea.Cmd
	if m.watchListener != nil {
		cmds = append(cmds, m.watchListener.Listen())
	}
	switch ev.Payload.Type {
	case watcher.FileSetChanged:
		if err := m.viewer.ReloadFileSet(m.ctx); err != nil {
			m.toast = m.toast.Show("reload failed: "+err.Error(), toaster.StyleError)
		} else {
			m.toast = m.toast.Show("file set reloaded", toaster.StyleInfo)
		}
		cmds = append(cmds, toaster.ScheduleDismiss(toastDuration))
	case watcher.WatcherError:
		log.ErrorErr(log.CatWatcher, "watch error", ev.Payload.Error)
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	km := m.keymap

	switch {
	case key.Matches(msg, km.Quit):
		m.cancel()
		if m.watch != nil {
			_ = m.watch.Stop()
		}
		return tea.Quit

	case key.Matches(msg, km.Help):
		m.showHelp = !m.showHelp
		return nil

	case key.Matches(msg, km.DebugLog):
		if m.debug {
			m.showLog = !m.showLog
		}
		return nil

	case key.Matches(msg, km.Escape):
		m.showHelp = false
		m.showLog = false
		return nil
	}

	for i, b := range km.FocusBindings() {
		if key.Matches(msg, b) {
			if err := m.viewer.SetFocus(m.ctx, i); err != nil {
				return m.showError(err)
			}
			return nil
		}
	}

	for shape, b := range map[viewer.Shape]key.Binding{
		viewer.Layout1x1: km.Layout1x1,
		viewer.Layout1x2: km.Layout1x2,
		viewer.Layout2x1: km.Layout2x1,
		viewer.Layout2x2: km.Layout2x2,
	} {
		if key.Matches(msg, b) {
			if err := m.viewer.ApplyLayout(m.ctx, shape); err != nil {
				return m.showError(err)
			}
			return nil
		}
	}

	switch {
	case key.Matches(msg, km.NextSlice):
		m.viewer.NavigateBy(1)
	case key.Matches(msg, km.PrevSlice):
		m.viewer.NavigateBy(-1)
	case key.Matches(msg, km.FirstSlice):
		m.viewer.NavigateTo(0)
	case key.Matches(msg, km.LastSlice):
		m.viewer.NavigateBy(1 << 20)

	case key.Matches(msg, km.PresetSoftTissue):
		m.viewer.ApplyPreset("soft-tissue")
	case key.Matches(msg, km.PresetLung):
		m.viewer.ApplyPreset("lung")
	case key.Matches(msg, km.PresetBone):
		m.viewer.ApplyPreset("bone")
	case key.Matches(msg, km.PresetBrain):
		m.viewer.ApplyPreset("brain")

	case key.Matches(msg, km.ZoomIn):
		m.viewer.SetZoom(m.viewer.Controls().Zoom * 1.25)
	case key.Matches(msg, km.ZoomOut):
		m.viewer.SetZoom(m.viewer.Controls().Zoom / 1.25)
	case key.Matches(msg, km.ResetView):
		m.viewer.SetZoom(1.0)
	case key.Matches(msg, km.Invert):
		m.viewer.ToggleInvert()

	case key.Matches(msg, km.ToggleFusion):
		if err := m.viewer.ToggleFusion(m.viewer.FocusedIndex()); err != nil {
			return m.showError(err)
		}

	case key.Matches(msg, km.ToolROI):
		m.viewer.Controls().SelectTool(viewer.ToolROI)
	case key.Matches(msg, km.ToolMeasure):
		m.viewer.Controls().SelectTool(viewer.ToolMeasure)
	case key.Matches(msg, km.ClearTools):
		if b, ok := m.viewer.Registry().Lookup(m.viewer.FocusedIndex()); ok {
			b.Tools.ClearAll()
			m.viewer.Router().Republish()
		}

	case key.Matches(msg, km.SeriesList):
		m.cycleSeries()

	case key.Matches(msg, km.Reload):
		if m.viewer.FileSet() == nil {
			return nil
		}
		if err := m.viewer.ReloadFileSet(m.ctx); err != nil {
			return m.showError(err)
		}
		m.toast = m.toast.Show("file set reloaded", toaster.StyleInfo)
		return toaster.ScheduleDismiss(toastDuration)
	}
	return nil
}

// cycleSeries assigns the next series in the navigator to the focused
// viewport.
func (m *Model) cycleSeries() {
	list := m.viewer.Controls().SeriesList
	if len(list) == 0 {
		return
	}
	current := m.viewer.Controls().Highlighted
	next := 0
	for i, e := range list {
		if e.Series == current {
			next = (i + 1) % len(list)
			break
		}
	}
	m.viewer.Controls().RequestSeries(viewer.SeriesRequest{
		Study:  list[next].Study,
		Series: list[next].Series,
	})
}

func (m *Model) showError(err error) tea.Cmd {
	m.err = err
	m.toast = m.toast.Show(err.Error(), toaster.StyleError)
	log.ErrorErr(log.CatUI, "operation failed", err)
	return toaster.ScheduleDismiss(toastDuration)
}

// statusLine summarizes layout, focus and the focused display for the
// status bar.
func (m *Model) statusLine() string {
	d := m.viewer.Controls().CurrentDisplay()
	status := fmt.Sprintf("layout %s · viewport %d", m.viewer.Layout(), m.viewer.FocusedIndex()+1)
	if d.Series != "" {
		status += fmt.Sprintf(" · %s · slice %d · W/L %.0f/%.0f · zoom %.2fx",
			d.Series, d.SliceIndex+1, d.WindowLevel.Width, d.WindowLevel.Center, d.Transform.Zoom)
	}
	return status
}
