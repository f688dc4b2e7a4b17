package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/rivo/uniseg"

	"quadview/internal/dicom"
	"quadview/internal/ui/overlay"
	"quadview/internal/ui/styles"
	"quadview/internal/viewer"
)

const (
	sidePanelWidth  = 34
	statusBarHeight = 1
	minCellWidth    = 20
	minCellHeight   = 6
)

// View renders the viewport grid, side panel and status bar, then layers
// the log overlay and any toast on top.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	gridW := m.width - sidePanelWidth
	gridH := m.height
	if m.ui.ShowStatusBar {
		gridH -= statusBarHeight
	}

	grid := m.renderGrid(gridW, gridH)
	panel := m.renderSidePanel(sidePanelWidth, gridH)
	view := lipgloss.JoinHorizontal(lipgloss.Top, grid, panel)

	if m.ui.ShowStatusBar {
		view = lipgloss.JoinVertical(lipgloss.Left, view,
			styles.StatusBarStyle.Render(runewidth.Truncate(m.statusLine(), m.width, "…")))
	}

	if m.showHelp {
		view = overlay.Place(overlay.Config{Width: m.width, Height: m.height},
			m.renderHelp(), view)
	}
	if m.showLog {
		view = overlay.Place(overlay.Config{Width: m.width, Height: m.height},
			m.renderLogOverlay(), view)
	}
	return m.toast.Overlay(view, m.width, m.height)
}

func (m *Model) renderGrid(w, h int) string {
	shape := m.viewer.Layout()
	rows, cols := shape.Rows(), shape.Cols()
	cellW := w/cols - 2 // borders
	cellH := h/rows - 2
	if cellW < minCellWidth {
		cellW = minCellWidth
	}
	if cellH < minCellHeight {
		cellH = minCellHeight
	}

	var rendered []string
	for r := 0; r < rows; r++ {
		var cells []string
		for c := 0; c < cols; c++ {
			idx := r*cols + c
			cells = append(cells, m.renderViewport(idx, cellW, cellH))
		}
		rendered = append(rendered, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rendered...)
}

func (m *Model) renderViewport(idx, w, h int) string {
	frame := styles.ViewportStyle
	if idx == m.viewer.FocusedIndex() {
		frame = styles.ViewportFocusedStyle
	}
	frame = frame.Width(w).Height(h)

	b, ok := m.viewer.Registry().Lookup(idx)
	if !ok || b.Display.Empty() {
		empty := styles.HelpStyle.Render(fmt.Sprintf("viewport %d — no series", idx+1))
		return frame.Render(lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, empty))
	}

	d := b.Display
	var lines []string
	if b.Overlay.PatientInfo {
		lines = append(lines, d.Dataset.Element(dicom.TagPatientName))
	}
	if b.Overlay.SeriesInfo {
		desc := d.Dataset.Element(dicom.TagSeriesDescription)
		if desc == "" {
			desc = string(d.Series)
		}
		mod := d.Dataset.Element(dicom.TagModality)
		lines = append(lines, lipgloss.NewStyle().
			Foreground(styles.ModalityColor(mod)).Render(mod+" "+desc))
	}
	if b.Overlay.SliceNumber {
		lines = append(lines, fmt.Sprintf("slice %d", d.SliceIndex+1))
	}
	if b.Overlay.WindowLevel {
		lines = append(lines, fmt.Sprintf("W %.0f L %.0f  %.2fx", d.WindowLevel.Width, d.WindowLevel.Center, d.Transform.Zoom))
	}

	var flags []string
	if b.Fusion.Enabled {
		flags = append(flags, "FUSION")
	}
	if d.Inverted {
		flags = append(flags, "INV")
	}
	if d.Projection != viewer.ProjectionNone {
		flags = append(flags, fmt.Sprintf("%s/%d", strings.ToUpper(d.Projection.String()), d.SlabThickness))
	}
	if len(flags) > 0 {
		lines = append(lines, styles.PanelTitleStyle.Render(strings.Join(flags, " ")))
	}

	for i, l := range lines {
		lines[i] = runewidth.Truncate(l, w, "…")
	}
	content := styles.OverlayTextStyle.Render(strings.Join(lines, "\n"))
	return frame.Render(lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, content))
}

func (m *Model) renderSidePanel(w, h int) string {
	var sections []string

	if m.ui.ShowMetadata {
		md := m.viewer.Controls().Metadata
		sections = append(sections, styles.PanelTitleStyle.Render("Metadata"))
		if md.PatientName != "" || md.SeriesDesc != "" {
			body := fmt.Sprintf("%s\n%s %s\nslice %d/%d · %dx%d",
				md.PatientName, md.Modality, md.SeriesDesc,
				md.SliceIndex+1, md.SliceCount, md.Rows, md.Cols)
			sections = append(sections, styles.PanelBodyStyle.Render(wordwrap.String(body, w-2)))
		} else {
			sections = append(sections, styles.HelpStyle.Render("no series focused"))
		}
	}

	if m.ui.ShowSeriesList {
		if len(sections) > 0 {
			sections = append(sections, "")
		}
		sections = append(sections, styles.PanelTitleStyle.Render("Series"))
		highlighted := m.viewer.Controls().Highlighted
		for _, e := range m.viewer.Controls().SeriesList {
			row := fmt.Sprintf("%s %s (%d)", e.Modality, e.Description, e.SliceCount)
			row = padRow(runewidth.Truncate(row, w-4, "…"), w-4)
			if e.Series == highlighted {
				row = styles.SeriesRowSelectedStyle.Render(row)
			} else {
				row = styles.SeriesRowStyle.Render(row)
			}
			sections = append(sections, row)
		}
	}

	rois := m.viewer.Controls().ROIList
	if len(rois) > 0 {
		sections = append(sections, "", styles.PanelTitleStyle.Render("ROIs"))
		for _, it := range rois {
			marker := "  "
			if it.ID == m.viewer.Controls().SelectedROI {
				marker = "> "
			}
			sections = append(sections, styles.SeriesRowStyle.Render(marker+it.Label))
		}
		if stats := m.viewer.Controls().SelectedStats; stats.Count > 0 {
			sections = append(sections, styles.PanelBodyStyle.Render(
				fmt.Sprintf("mean %.1f σ %.1f [%.0f..%.0f]", stats.Mean, stats.StdDev, stats.Min, stats.Max)))
		}
	}

	panel := lipgloss.NewStyle().
		Width(w - 2).
		Height(h - 2).
		Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderDefaultColor)
	return panel.Render(strings.Join(sections, "\n"))
}

// padRow pads a row to the full panel width so the highlight background
// covers the whole line. Width is measured in grapheme clusters, since
// series descriptions can carry double-width characters.
func padRow(s string, w int) string {
	if d := w - uniseg.StringWidth(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

// renderHelp builds the overlay from the keymap's help metadata, so a
// rebinding shows up here without a second edit.
func (m *Model) renderHelp() string {
	km := m.keymap
	focus := km.FocusBindings()

	rows := []string{
		styles.PanelTitleStyle.Render("Keys"),
		helpRow(focus[0].Help().Key+"-"+focus[len(focus)-1].Help().Key, "focus viewport"),
	}
	for _, b := range []key.Binding{
		km.Layout1x1, km.Layout1x2, km.Layout2x1, km.Layout2x2,
		km.NextSlice, km.PrevSlice, km.FirstSlice, km.LastSlice,
		km.PresetSoftTissue, km.PresetLung, km.PresetBone, km.PresetBrain,
		km.ZoomIn, km.ZoomOut, km.ResetView, km.Invert, km.ToggleFusion,
		km.ToolROI, km.ToolMeasure, km.ClearTools,
		km.SeriesList, km.Reload,
		km.Help, km.DebugLog, km.Quit,
	} {
		h := b.Help()
		rows = append(rows, helpRow(h.Key, h.Desc))
	}
	return lipgloss.NewStyle().
		Padding(0, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.BorderFocusedColor).
		Render(strings.Join(rows, "\n"))
}

func helpRow(keyLabel, desc string) string {
	return fmt.Sprintf("%-8s %s", keyLabel, desc)
}

func (m *Model) renderLogOverlay() string {
	n := len(m.logLines)
	show := 15
	if n < show {
		show = n
	}
	lines := make([]string, show)
	for i, l := range m.logLines[n-show:] {
		lines[i] = runewidth.Truncate(strings.TrimRight(l, "\n"), m.width-6, "…")
	}
	body := strings.Join(lines, "\n")
	if body == "" {
		body = "no log entries"
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderDefaultColor).
		Render(body)
}
