// Package overlay composes foreground content on top of a rendered view
// without clearing the screen.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position specifies where to place the overlay content.
type Position int

const (
	// Center places the overlay in the middle of the viewport.
	Center Position = iota
	// Bottom places the overlay at the bottom center, PadY rows up.
	Bottom
)

// Config controls overlay rendering behavior.
type Config struct {
	Width    int
	Height   int
	Position Position
	PadY     int
}

// Place renders fg on top of bg, ANSI-aware so styling on both sides
// survives the splice.
func Place(cfg Config, fg, bg string) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < cfg.Height {
		bgLines = append(bgLines, strings.Repeat(" ", cfg.Width))
	}

	fgWidth := lipgloss.Width(fg)
	startX := (cfg.Width - fgWidth) / 2
	if startX < 0 {
		startX = 0
	}
	var startY int
	switch cfg.Position {
	case Bottom:
		startY = cfg.Height - len(fgLines) - cfg.PadY
	default:
		startY = (cfg.Height - len(fgLines)) / 2
	}
	if startY < 0 {
		startY = 0
	}

	for i, fgLine := range fgLines {
		y := startY + i
		if y >= len(bgLines) {
			break
		}
		bgLines[y] = spliceLine(bgLines[y], fgLine, startX)
	}
	return strings.Join(bgLines, "\n")
}

// spliceLine overwrites bg with fg starting at column x, preserving the
// untouched left and right portions of bg.
func spliceLine(bg, fg string, x int) string {
	fgWidth := ansi.StringWidth(fg)

	left := ansi.Truncate(bg, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}

	right := ""
	if end := x + fgWidth; end < ansi.StringWidth(bg) {
		right = ansi.TruncateLeft(bg, end, "")
	}
	return left + fg + right
}
