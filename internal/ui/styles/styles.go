// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#CCCCCC"} // Main/primary text
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"} // UIDs, counts, secondary info
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text, footers
	TextInverseColor   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1A1A1A"}

	// Viewport borders: the focused viewport carries the accent.
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderFocusedColor = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#3498DB"}

	// Status colors
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}

	// Modality accents in the series navigator
	ModalityCTColor = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"}
	ModalityMRColor = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}
	ModalityPTColor = lipgloss.AdaptiveColor{Light: "#FE640B", Dark: "#FAB387"}

	// Toast border colors
	ToastBorderSuccessColor = StatusSuccessColor
	ToastBorderErrorColor   = StatusErrorColor
	ToastBorderWarnColor    = StatusWarningColor
	ToastBorderInfoColor    = StatusInfoColor

	// Viewport frames
	ViewportStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(BorderDefaultColor)

	ViewportFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(BorderFocusedColor)

	// Overlay text drawn inside a viewport (patient, series, W/L, slice)
	OverlayTextStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	// Panels
	PanelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	PanelBodyStyle  = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	// Series navigator rows
	SeriesRowStyle         = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	SeriesRowSelectedStyle = lipgloss.NewStyle().Bold(true).
				Foreground(TextInverseColor).
				Background(BorderFocusedColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Help footer
	HelpStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
)

// ModalityColor returns the accent for a modality string.
func ModalityColor(modality string) lipgloss.AdaptiveColor {
	switch modality {
	case "MR":
		return ModalityMRColor
	case "PT", "NM":
		return ModalityPTColor
	default:
		return ModalityCTColor
	}
}
