package toaster

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestModel_ShowHide(t *testing.T) {
	m := New()
	require.False(t, m.Visible())
	require.Empty(t, m.View())

	m = m.Show("series assigned", StyleSuccess)
	require.True(t, m.Visible())
	require.Contains(t, m.View(), "series assigned")
	require.Contains(t, m.View(), "✓")

	m = m.Hide()
	require.False(t, m.Visible())
	require.Empty(t, m.View())
}

func TestModel_StylePrefixes(t *testing.T) {
	cases := map[Style]string{
		StyleSuccess: "✓",
		StyleError:   "✗",
		StyleInfo:    "i",
		StyleWarn:    "!",
	}
	for style, prefix := range cases {
		m := New().Show("msg", style)
		require.Contains(t, m.View(), prefix+" msg")
	}
}

func TestModel_OverlayPassthroughWhenHidden(t *testing.T) {
	bg := "background\ncontent"
	require.Equal(t, bg, New().Overlay(bg, 20, 5))
}

func TestModel_OverlayPlacesNearBottom(t *testing.T) {
	bg := strings.TrimRight(strings.Repeat(strings.Repeat(".", 40)+"\n", 10), "\n")
	m := New().Show("fusion available", StyleInfo)
	out := m.Overlay(bg, 40, 10)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 10)
	joined := strings.Join(lines[5:], "\n")
	require.Contains(t, joined, "fusion available")
}

func TestScheduleDismiss(t *testing.T) {
	cmd := ScheduleDismiss(time.Millisecond)
	require.NotNil(t, cmd)
}
