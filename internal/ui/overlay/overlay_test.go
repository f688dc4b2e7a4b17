package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlace_CenterOverwritesMiddle(t *testing.T) {
	bg := strings.Join([]string{
		"..........",
		"..........",
		"..........",
		"..........",
	}, "\n")

	out := Place(Config{Width: 10, Height: 4}, "XX", bg)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "....XX....", lines[1])
	require.Equal(t, "..........", lines[0])
	require.Equal(t, "..........", lines[2])
}

func TestPlace_BottomRespectsPadding(t *testing.T) {
	bg := strings.Repeat(".........\n", 5) + "........."
	out := Place(Config{Width: 9, Height: 6, Position: Bottom, PadY: 1}, "TOAST", bg)
	lines := strings.Split(out, "\n")
	require.Contains(t, lines[4], "TOAST")
	require.NotContains(t, lines[5], "TOAST")
}

func TestPlace_PadsShortBackground(t *testing.T) {
	out := Place(Config{Width: 6, Height: 3}, "ab", "")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "  ab  ", lines[1])
}

func TestPlace_OversizedForegroundClampsToOrigin(t *testing.T) {
	bg := "....\n...."
	out := Place(Config{Width: 4, Height: 2}, "abcdefgh", bg)
	require.Contains(t, out, "abcdefgh")
}

func TestSpliceLine_PreservesRightPortion(t *testing.T) {
	require.Equal(t, "aaXXaaaa", spliceLine("aaaaaaaa", "XX", 2))
	require.Equal(t, "aaaa  XX", spliceLine("aaaa", "XX", 6))
}
