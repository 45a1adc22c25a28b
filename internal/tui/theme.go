package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/moneyvault/internal/models"
)

// Catppuccin Mocha palette
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorSapphire lipgloss.Color = "#74c7ec"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

const (
	colorAccent  = colorPink
	colorSuccess = colorGreen
	colorError   = colorRed
)

// groupAccentColors is the fallback palette for groups without a color of
// their own, in display order.
var groupAccentColors = []lipgloss.Color{
	colorGreen, colorTeal, colorPeach, colorBlue,
	colorMauve, colorPink, colorSapphire, colorLavender, colorYellow,
}

// groupColor picks g's own color, the overlay for the ungrouped bucket, or a
// palette entry keyed by id.
func groupColor(g *models.Group) lipgloss.Color {
	switch {
	case g.ID == models.UngroupedID:
		return colorOverlay1
	case !g.Color.IsEmpty():
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", g.Color.R, g.Color.G, g.Color.B))
	}
	return groupAccentColors[(g.ID-1)%len(groupAccentColors)]
}
