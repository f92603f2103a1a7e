package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	IconCompass = "🧭"
	IconInbox   = "📥"
	IconPlus    = "➕"
	IconDone    = "✅"
	IconTodo    = "⬜"
	IconArchive = "🗄️"
	IconUndo    = "↩️"
	IconBolt    = "⚡"
	IconTrophy  = "🏆"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconBell    = "🔔"
	IconCal     = "📅"
	IconTarget  = "🎯"
)

// Palette. The four quadrant hues double as the general semantic colours.
var (
	cInk     = lipgloss.Color("69")  // periwinkle
	cNorth   = lipgloss.Color("213") // pink, the compass needle
	cDoFirst = lipgloss.Color("203") // coral
	cPlan    = lipgloss.Color("78")  // sea green
	cHandOff = lipgloss.Color("215") // apricot
	cDrop    = lipgloss.Color("111") // sky
	cFaded   = lipgloss.Color("245")
	cXP      = lipgloss.Color("221")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cNorth)
	H2    = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(cInk)
	Muted = lipgloss.NewStyle().Foreground(cFaded)
	Key   = lipgloss.NewStyle().Foreground(cInk)
	Good  = lipgloss.NewStyle().Foreground(cPlan)
	Warn  = lipgloss.NewStyle().Foreground(cHandOff)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cDoFirst)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cXP)
	Done  = lipgloss.NewStyle().Strikethrough(true).Foreground(cFaded)

	Panel       = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(cFaded).Padding(0, 1)
	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cInk).MarginBottom(1)
	SelectedRow = lipgloss.NewStyle().Reverse(true)

	BadgeLevelUp = Gold.Render(IconTrophy + " level up")
)

var quadrantColor = map[string]lipgloss.Color{
	"inbox": cFaded,
	"q1":    cDoFirst,
	"q2":    cPlan,
	"q3":    cHandOff,
	"q4":    cDrop,
}

// QuadrantStyle returns the heading style for a placement name.
func QuadrantStyle(placement string) lipgloss.Style {
	c, ok := quadrantColor[placement]
	if !ok {
		c = cFaded
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

// ColumnPanel is Panel with the border tinted for the placement.
func ColumnPanel(placement string, focused bool) lipgloss.Style {
	p := Panel
	if focused {
		if c, ok := quadrantColor[placement]; ok {
			p = p.BorderForeground(c)
		}
	}
	return p
}

// Heading prefixes title with an optional icon.
func Heading(icon string, title string) string {
	if icon = strings.TrimSpace(icon); icon == "" {
		return Title.Render(title)
	}
	return Title.Render(icon + " " + title)
}

func LabelValue(label string, value any) string {
	return Key.Render(label+":") + " " + fmt.Sprint(value)
}

func StatusIcon(status string) string {
	if status == "done" {
		return IconDone
	}
	return IconTodo
}

// ShortID is the id prefix shown in listings; commands accept it back.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ProgressBar renders value/total as a fixed-width block bar.
func ProgressBar(value int, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	filled := value * width / total
	return Gold.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}
