package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gubarz/sopmd/internal/config"
)

// StyleManager encapsulates all TUI styles and provides methods for style operations
type StyleManager struct {
	// List view styles
	Title    lipgloss.Style
	Desc     lipgloss.Style
	Path     lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Dim      lipgloss.Style

	// Preview styles
	Heading  lipgloss.Style
	Code     lipgloss.Style
	Ref      lipgloss.Style
	RefFocus lipgloss.Style

	// Chrome styles
	Border  lipgloss.Style
	Divider lipgloss.Style
	Error   lipgloss.Style

	// Colors for direct access
	SelectedBg lipgloss.Color
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	return &StyleManager{
		Title:      lipgloss.NewStyle().Bold(true),
		Desc:       lipgloss.NewStyle(),
		Path:       lipgloss.NewStyle(),
		Selected:   lipgloss.NewStyle().Background(lipgloss.Color("236")),
		Cursor:     lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Heading:    lipgloss.NewStyle().Bold(true),
		Code:       lipgloss.NewStyle(),
		Ref:        lipgloss.NewStyle().Underline(true),
		RefFocus:   lipgloss.NewStyle().Underline(true).Reverse(true),
		Border:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		Divider:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		SelectedBg: lipgloss.Color("236"),
	}
}

// LoadFromConfig updates styles based on configuration
func (s *StyleManager) LoadFromConfig() {
	headerColor := parseANSIColor(config.GetColorHeader())
	descColor := parseANSIColor(config.GetColorDesc())
	codeColor := parseANSIColor(config.GetColorCode())
	refColor := parseANSIColor(config.GetColorRef())
	focusColor := parseANSIColor(config.GetColorFocus())
	borderColor := lipgloss.Color(config.GetColorBorder())
	selectedBg := lipgloss.Color(config.GetColorSelected())

	// List view styles
	s.Title = lipgloss.NewStyle().Foreground(headerColor)
	s.Desc = lipgloss.NewStyle().Foreground(descColor)
	s.Path = lipgloss.NewStyle().Foreground(descColor)
	s.Selected = lipgloss.NewStyle().Background(selectedBg)
	s.Cursor = lipgloss.NewStyle().Foreground(focusColor)

	// Preview styles
	s.Heading = lipgloss.NewStyle().Bold(true).Foreground(headerColor)
	s.Code = lipgloss.NewStyle().Foreground(codeColor)
	s.Ref = lipgloss.NewStyle().Underline(true).Foreground(refColor)
	s.RefFocus = lipgloss.NewStyle().Underline(true).Bold(true).Foreground(focusColor)

	// Chrome styles
	s.Border = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderColor)
	s.Divider = lipgloss.NewStyle().Foreground(borderColor)
	s.SelectedBg = selectedBg
}

// WithSelection returns a copy of the given style with the selected background applied
func (s *StyleManager) WithSelection(style lipgloss.Style) lipgloss.Style {
	return style.Background(s.SelectedBg)
}

// parseANSIColor converts ANSI color codes to lipgloss colors
func parseANSIColor(code string) lipgloss.Color {
	ansiToLipgloss := map[string]string{
		"30": "0", "31": "1", "32": "2", "33": "3",
		"34": "4", "35": "5", "36": "6", "37": "7",
		"90": "8", "91": "9", "92": "10", "93": "11",
		"94": "12", "95": "13", "96": "14", "97": "15",
	}
	if mapped, ok := ansiToLipgloss[code]; ok {
		return lipgloss.Color(mapped)
	}
	return lipgloss.Color(code)
}

// Global style manager instance
var styles = DefaultStyles()

// RefreshStyles updates the global styles from config
func RefreshStyles() {
	styles.LoadFromConfig()
}
