package tui

import (
	"github.com/charmbracelet/lipgloss"

	"hserr-agent/src/ranking"
)

// StyleConfig holds all customizable style colors for the viewer.
type StyleConfig struct {
	// Primary colors
	PrimaryBlue    lipgloss.Color
	AccentBlue     lipgloss.Color
	DarkBackground lipgloss.Color
	CardBackground lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	BorderColor    lipgloss.Color
	SelectedColor  lipgloss.Color

	// Severity colors
	ErrorColor lipgloss.Color
	WarnColor  lipgloss.Color
	InfoColor  lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:    lipgloss.Color("#8AB4F8"),
		AccentBlue:     lipgloss.Color("#4285F4"),
		DarkBackground: lipgloss.Color("#1E1E1E"),
		CardBackground: lipgloss.Color("#2D2D2D"),
		TextPrimary:    lipgloss.Color("#E8EAED"),
		TextSecondary:  lipgloss.Color("#9AA0A6"),
		BorderColor:    lipgloss.Color("#5F6368"),
		SelectedColor:  lipgloss.Color("#303134"),
		ErrorColor:     lipgloss.Color("#EA4335"),
		WarnColor:      lipgloss.Color("#FBBC04"),
		InfoColor:      lipgloss.Color("#34A853"),
	}
}

// TierColor returns the color used for a tier.
func (s *StyleConfig) TierColor(tier int) lipgloss.Color {
	switch tier {
	case ranking.TierError:
		return s.ErrorColor
	case ranking.TierWarn:
		return s.WarnColor
	}
	return s.InfoColor
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 2)
}

// LabelStyle is used for keys in the detail summary.
func (s *StyleConfig) LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Bold(true)
}
