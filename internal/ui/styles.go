// Package ui renders benchmark results for terminals and exports them as JSON or YAML.
package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// This file centralizes the lipgloss styles used by the printer.

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	errText lipgloss.Style
}

// newStyles builds the styles on r. Plain styles carry layout only, no
// colors or text attributes.
func newStyles(r *lipgloss.Renderer, plain bool) styles {
	if plain {
		return styles{
			title:   r.NewStyle(),
			header:  r.NewStyle().Padding(0, 1),
			cell:    r.NewStyle().Padding(0, 1),
			border:  r.NewStyle(),
			good:    r.NewStyle(),
			bad:     r.NewStyle(),
			muted:   r.NewStyle(),
			errText: r.NewStyle(),
		}
	}
	return styles{
		title: r.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#7D56F4")). // Brand Color
			Bold(true).
			Padding(0, 1),
		header: r.NewStyle().
			Foreground(lipgloss.Color("212")). // Light purple
			Bold(true).
			Padding(0, 1),
		cell: r.NewStyle().Padding(0, 1),
		border: r.NewStyle().
			Foreground(lipgloss.Color("63")), // Purple-ish
		good: r.NewStyle().
			Foreground(lipgloss.Color("46")). // Green
			Bold(true),
		bad: r.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true),
		muted: r.NewStyle().
			Foreground(lipgloss.Color("240")),
		errText: r.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}
}

// newRenderer returns a renderer for w. noColor forces plain ASCII output.
func newRenderer(w io.Writer, noColor bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
