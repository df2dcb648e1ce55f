package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent    = lipgloss.Color("#22c55e")
	subtle    = lipgloss.Color("#666666")
	highlight = lipgloss.Color("#60a5fa")
	warning   = lipgloss.Color("#eab308")
	danger    = lipgloss.Color("#ef4444")
	info      = lipgloss.Color("#06b6d4")

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(accent)

	errorStyle = lipgloss.NewStyle().
			Foreground(danger)

	mutedStyle = lipgloss.NewStyle().
			Foreground(subtle)

	labelStyle = lipgloss.NewStyle().
			Foreground(highlight).
			Width(12)

	greenStyle  = lipgloss.NewStyle().Foreground(accent)
	yellowStyle = lipgloss.NewStyle().Foreground(warning)
	redStyle    = lipgloss.NewStyle().Foreground(danger)
	cyanStyle   = lipgloss.NewStyle().Foreground(info)
)

var out io.Writer = os.Stdout

// SetOutput redirects the status helpers below and returns the previous
// writer.
func SetOutput(w io.Writer) io.Writer {
	prev := out
	out = w
	return prev
}

func Green(text string) string {
	return greenStyle.Render(text)
}

func Yellow(text string) string {
	return yellowStyle.Render(text)
}

func Red(text string) string {
	return redStyle.Render(text)
}

func Cyan(text string) string {
	return cyanStyle.Render(text)
}

func Header(text string) {
	fmt.Fprintln(out, titleStyle.Render("=== "+text+" ==="))
}

func Success(text string) {
	fmt.Fprintln(out, successStyle.Render("✓ "+text))
}

func Error(text string) {
	fmt.Fprintln(out, errorStyle.Render("✗ "+text))
}

func Info(text string) {
	fmt.Fprintln(out, "  "+text)
}

func Muted(text string) {
	fmt.Fprintln(out, mutedStyle.Render(text))
}

func Warn(text string) {
	fmt.Fprintln(out, yellowStyle.Render("⚠ "+text))
}

// Field prints an aligned "label value" line.
func Field(label, value string) {
	fmt.Fprintln(out, "  "+labelStyle.Render(label)+value)
}

func Confirm(question string, defaultVal bool) (bool, error) {
	var result bool = defaultVal

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Affirmative("Yes").
				Negative("No").
				Value(&result),
		),
	)

	err := form.Run()
	return result, err
}
