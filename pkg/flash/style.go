package flash

import "github.com/charmbracelet/lipgloss"

// Terminal styles for the flashing workflow output.
var (
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Step renders a workflow step announcement.
func Step(msg string) string { return stepStyle.Render("==> ") + msg }

// Success renders a completion line.
func Success(msg string) string { return successStyle.Render("ok: ") + msg }

// Fail renders a failure line.
func Fail(msg string) string { return failStyle.Render("error: ") + msg }

// Detail renders secondary information, dimmed.
func Detail(msg string) string { return detailStyle.Render(msg) }
