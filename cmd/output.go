package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
)

var styles = struct {
	Bold   lipgloss.Style
	Filled lipgloss.Style
}{
	Bold: lipgloss.NewStyle().Bold(true),

	Filled: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("86")).
		Padding(0, 1),
}

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
	faintColor   = color.New(color.Faint)
)

func printSuccess(format string, args ...interface{}) {
	successColor.Printf("✓ %s\n", fmt.Sprintf(format, args...))
}

// PrintError reports a command failure on stdout, matching the other status lines.
func PrintError(format string, args ...interface{}) {
	errorColor.Printf("✗ %s\n", fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	warningColor.Printf("⚠ %s\n", fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...interface{}) {
	infoColor.Printf("ℹ %s\n", fmt.Sprintf(format, args...))
}
