package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	bodyStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Width(80)
)

func heading(s string) {
	fmt.Println(titleStyle.Render(s))
}

func field(label string, value any) {
	fmt.Printf("%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(fmt.Sprint(value)))
}

// table prints rows padded to the widest cell of each column
func table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	render := func(cells []string, style lipgloss.Style) {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style.Width(widths[i]).Render(c)
		}
		fmt.Println(strings.Join(parts, "  "))
	}

	render(header, headerStyle)
	for _, row := range rows {
		render(row, lipgloss.NewStyle())
	}
}
