package main

import (
	"fmt"
	"strings"

	"qbench/bench"
)

// menuItem is one task in the filter popup.
type menuItem struct {
	task    bench.Task
	enabled bool
}

// filterMenu builds the popup items from the known tasks and the current filter.
func (m Model) filterMenu() []menuItem {
	tasks := bench.Tasks()
	items := make([]menuItem, len(tasks))
	for i, t := range tasks {
		items[i] = menuItem{task: t, enabled: m.menuDraft[t.Name]}
	}
	return items
}

// countByTask returns how many discovered cases belong to each task.
func (m Model) countByTask() map[string]int {
	counts := make(map[string]int)
	for _, c := range m.cases {
		counts[c.Task.Name]++
	}
	return counts
}

// renderMenu renders the floating task-filter popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Filter Tasks"))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 34)))
	sb.WriteString("\n")

	counts := m.countByTask()
	for i, item := range m.filterMenu() {
		box := "[ ]"
		if item.enabled {
			box = "[x]"
		}
		label := fmt.Sprintf("%s %-16s", box, item.task.Name)
		count := fmt.Sprintf(" %2d %s", counts[item.task.Name], item.task.Kind)
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ " + label))
			sb.WriteString(activeStyle.Render(count))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(label))
			sb.WriteString(dimStyle.Render(count))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(" ↑↓ Select  x Toggle  ⏎ Ok  Esc ✕"))

	return menuBorderStyle.Render(sb.String())
}
