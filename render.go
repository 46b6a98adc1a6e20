package main

import (
	"fmt"
	"strings"

	"qbench/bench"
	"qbench/sim"
)

// renderTablePanel renders the case table.
func (m Model) renderTablePanel(width, height int) string {
	var sb strings.Builder

	title := fmt.Sprintf("Cases %d/%d", len(m.visible), len(m.cases))
	if m.running > 0 || len(m.queue) > 0 {
		title += fmt.Sprintf("  %s %d running, %d queued", m.spinner.View(), m.running, len(m.queue))
	}
	if m.focus == focusTable {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	if len(m.visible) == 0 {
		sb.WriteString(dimStyle.Render("No cases. Check the data directory or press f to change the filter."))
	} else {
		sb.WriteString(m.table.View())
	}

	return tableStyle.Width(width - 2).Height(height - 2).Render(sb.String())
}

// renderDetailPanel renders the detail viewport for the selected case.
func (m Model) renderDetailPanel(width, height int) string {
	var sb strings.Builder

	title := m.mode.String()
	if m.focus == focusDetail {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	sb.WriteString(m.detail.View())

	return detailStyle.Width(width - 2).Height(height - 2).Render(sb.String())
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width int) string {
	var sb strings.Builder

	if m.statusMsg != "" {
		sb.WriteString(activeStyle.Render(m.statusMsg))
		sb.WriteString("\n")
	} else {
		sb.WriteString(activeStyle.Render("Navigate: "))
		sb.WriteString("↑↓/jk Select case  Tab Switch focus  1/2/3 Stats/States/Source\n")
	}

	sb.WriteString(activeStyle.Render("Actions:  "))
	sb.WriteString("⏎ Run case  r Run all  f Filter  ^S Save  q/^C Quit")

	return controlsStyle.Width(width).Render(sb.String())
}

// refreshDetail re-renders the detail content for the selected case.
func (m *Model) refreshDetail() {
	i := m.selected()
	if i < 0 {
		m.detail.SetContent(dimStyle.Render("No case selected."))
		return
	}
	var content string
	switch m.mode {
	case detailStates:
		content = m.statesContent(i)
	case detailSource:
		content = m.sourceContent(i)
	default:
		content = m.statsContent(i)
	}
	m.detail.SetContent(content)
	m.detail.GotoTop()
}

func field(sb *strings.Builder, label string, value any) {
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%-9s", label)))
	sb.WriteString(fmt.Sprint(value))
	sb.WriteString("\n")
}

func (m Model) statsContent(i int) string {
	c := m.cases[i]
	var sb strings.Builder

	field(&sb, "Case", c.Name)
	field(&sb, "Task", fmt.Sprintf("%s (%s)", c.Task.Name, c.Task.Kind))
	field(&sb, "Qubits", c.Qubits)
	field(&sb, "Memory", bench.FormatBytes(bench.StateBytes(c.Qubits)))

	switch m.states[i] {
	case caseIdle:
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("Not run yet. Press ⏎ to run."))
		return sb.String()
	case caseQueued, caseRunning:
		sb.WriteString("\n")
		sb.WriteString(activeStyle.Render("Running…"))
		return sb.String()
	}

	r := m.results[i]
	sb.WriteString("\n")
	field(&sb, "Run", r.RunID)
	field(&sb, "Gates", r.Gates)
	field(&sb, "Depth", r.Depth)
	field(&sb, "Trials", r.Stats.Trials)
	field(&sb, "Mean", bench.FormatDuration(r.Stats.Mean))
	field(&sb, "Min", bench.FormatDuration(r.Stats.Min))
	field(&sb, "Max", bench.FormatDuration(r.Stats.Max))
	field(&sb, "StdDev", bench.FormatDuration(r.Stats.StdDev))
	sb.WriteString("\n")

	switch {
	case !r.OK():
		sb.WriteString(errStyle.Render("✗ " + r.Err))
	case c.Task.Kind == bench.KindQAOA:
		field(&sb, "<C>", fmt.Sprintf("%.8f", r.Value))
		field(&sb, "|grad|", fmt.Sprintf("%.4g", r.GradNorm))
		field(&sb, "Steps", r.Steps)
	default:
		field(&sb, "Norm", fmt.Sprintf("%.12f", r.Norm))
		sb.WriteString(okStyle.Render("✓ done"))
	}
	return sb.String()
}

// statesContent lists the most probable basis states with probability bars.
func (m Model) statesContent(i int) string {
	r := m.results[i]
	if m.states[i] != caseDone || len(r.States) == 0 {
		return dimStyle.Render("No state recorded. Run a circuit case first.")
	}

	var sb strings.Builder
	for _, s := range r.States {
		filled := int(s.Prob*probBarWidth + 0.5)
		sb.WriteString(labelStyle.Render("|" + s.Bits + "⟩"))
		sb.WriteString(" ")
		sb.WriteString(barStyle.Render(strings.Repeat("█", filled)))
		sb.WriteString(dimStyle.Render(strings.Repeat("░", probBarWidth-filled)))
		sb.WriteString(fmt.Sprintf(" %.4f", s.Prob))
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" φ=%s", sim.FormatAngle(s.Phase))))
		sb.WriteString("\n")
	}
	return sb.String()
}

// sourceContent shows the circuit as QASM, or the graph and ansatz of a QAOA case.
// Loaded sources are cached per case.
func (m *Model) sourceContent(i int) string {
	if s, ok := m.sources[i]; ok {
		return s
	}
	s, err := loadSource(m.cases[i])
	if err != nil {
		return errStyle.Render(err.Error())
	}
	m.sources[i] = s
	return s
}

func loadSource(c bench.Case) (string, error) {
	w, err := bench.Load(c)
	if err != nil {
		return "", err
	}
	if c.Task.Kind != bench.KindQAOA {
		return w.Circuit.ToQASM(nil)
	}

	circuit, params, err := bench.Ansatz(c.Qubits, w.Edges)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	field(&sb, "Edges", len(w.Edges))
	field(&sb, "Params", len(params))
	field(&sb, "Gates", circuit.Len())
	field(&sb, "Depth", circuit.Depth())
	sb.WriteString("\n")
	for k, e := range w.Edges {
		sb.WriteString(fmt.Sprintf("rzz(%s) q[%d], q[%d]\n", bench.ParamName(k), e[0], e[1]))
	}
	return sb.String(), nil
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt draws overlay over bg with its top-left corner at column x, row y.
// Overlay rows that fall outside bg are dropped.
func overlayAt(bg, overlay string, x, y int) string {
	rows := strings.Split(bg, "\n")
	for i, line := range strings.Split(overlay, "\n") {
		if r := y + i; r >= 0 && r < len(rows) {
			rows[r] = spliceLineAt(rows[r], line, x)
		}
	}
	return strings.Join(rows, "\n")
}

// spliceLineAt replaces the visible columns [x, x+width(overlay)) of line. ANSI escape
// sequences of the covered columns are kept after the overlay, so styling that starts
// or ends under it still applies to the rest of the line.
func spliceLineAt(line, overlay string, x int) string {
	var prefix, covered, suffix strings.Builder
	end := x + visibleLen(overlay)
	col, inEsc := 0, false
	for _, r := range line {
		esc := r == '\x1b' || inEsc
		if esc {
			inEsc = r == '\x1b' || !escFinal(r)
		}
		switch {
		case col < x:
			prefix.WriteRune(r)
		case col >= end:
			suffix.WriteRune(r)
		case esc:
			covered.WriteRune(r)
		}
		if !esc {
			col++
		}
	}
	if col < x {
		prefix.WriteString(strings.Repeat(" ", x-col))
	}
	return prefix.String() + overlay + covered.String() + suffix.String()
}

// visibleLen counts the runes of s outside ANSI escape sequences.
func visibleLen(s string) int {
	n, inEsc := 0, false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc:
			inEsc = !escFinal(r)
		default:
			n++
		}
	}
	return n
}

// escFinal reports whether r ends an escape sequence.
func escFinal(r rune) bool {
	return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z'
}
