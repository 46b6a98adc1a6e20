package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qbench/bench"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusTable focus = iota
	focusDetail
	focusMenu
)

// detailMode selects what the detail panel shows for the selected case.
type detailMode int

const (
	detailStats detailMode = iota
	detailStates
	detailSource
)

func (d detailMode) String() string {
	switch d {
	case detailStates:
		return "States"
	case detailSource:
		return "Source"
	default:
		return "Stats"
	}
}

// caseState tracks a case through the run queue.
type caseState int

const (
	caseIdle caseState = iota
	caseQueued
	caseRunning
	caseDone
	caseFailed
)

// caseDoneMsg carries the result of one case back to the update loop.
type caseDoneMsg struct {
	index  int
	result bench.Result
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	cfg    bench.Config
	runner *bench.Runner

	cases   []bench.Case
	states  []caseState
	results []bench.Result
	saved   []bool // result already appended to the results file
	visible []int  // indices into cases after filtering
	queue   []int
	running int

	table   table.Model
	spinner spinner.Model
	detail  viewport.Model
	mode    detailMode
	sources map[int]string

	focus     focus
	filter    map[string]bool
	menuDraft map[string]bool
	menuItem  int

	width     int
	height    int
	statusMsg string // transient status message (e.g. save confirmation)
}

func newModel(ctx context.Context, cfg bench.Config, runner *bench.Runner, cases []bench.Case) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#565f89")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#1a1b26")).
		Background(lipgloss.Color("#ff9e64"))
	t.SetStyles(styles)

	filter := make(map[string]bool)
	for _, name := range bench.TaskNames() {
		filter[name] = true
	}

	m := Model{
		ctx:     ctx,
		cfg:     cfg,
		runner:  runner,
		cases:   cases,
		states:  make([]caseState, len(cases)),
		results: make([]bench.Result, len(cases)),
		saved:   make([]bool, len(cases)),
		table:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(activeStyle)),
		detail:  viewport.New(detailMinW, 10),
		sources: make(map[int]string),
		filter:  filter,
		focus:   focusTable,
	}
	m.applyFilter()
	return m
}

// columns sizes the table columns for a table of the given inner width.
func columns(width int) []table.Column {
	nameW := max(width-fixedColsW, 16)
	return []table.Column{
		{Title: "", Width: statusColW},
		{Title: "Task", Width: 14},
		{Title: "Case", Width: nameW},
		{Title: "Qubits", Width: 6},
		{Title: "Mean", Width: 8},
		{Title: "Result", Width: 15},
	}
}

// applyFilter recomputes the visible cases from the task filter.
func (m *Model) applyFilter() {
	m.visible = m.visible[:0]
	for i, c := range m.cases {
		if m.filter[c.Task.Name] {
			m.visible = append(m.visible, i)
		}
	}
	m.refreshRows()
	if m.table.Cursor() >= len(m.visible) {
		m.table.SetCursor(max(len(m.visible)-1, 0))
	}
	m.refreshDetail()
}

// refreshRows rebuilds the table rows from the case states.
func (m *Model) refreshRows() {
	rows := make([]table.Row, 0, len(m.visible))
	for _, i := range m.visible {
		c := m.cases[i]
		mean, outcome := "", ""
		switch m.states[i] {
		case caseDone:
			mean = bench.FormatDuration(m.results[i].Stats.Mean)
			outcome = m.results[i].Summary()
		case caseFailed:
			outcome = "error"
		case caseRunning:
			outcome = "running"
		case caseQueued:
			outcome = "queued"
		}
		rows = append(rows, table.Row{
			m.statusIcon(i),
			c.Task.Name,
			c.Name,
			strconv.Itoa(c.Qubits),
			mean,
			outcome,
		})
	}
	m.table.SetRows(rows)
}

func (m Model) statusIcon(i int) string {
	switch m.states[i] {
	case caseQueued:
		return "…"
	case caseRunning:
		return m.spinner.View()
	case caseDone:
		return "✓"
	case caseFailed:
		return "✗"
	default:
		return "·"
	}
}

// selected returns the case index under the table cursor, or -1.
func (m Model) selected() int {
	cur := m.table.Cursor()
	if cur < 0 || cur >= len(m.visible) {
		return -1
	}
	return m.visible[cur]
}

// enqueue adds cases to the run queue, skipping ones already queued or running.
func (m *Model) enqueue(indices ...int) tea.Cmd {
	added := 0
	for _, i := range indices {
		if i < 0 || m.states[i] == caseQueued || m.states[i] == caseRunning {
			continue
		}
		m.states[i] = caseQueued
		m.queue = append(m.queue, i)
		added++
	}
	if added == 0 {
		return nil
	}
	wasIdle := m.running == 0
	cmds := m.startNext()
	if wasIdle && m.running > 0 {
		cmds = append(cmds, m.spinner.Tick)
	}
	m.statusMsg = fmt.Sprintf("Queued %d case(s)", added)
	m.refreshRows()
	return tea.Batch(cmds...)
}

// startNext starts queued cases until cfg.Workers are in flight.
func (m *Model) startNext() []tea.Cmd {
	var cmds []tea.Cmd
	for m.running < max(m.cfg.Workers, 1) && len(m.queue) > 0 {
		i := m.queue[0]
		m.queue = m.queue[1:]
		m.states[i] = caseRunning
		m.running++
		cmds = append(cmds, runCase(m.ctx, m.runner, i, m.cases[i]))
	}
	return cmds
}

func runCase(ctx context.Context, r *bench.Runner, index int, c bench.Case) tea.Cmd {
	return func() tea.Msg {
		return caseDoneMsg{index: index, result: r.RunCase(ctx, c)}
	}
}

// unsavedResults returns the indices of finished cases whose result has not been
// saved yet, in discovery order.
func (m Model) unsavedResults() []int {
	var out []int
	for i, s := range m.states {
		if (s == caseDone || s == caseFailed) && !m.saved[i] {
			out = append(out, i)
		}
	}
	return out
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		tableW, detailW, bodyH := m.layout()
		m.table.SetColumns(columns(tableW - 4))
		m.table.SetWidth(tableW - 4)
		m.table.SetHeight(max(bodyH-4, 3))
		m.detail.Width = detailW - 4
		m.detail.Height = max(bodyH-5, 3)
		m.refreshDetail()

	case spinner.TickMsg:
		if m.running == 0 {
			break
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshRows()
		cmds = append(cmds, cmd)

	case caseDoneMsg:
		m.running--
		m.results[msg.index] = msg.result
		m.saved[msg.index] = false
		if msg.result.OK() {
			m.states[msg.index] = caseDone
		} else {
			m.states[msg.index] = caseFailed
			m.statusMsg = fmt.Sprintf("%s: %s", msg.result.Case, msg.result.Err)
		}
		cmds = append(cmds, m.startNext()...)
		m.refreshRows()
		if msg.index == m.selected() {
			m.refreshDetail()
		}

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusTable:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusDetail
				m.table.Blur()
			case "enter":
				cmds = append(cmds, m.enqueue(m.selected()))
			case "r":
				cmds = append(cmds, m.enqueue(m.visible...))
			case "f":
				m.focus = focusMenu
				m.menuItem = 0
				m.menuDraft = make(map[string]bool, len(m.filter))
				for k, v := range m.filter {
					m.menuDraft[k] = v
				}
			case "1", "2", "3":
				m.mode = detailMode(key[0] - '1')
				m.refreshDetail()
			case "ctrl+s":
				m.saveResults()
			default:
				before := m.selected()
				var cmd tea.Cmd
				m.table, cmd = m.table.Update(msg)
				cmds = append(cmds, cmd)
				if m.selected() != before {
					m.refreshDetail()
				}
			}

		case focusDetail:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab", "esc":
				m.focus = focusTable
				m.table.Focus()
			case "1", "2", "3":
				m.mode = detailMode(key[0] - '1')
				m.refreshDetail()
			default:
				var cmd tea.Cmd
				m.detail, cmd = m.detail.Update(msg)
				cmds = append(cmds, cmd)
			}

		case focusMenu:
			items := m.filterMenu()
			switch key {
			case "esc":
				m.focus = focusTable
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				if m.menuItem < len(items)-1 {
					m.menuItem++
				}
			case "x", " ", "space":
				name := items[m.menuItem].task.Name
				m.menuDraft[name] = !m.menuDraft[name]
			case "enter":
				m.filter = m.menuDraft
				m.focus = focusTable
				m.applyFilter()
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// saveResults appends the finished results not saved before to the configured
// results file.
func (m *Model) saveResults() {
	pending := m.unsavedResults()
	switch {
	case len(pending) == 0:
		m.statusMsg = "Nothing new to save"
		return
	case m.cfg.Results == "":
		m.statusMsg = "No results file configured"
		return
	}

	results := make([]bench.Result, len(pending))
	for k, i := range pending {
		results[k] = m.results[i]
	}
	if err := bench.AppendJSONL(m.cfg.Results, results); err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		return
	}
	for _, i := range pending {
		m.saved[i] = true
	}
	m.statusMsg = fmt.Sprintf("Saved %d result(s) to %s", len(results), m.cfg.Results)
}

// layout splits the window into the table and detail panels.
func (m Model) layout() (tableW, detailW, bodyH int) {
	detailW = max(m.width/3, detailMinW)
	tableW = max(m.width-detailW, 20)
	bodyH = max(m.height-controlsH, 6)
	return tableW, detailW, bodyH
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	tableW, detailW, bodyH := m.layout()
	tablePanel := m.renderTablePanel(tableW, bodyH)
	detailPanel := m.renderDetailPanel(detailW, bodyH)
	controlsPanel := m.renderControlsPanel(m.width - 4)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, tablePanel, detailPanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, controlsPanel)

	if m.focus == focusMenu {
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	}

	return frame
}
