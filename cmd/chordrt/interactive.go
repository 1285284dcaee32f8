package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/chord-lang/chord-runtime/config"
	"github.com/chord-lang/chord-runtime/sched"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const resultHistory = 12

type inspectorModel struct {
	pool  *sched.Pool
	cfg   *config.Config
	names []string

	selected int
	count    textinput.Model

	stats   sched.Stats
	results []sched.Result
	err     error
}

type resultMsg struct {
	res sched.Result
}

type errMsg struct {
	err error
}

type tickMsg time.Time

func newInspectorModel(cfg *config.Config, logger *zap.Logger) *inspectorModel {
	names := make([]string, 0, len(workloads))
	for name := range workloads {
		names = append(names, name)
	}
	sort.Strings(names)

	ti := textinput.New()
	ti.Placeholder = "1"
	ti.Prompt = "tasks: "
	ti.Width = 6
	ti.Focus()

	return &inspectorModel{
		pool: sched.New(sched.Options{
			Workers: cfg.Sched.Workers,
			Task:    cfg.TaskOptions(),
			Logger:  logger,
		}),
		cfg:   cfg,
		names: names,
		count: ti,
	}
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *inspectorModel) Init() tea.Cmd {
	return tick()
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.pool.Close()
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.names)-1 {
				m.selected++
			}

		case "enter":
			return m, m.submit()
		}

	case resultMsg:
		m.results = append(m.results, msg.res)
		if len(m.results) > resultHistory {
			m.results = m.results[len(m.results)-resultHistory:]
		}

	case errMsg:
		m.err = msg.err

	case tickMsg:
		m.stats = m.pool.Stats()
		return m, tick()
	}

	var cmd tea.Cmd
	m.count, cmd = m.count.Update(msg)
	return m, cmd
}

// submit queues count copies of the selected workload; each completion comes
// back as its own message. The pool submit can block on a full job queue, so
// it runs inside the command, never on the update path.
func (m *inspectorModel) submit() tea.Cmd {
	name := m.names[m.selected]
	w := workloads[name]

	n, err := strconv.Atoi(m.count.Value())
	if err != nil || n < 1 {
		n = 1
	}

	m.err = nil
	cmds := make([]tea.Cmd, 0, n)
	for i := 0; i < n; i++ {
		cmds = append(cmds, func() tea.Msg {
			done, err := m.pool.Submit(name, w)
			if err != nil {
				return errMsg{err: err}
			}
			return resultMsg{res: <-done}
		})
	}
	return tea.Batch(cmds...)
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("chordrt inspector"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("workers"))
	b.WriteString(fmt.Sprintf(" %d  ", m.stats.Workers))
	b.WriteString(labelStyle.Render("submitted"))
	b.WriteString(fmt.Sprintf(" %d  ", m.stats.Submitted))
	b.WriteString(labelStyle.Render("completed"))
	b.WriteString(fmt.Sprintf(" %d  ", m.stats.Completed))
	b.WriteString(labelStyle.Render("failed"))
	b.WriteString(fmt.Sprintf(" %d  ", m.stats.Failed))
	b.WriteString(labelStyle.Render("queued"))
	b.WriteString(fmt.Sprintf(" %d\n\n", m.stats.Queued))

	b.WriteString("Select a workload:\n\n")
	for i, name := range m.names {
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + name))
		} else {
			b.WriteString("  " + name)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.count.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(failStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if len(m.results) > 0 {
		b.WriteString("Recent tasks:\n")
		for i := len(m.results) - 1; i >= 0; i-- {
			r := m.results[i]
			if r.Failed() {
				b.WriteString(failStyle.Render(fmt.Sprintf("  %-4d %-12s %s at %s:%d",
					r.Task, r.Name, r.Failure.Expr, r.Failure.File, r.Failure.Line)))
			} else {
				b.WriteString(okStyle.Render(fmt.Sprintf("  %-4d %-12s ok", r.Task, r.Name)))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))
	return b.String()
}

func runInteractive(cfg *config.Config, logger *zap.Logger) error {
	p := tea.NewProgram(newInspectorModel(cfg, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
