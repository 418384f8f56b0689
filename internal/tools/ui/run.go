package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const actionTimeout = 2 * time.Minute

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).PaddingLeft(2)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

type (
	doneMsg struct {
		details []string
		err     error
	}
	tickMsg time.Time
)

type model struct {
	title   string
	action  func(context.Context) ([]string, error)
	cancel  context.CancelFunc
	ctx     context.Context
	started time.Time
	elapsed time.Duration
	frame   int
	details []string
	err     error
	done    bool
}

func newModel(title string, action func(context.Context) ([]string, error)) model {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	return model{title: title, action: action, ctx: ctx, cancel: cancel, started: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	run := func() tea.Msg {
		details, err := m.action(m.ctx)
		return doneMsg{details: details, err: err}
	}
	return tea.Batch(run, tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		m.elapsed = time.Since(m.started)
		return m, tick()
	case doneMsg:
		m.cancel()
		m.details = msg.details
		m.err = msg.err
		m.elapsed = time.Since(m.started)
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	if !m.done {
		frame := spinnerFrames[m.frame%len(spinnerFrames)]
		b.WriteString(fmt.Sprintf("%s running %s\n", frame, mutedStyle.Render(m.elapsed.Truncate(time.Millisecond).String())))
		return b.String()
	}
	status := okStyle.Render("OK")
	if m.err != nil {
		status = failStyle.Render("FAILED") + ": " + m.err.Error()
	}
	b.WriteString(fmt.Sprintf("%s %s\n", status, mutedStyle.Render("("+m.elapsed.Truncate(time.Millisecond).String()+")")))
	for _, d := range m.details {
		b.WriteString(detailStyle.Render("- "+d) + "\n")
	}
	return b.String()
}

// Run executes action behind a small progress view and returns its result.
func Run(title string, action func(context.Context) ([]string, error)) ([]string, error) {
	final, err := tea.NewProgram(newModel(title, action)).Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
