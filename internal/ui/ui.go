// Package ui implements the optional terminal progress display, a
// bubbletea program fed by a progress.Sink implementation, following the
// library's stable public Model/Update/View contract (see DESIGN.md for
// the grounding note on this package).
package ui

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/henneberg-systemdesign/devsync/internal/progress"
)

var (
	pathStyle = lipgloss.NewStyle().Faint(true)
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	headStyle = lipgloss.NewStyle().Bold(true)
)

type eventMsg struct {
	kind    string // "discovered" | "started" | "finished" | "logged"
	path    string
	detail  string
}

// Sink is a progress.Sink that forwards every event into a running
// bubbletea program via an internal channel.
type Sink struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewSink returns a Sink not yet attached to a running program; Run
// attaches it to the program it starts. Events sent before that are dropped.
func NewSink() *Sink { return &Sink{} }

func (s *Sink) attach(p *tea.Program) {
	s.mu.Lock()
	s.program = p
	s.mu.Unlock()
}

func (s *Sink) send(msg eventMsg) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (s *Sink) Discovered(path string)            { s.send(eventMsg{kind: "discovered", path: path}) }
func (s *Sink) Started(path, category string)      { s.send(eventMsg{kind: "started", path: path, detail: category}) }
func (s *Sink) Finished(path, outcome string)      { s.send(eventMsg{kind: "finished", path: path, detail: outcome}) }
func (s *Sink) Logged(level, message string)       { s.send(eventMsg{kind: "logged", path: level, detail: message}) }

type model struct {
	spin       spinner.Model
	discovered int
	completed  int
	skipped    int
	failed     int
	last       string
	quitting   bool
}

func newModel() model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{spin: sp}
}

func (m model) Init() tea.Cmd {
	return spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case eventMsg:
		switch msg.kind {
		case "discovered":
			m.discovered++
		case "started":
			m.last = msg.path
		case "finished":
			switch {
			case startsWith(msg.detail, "failed"):
				m.failed++
			case startsWith(msg.detail, "skipped"), startsWith(msg.detail, "aborted"):
				m.skipped++
			default:
				m.completed++
			}
			m.last = msg.path
		}
		return m, nil
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	status := fmt.Sprintf("%s %s\n%s discovered=%d completed=%d %s=%d %s=%d\n%s",
		m.spin.View(), headStyle.Render("devsync"),
		pathStyle.Render(""), m.discovered, m.completed,
		warnStyle.Render("skipped"), m.skipped,
		failStyle.Render("failed"), m.failed,
		pathStyle.Render(m.last))
	return status
}

func startsWith(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

type doneMsg struct{}

// Run starts the bubbletea program in the background, attaches sink to
// it, and returns a stop function that quits the program and waits for
// its goroutine to finish.
func Run(sink *Sink) (stop func()) {
	p := tea.NewProgram(newModel())
	sink.attach(p)

	done := make(chan struct{})
	go func() {
		_, _ = p.Run()
		close(done)
	}()

	return func() {
		p.Send(doneMsg{})
		<-done
	}
}
