// This file implements an interactive progress view for batch compilation,
// adapting the teacher's REPL model/Update/View loop to show a spinner while
// the batch compiles and then one result line per file, instead of a
// read-eval-print prompt. Results appear together once the whole batch is
// done.
package driver

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	historyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))
)

// resultsMsg carries the finished batch of compile results back to Update.
type resultsMsg struct {
	results []Result
	elapsed time.Duration
}

type model struct {
	paths   []string
	workers int
	done    bool
	results []Result
	elapsed time.Duration
	spinner spinner.Model
}

func initialModel(paths []string, workers int) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	return model{paths: paths, workers: workers, spinner: s}
}

func compileCmd(paths []string, workers int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		results := CompileDir(paths, workers)
		return resultsMsg{results: results, elapsed: time.Since(start)}
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, compileCmd(m.paths, m.workers))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultsMsg:
		m.done = true
		m.results = msg.results
		m.elapsed = msg.elapsed
		return m, nil

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.done {
			switch msg.Type {
			case tea.KeyEsc, tea.KeyEnter:
				return m, tea.Quit
			case tea.KeyRunes:
				if msg.String() == "q" {
					return m, tea.Quit
				}
			}
		}
	}
	return m, nil
}

func (m model) View() string {
	var s string
	s += titleStyle.Render(fmt.Sprintf("jackc — compiling %d file(s)", len(m.paths)))
	s += "\n\n"

	if !m.done {
		s += fmt.Sprintf("%s compiling...\n", m.spinner.View())
		return s
	}

	var ok, failed int
	for _, r := range m.results {
		name := baseName(r.Path)
		if r.Err != nil {
			failed++
			s += errStyle.Render(fmt.Sprintf("Error in %s: %s", name, r.Err)) + "\n"
			continue
		}
		ok++
		s += okStyle.Render("Compiled: "+name) + "\n"
	}

	s += "\n" + historyStyle.Render(fmt.Sprintf("%d compiled, %d failed in %s", ok, failed, m.elapsed.Round(time.Millisecond)))
	s += "\n" + historyStyle.Render("press enter or q to exit")
	return s
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// RunTUI launches the interactive compile-progress view for paths, using
// the given worker pool size, and returns the batch's results once the
// program exits.
func RunTUI(paths []string, workers int) ([]Result, error) {
	m := initialModel(paths, workers)
	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(model).results, nil
}
