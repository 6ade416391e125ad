// Package tui renders a live view of one generation job.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/scribe-gw/internal/api"
	"github.com/mattjoyce/scribe-gw/internal/job"
)

// JobFetcher loads the current state of a job.
type JobFetcher interface {
	GetJob(ctx context.Context, jobID string) (*api.JobResponse, error)
}

type jobMsg struct {
	job *api.JobResponse
	err error
}

type pollMsg struct{}

// JobWatch polls a job until it is terminal, then shows the result or error.
type JobWatch struct {
	fetcher  JobFetcher
	jobID    string
	interval time.Duration

	job      *api.JobResponse
	lastErr  error
	polls    int
	spinner  spinner.Model
	viewport viewport.Model
	theme    Theme
	width    int
	height   int
	ready    bool
}

func NewJobWatch(fetcher JobFetcher, jobID string, interval time.Duration) JobWatch {
	if interval <= 0 {
		interval = time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	theme := NewDefaultTheme()
	sp.Style = theme.Processing

	return JobWatch{
		fetcher:  fetcher,
		jobID:    jobID,
		interval: interval,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		theme:    theme,
	}
}

// Job returns the last fetched state, or nil.
func (m JobWatch) Job() *api.JobResponse { return m.job }

func (m JobWatch) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m JobWatch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-10, 5)
		m.refreshViewport()
		return m, nil

	case jobMsg:
		m.polls++
		m.ready = true
		m.lastErr = msg.err
		if msg.err == nil {
			m.job = msg.job
			m.refreshViewport()
			if m.job.Status.IsTerminal() {
				return m, nil
			}
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return pollMsg{} })

	case pollMsg:
		return m, m.fetch()

	case spinner.TickMsg:
		if m.terminal() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m JobWatch) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("scribe-gw job " + m.jobID))
	b.WriteString("\n\n")

	switch {
	case !m.ready:
		b.WriteString(m.spinner.View() + " loading…")
	case m.job == nil && m.lastErr != nil:
		b.WriteString(m.theme.Failed.Render("error: " + m.lastErr.Error()))
	default:
		b.WriteString(m.statusLine())
		if m.lastErr != nil {
			b.WriteString("\n" + m.theme.Dim.Render("last poll failed: "+m.lastErr.Error()))
		}
		if m.terminal() {
			b.WriteString("\n\n" + m.theme.Border.Render(m.viewport.View()))
		}
	}

	b.WriteString("\n\n" + m.theme.Dim.Render("q: quit  ↑/↓: scroll"))
	return b.String()
}

func (m JobWatch) statusLine() string {
	j := m.job
	status := m.styleFor(j.Status).Render(string(j.Status))
	if !j.Status.IsTerminal() {
		status = m.spinner.View() + " " + status
	}
	line := fmt.Sprintf("%s %s   %s %s",
		m.theme.Label.Render("kind:"), j.Kind,
		m.theme.Label.Render("status:"), status)

	if j.StartedAt != nil {
		end := time.Now()
		if j.CompletedAt != nil {
			end = *j.CompletedAt
		}
		line += fmt.Sprintf("   %s %s", m.theme.Label.Render("elapsed:"), end.Sub(*j.StartedAt).Round(100*time.Millisecond))
	}
	return line
}

func (m JobWatch) styleFor(s job.Status) lipgloss.Style {
	switch s {
	case job.StatusProcessing:
		return m.theme.Processing
	case job.StatusCompleted:
		return m.theme.Completed
	case job.StatusFailed:
		return m.theme.Failed
	default:
		return m.theme.Pending
	}
}

func (m *JobWatch) refreshViewport() {
	if m.job == nil {
		return
	}
	switch {
	case m.job.Result != nil:
		m.viewport.SetContent(*m.job.Result)
	case m.job.Error != nil:
		m.viewport.SetContent(m.theme.Failed.Render(*m.job.Error))
	}
}

func (m JobWatch) terminal() bool {
	return m.job != nil && m.job.Status.IsTerminal()
}

func (m JobWatch) fetch() tea.Cmd {
	fetcher, id := m.fetcher, m.jobID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		j, err := fetcher.GetJob(ctx, id)
		return jobMsg{job: j, err: err}
	}
}
