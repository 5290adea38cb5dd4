// Package dashboard is a read-only bubbletea view over the record store: a
// local operator's window into pipeline state, grounded on the teacher's
// internal/tui/dashboard (cmd/streamy/dashboard.go launches it the same way,
// against a registry instead of a RecordStore).
package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
)

// Model is the dashboard's bubbletea model: one scrollable table of
// PipelineRecords, refreshed on demand from the store.
type Model struct {
	store ports.RecordStore
	ctx   context.Context

	records []*orchestrator.PipelineRecord
	cursor  int

	spinner    spinner.Model
	refreshing bool
	lastErr    error
	lastLoad   time.Time

	width  int
	height int
}

// NewModel constructs a dashboard Model bound to store. ctx is reused for
// every refresh the dashboard issues for its lifetime.
func NewModel(ctx context.Context, store ports.RecordStore) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		store:   store,
		ctx:     ctx,
		spinner: s,
		width:   100,
		height:  30,
	}
}

// Init loads the initial record set and starts the spinner ticking.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refreshCmd(m.ctx, m.store))
}

// Update handles key navigation, window resizes, refresh completion, and
// spinner ticks. The dashboard never mutates the store: it is observation
// only, matching §9's "no in-memory lock" separation between control and
// view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.records)-1 {
				m.cursor++
			}
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, refreshCmd(m.ctx, m.store)
			}
		}
		return m, nil

	case refreshMsg:
		m.refreshing = false
		m.lastLoad = time.Now()
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.records = msg.records
		sortRecords(m.records)
		if m.cursor >= len(m.records) {
			m.cursor = len(m.records) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// sortRecords orders by target day descending, then window start, so the
// newest activity per identity triple surfaces first.
func sortRecords(records []*orchestrator.PipelineRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].TargetDay.Equal(records[j].TargetDay) {
			return records[i].TargetDay.After(records[j].TargetDay)
		}
		return records[i].WindowStartTime.After(records[j].WindowStartTime)
	})
}

type refreshMsg struct {
	records []*orchestrator.PipelineRecord
	err     error
}

func refreshCmd(ctx context.Context, store ports.RecordStore) tea.Cmd {
	return func() tea.Msg {
		records, err := store.List(ctx)
		return refreshMsg{records: records, err: err}
	}
}
