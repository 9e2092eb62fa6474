package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cmcl/internal/domain"
	"cmcl/internal/report"
)

// TopK is the number of gallery items shown for a query.
const TopK = 10

// EvaluationPort is the TUI-facing subset of the evaluation service.
type EvaluationPort interface {
	Query(views int, pair domain.Pair, queryIndex, topK int) (*domain.QueryResult, error)
}

// Model is the Bubble Tea model for the result browser.
type Model struct {
	service  EvaluationPort
	reports  []*domain.Report
	input    textinput.Model
	viewport viewport.Model
	result   *domain.QueryResult
	status   string
	view     int // index into reports
	cursor   int // index into the current report's pairs
	ready    bool
}

// New creates a browser over already evaluated reports.
func New(service EvaluationPort, reports []*domain.Report) Model {
	ti := textinput.New()
	ti.Prompt = "query index > "
	ti.Placeholder = "Type a sample index and press Enter"
	ti.Focus()
	ti.CharLimit = 9
	vp := viewport.New(0, 0)
	return Model{service: service, reports: reports, input: ti, viewport: vp, status: "↑/↓ pair  ←/→ views  Enter rank query  Ctrl+C quit"}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			m.runQuery()
			m.viewport.SetContent(m.renderBody())
			return m, nil
		case "down":
			if n := len(m.pairs()); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.result = nil
				m.viewport.SetContent(m.renderBody())
			}
			return m, nil
		case "up":
			if n := len(m.pairs()); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.result = nil
				m.viewport.SetContent(m.renderBody())
			}
			return m, nil
		case "right":
			if len(m.reports) > 0 {
				m.view = (m.view + 1) % len(m.reports)
				m.result = nil
				m.viewport.SetContent(m.renderBody())
			}
			return m, nil
		case "left":
			if len(m.reports) > 0 {
				m.view = (m.view - 1 + len(m.reports)) % len(m.reports)
				m.result = nil
				m.viewport.SetContent(m.renderBody())
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runQuery() {
	r := m.current()
	if r == nil || len(r.Results) == 0 {
		m.status = "Nothing evaluated."
		return
	}
	raw := strings.TrimSpace(m.input.Value())
	idx, err := strconv.Atoi(raw)
	if err != nil {
		m.status = fmt.Sprintf("Error: %q is not a sample index", raw)
		return
	}
	pair := r.Results[m.cursor].Pair
	res, err := m.service.Query(r.Views, pair, idx, TopK)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.result = nil
		return
	}
	m.result = res
	m.status = fmt.Sprintf("%s query %d (label %d)  AP=%.4f", pair.Name(), idx, res.QueryLabel, res.AP)
}

func (m Model) current() *domain.Report {
	if len(m.reports) == 0 {
		return nil
	}
	return m.reports[m.view]
}

func (m Model) pairs() []domain.PairResult {
	if r := m.current(); r != nil {
		return r.Results
	}
	return nil
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Cross-Modal Retrieval mAP")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) summary() string {
	r := m.current()
	if r == nil {
		return "No reports."
	}
	return fmt.Sprintf("%s  views=%d (%d/%d)  samples=%d", r.Dir, r.Views, m.view+1, len(m.reports), r.Samples)
}

func (m Model) renderBody() string {
	pairs := m.pairs()
	if len(pairs) == 0 {
		return "No results yet."
	}
	var b strings.Builder
	for i, res := range pairs {
		line := fmt.Sprintf("%-12s %7s", res.Pair.Name(), report.FormatPercent(res.Percent))
		if res.NoRelevant > 0 {
			line += fmt.Sprintf("  (%d without relevant items)", res.NoRelevant)
		}
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteByte('\n')
	}
	if m.result != nil {
		b.WriteByte('\n')
		b.WriteString(m.renderQuery())
	}
	return b.String()
}

func (m Model) renderQuery() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d for %s query %d:\n", len(m.result.Items), m.result.Pair.Name(), m.result.QueryIndex)
	for _, it := range m.result.Items {
		line := fmt.Sprintf("%3d. #%-6d label=%-4d dist=%.4f", it.Rank, it.Index, it.Label, it.Distance)
		if it.Relevant {
			b.WriteString(relevantStyle.Render(line + " ✓"))
		} else {
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Pair returns the pair under the cursor.
func (m Model) Pair() (domain.Pair, bool) {
	pairs := m.pairs()
	if len(pairs) == 0 {
		return domain.Pair{}, false
	}
	return pairs[m.cursor].Pair, true
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	relevantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
