// Package ui renders workspace load progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"aasify/internal/workspace"
)

type progressModel struct {
	title   string
	events  <-chan workspace.Event
	spinner spinner.Model
	prog    progress.Model
	items   []docItem
	index   map[string]int
	width   int
	done    bool
}

type docItem struct {
	path   string
	label  string
	stage  workspace.Stage
	status workspace.Status
}

type eventMsg workspace.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model listing each document with its
// current load stage. It quits when events is closed.
func NewProgressModel(title string, docs []string, events <-chan workspace.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]docItem, 0, len(docs))
	index := make(map[string]int, len(docs))
	for i, doc := range docs {
		items = append(items, docItem{path: doc, label: "queued", status: workspace.StatusQueued})
		index[doc] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(workspace.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		next, cmd := m.prog.Update(msg)
		m.prog = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 10
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%*s", statusWidth, item.label))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(item.path, nameWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev workspace.Event) tea.Cmd {
	idx, ok := m.index[ev.Document]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.stage = ev.Stage
	item.status = ev.Status
	item.label = label(ev.Stage, ev.Status)
	return m.prog.SetPercent(m.fraction())
}

// fraction weighs each document by how far it got: reading, indexing and
// linking each count for a third; failures count as finished.
func (m *progressModel) fraction() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		total += itemProgress(item)
	}
	return total / float64(len(m.items))
}

func itemProgress(item docItem) float64 {
	if item.status == workspace.StatusError {
		return 1
	}
	base := map[workspace.Stage]float64{
		workspace.StageRead:  0,
		workspace.StageIndex: 1.0 / 3,
		workspace.StageLink:  2.0 / 3,
	}[item.stage]
	if item.status == workspace.StatusDone {
		base += 1.0 / 3
	}
	return base
}

func label(stage workspace.Stage, status workspace.Status) string {
	switch status {
	case workspace.StatusQueued:
		return "queued"
	case workspace.StatusError:
		return "error"
	case workspace.StatusDone:
		if stage == workspace.StageLink {
			return "linked"
		}
		if stage == workspace.StageIndex {
			return "indexed"
		}
		return "read"
	case workspace.StatusWorking:
		switch stage {
		case workspace.StageRead:
			return "reading"
		case workspace.StageIndex:
			return "indexing"
		case workspace.StageLink:
			return "linking"
		}
	}
	return ""
}

func styleStatus(status workspace.Status) lipgloss.Style {
	switch status {
	case workspace.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case workspace.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case workspace.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return "..." + runewidth.TruncateLeft(value, runewidth.StringWidth(value)-width+3, "")
}
