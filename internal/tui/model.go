package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/coordinator/internal/events"
)

// taskLine is one row in the task status list.
type taskLine struct {
	description string
	agentName   string
	status      string // "running", "completed", "failed"
}

// Model is the root Bubble Tea model for the run dashboard. It consumes the
// event bus and shows plan progress, per-task status, and a scrollable feed
// of lifecycle lines.
type Model struct {
	eventSub  <-chan events.Event
	objective string

	total     int
	completed int
	failed    int
	pending   int

	tasks     map[string]*taskLine // description -> line
	taskOrder []string             // insertion order for display

	feed     []string
	viewport viewport.Model

	width    int
	height   int
	quitting bool
	done     bool
}

// New creates a dashboard model subscribed to all events on the bus.
func New(bus *events.Bus) Model {
	return Model{
		eventSub: bus.SubscribeAll(256),
		tasks:    make(map[string]*taskLine),
		viewport: viewport.New(0, 0),
	}
}

// Init returns the initial command: wait for the first event.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that blocks on the next bus event.
// A closed bus means the run is over.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return busClosedMsg{}
		}
		return event
	}
}

type busClosedMsg struct{}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		return m, nil

	case busClosedMsg:
		m.done = true
		return m, nil

	case events.PlanStartedEvent:
		m.objective = msg.Objective
		m.total = msg.Tasks
		m.pending = msg.Tasks
		return m, waitForEvent(m.eventSub)

	case events.PlanProgressEvent:
		m.total = msg.Total
		m.completed = msg.Completed
		m.failed = msg.Failed
		m.pending = msg.Pending
		return m, waitForEvent(m.eventSub)

	case events.TaskStartedEvent:
		m.upsertTask(msg.Description, msg.AgentName, "running")
		m.appendFeed(fmt.Sprintf("-> %s (%s)", msg.Description, msg.AgentName))
		return m, waitForEvent(m.eventSub)

	case events.TaskCompletedEvent:
		m.upsertTask(msg.Description, msg.AgentName, "completed")
		m.appendFeed(fmt.Sprintf("ok %s in %v", msg.Description, msg.Duration))
		return m, waitForEvent(m.eventSub)

	case events.TaskFailedEvent:
		m.upsertTask(msg.Description, msg.AgentName, "failed")
		m.appendFeed(fmt.Sprintf("FAIL %s: %v", msg.Description, msg.Err))
		return m, waitForEvent(m.eventSub)

	case events.DelegationEvent:
		m.appendFeed(fmt.Sprintf("delegate %s -> %s: %s", msg.From, msg.To, msg.Task))
		return m, waitForEvent(m.eventSub)

	case events.ToolCircuitOpenEvent:
		m.appendFeed(fmt.Sprintf("tool handler %s disabled", msg.Handler))
		return m, waitForEvent(m.eventSub)

	case events.Event:
		// Unrendered event type, keep consuming.
		return m, waitForEvent(m.eventSub)
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var b strings.Builder

	title := m.objective
	if title == "" {
		title = "waiting for plan..."
	}
	if m.done {
		title += " (finished)"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Total: %d  Completed: %s  Failed: %s  Pending: %s\n\n",
		m.total,
		StyleStatusComplete.Render(fmt.Sprintf("%d", m.completed)),
		StyleStatusFailed.Render(fmt.Sprintf("%d", m.failed)),
		StyleStatusPending.Render(fmt.Sprintf("%d", m.pending)),
	))

	for _, desc := range m.taskOrder {
		line := m.tasks[desc]
		var style lipgloss.Style
		switch line.status {
		case "completed":
			style = StyleStatusComplete
		case "failed":
			style = StyleStatusFailed
		default:
			style = StyleStatusRunning
		}
		b.WriteString(fmt.Sprintf("%s %s (%s)\n", style.Render(statusGlyph(line.status)), line.description, line.agentName))
	}
	b.WriteString("\n")

	b.WriteString(StyleBorder.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(HelpView())

	return b.String()
}

func statusGlyph(status string) string {
	switch status {
	case "completed":
		return "[ok]"
	case "failed":
		return "[!!]"
	default:
		return "[..]"
	}
}

func (m *Model) upsertTask(description, agentName, status string) {
	if line, exists := m.tasks[description]; exists {
		line.status = status
		if agentName != "" {
			line.agentName = agentName
		}
		return
	}
	m.tasks[description] = &taskLine{description: description, agentName: agentName, status: status}
	m.taskOrder = append(m.taskOrder, description)
}

func (m *Model) appendFeed(line string) {
	m.feed = append(m.feed, line)
	m.viewport.SetContent(strings.Join(m.feed, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) resizeViewport() {
	// Reserve lines for title, counters, task list, and the help bar.
	height := m.height - len(m.taskOrder) - 8
	if height < 3 {
		height = 3
	}
	m.viewport.Width = m.width - 4
	m.viewport.Height = height
}
