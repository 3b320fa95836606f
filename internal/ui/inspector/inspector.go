// Package inspector is a terminal view of a running navigation session:
// the presented navigation tree, the flow hierarchy, a scrolling feed of
// transitions, actions and surface changes from the event bus, toasts, and
// an optional log tail. Routes can be typed in and delivered to the
// selected tab.
package inspector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/roomflow/internal/app"
	"github.com/zjrosen/roomflow/internal/flow"
	"github.com/zjrosen/roomflow/internal/indicator"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/pubsub"
	"github.com/zjrosen/roomflow/internal/route"
	"github.com/zjrosen/roomflow/internal/ui/toaster"
)

const (
	maxEvents   = 500
	maxLogLines = 8
	toastLinger = 3 * time.Second
	readTimeout = time.Second
)

type refreshMsg struct {
	tab       app.Tab
	tree      string
	snapshots []flow.Snapshot
	err       error
}

type routeMsg struct {
	route route.Route
	err   error
}

// Model is the inspector's bubbletea model.
type Model struct {
	app    *app.App
	ctx    context.Context
	cancel context.CancelFunc
	bus    *pubsub.ContinuousListener[any]
	logs   *log.LogListener
	keys   keyMap

	events    viewport.Model
	lines     []string
	logLines  []string
	showLogs  bool
	prompt    textinput.Model
	prompting bool
	spinner   spinner.Model
	loading   map[string]bool
	toaster   toaster.Model

	tab       app.Tab
	tree      string
	snapshots []flow.Snapshot
	lastRoute string

	width  int
	height int
}

// New creates an inspector for a started app.
func New(a *app.App) Model {
	ctx, cancel := context.WithCancel(context.Background())

	prompt := textinput.New()
	prompt.Placeholder = "#alias:server, !room:server, matrix: or roomflow:// link"
	prompt.Prompt = "route> "
	prompt.CharLimit = 512

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		app:     a,
		ctx:     ctx,
		cancel:  cancel,
		bus:     pubsub.NewContinuousListener(ctx, a.Bus),
		logs:    log.NewListener(ctx),
		keys:    defaultKeys(),
		events:  viewport.New(80, 20),
		prompt:  prompt,
		spinner: sp,
		loading: make(map[string]bool),
		toaster: toaster.New(),
		width:   80,
		height:  30,
	}
	m.layout()
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.bus.Listen(), m.spinner.Tick, m.refresh()}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		if m.prompting {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)

	case pubsub.Event[any]:
		m = m.handleBusEvent(msg)
		return m, tea.Batch(m.bus.Listen(), m.refresh())

	case log.LogEvent:
		m.logLines = append(m.logLines, strings.TrimRight(msg.Payload, "\n"))
		if n := len(m.logLines); n > maxLogLines {
			m.logLines = m.logLines[n-maxLogLines:]
		}
		return m, m.logs.Listen()

	case refreshMsg:
		if msg.err != nil {
			return m, nil
		}
		m.tab, m.tree, m.snapshots = msg.tab, msg.tree, msg.snapshots
		return m, nil

	case routeMsg:
		if msg.err != nil {
			m.toaster = m.toaster.Show(msg.err.Error(), toaster.StyleError)
			return m, toaster.ScheduleDismiss(toastLinger)
		}
		m.lastRoute = msg.route.Kind.String()
		return m, m.refresh()

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Route):
		m.prompting = true
		m.prompt.SetValue("")
		m.layout()
		return m, m.prompt.Focus()
	case key.Matches(msg, m.keys.Tab):
		next := app.TabSpaces
		if m.app.Tab() == app.TabSpaces {
			next = app.TabChats
		}
		m.app.SelectTab(next)
		return m, m.refresh()
	case key.Matches(msg, m.keys.Dismiss):
		return m, m.dismissSheet()
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
		m.layout()
		return m, nil
	}
	var cmd tea.Cmd
	m.events, cmd = m.events.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		raw := m.prompt.Value()
		m.prompting = false
		m.prompt.Blur()
		m.layout()
		return m, m.handleRoute(raw)
	case key.Matches(msg, m.keys.Cancel):
		m.prompting = false
		m.prompt.Blur()
		m.layout()
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleBusEvent(ev pubsub.Event[any]) Model {
	if ie, ok := ev.Payload.(indicator.Event); ok {
		switch {
		case ie.Indicator.Type == indicator.Modal:
			m.loading[ie.Indicator.ID] = ie.Op == indicator.OpShown
		case ie.Op == indicator.OpShown:
			m.toaster = m.toaster.ShowIndicator(ie.Indicator)
		default:
			m.toaster = m.toaster.Retract(ie.Indicator.ID)
		}
	}

	line := fmt.Sprintf("%s %-10s %v", ev.Timestamp.Format("15:04:05.000"), ev.Type, ev.Payload)
	m.lines = append(m.lines, line)
	if n := len(m.lines); n > maxEvents {
		m.lines = m.lines[n-maxEvents:]
	}
	m.events.SetContent(strings.Join(m.lines, "\n"))
	m.events.GotoBottom()
	return m
}

// refresh reads the navigation tree and flow snapshots on the loop.
func (m Model) refresh() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()

		msg := refreshMsg{tab: a.Tab()}
		split := a.Split()
		if msg.err = a.Do(ctx, "inspector.refresh", func() { msg.tree = split.Tree() }); msg.err != nil {
			return msg
		}
		msg.snapshots, msg.err = a.Snapshot(ctx)
		return msg
	}
}

func (m Model) handleRoute(raw string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		r, err := a.HandleRoute(ctx, raw)
		return routeMsg{route: r, err: err}
	}
}

func (m Model) dismissSheet() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		split := a.Split()
		if err := a.Do(ctx, "inspector.dismiss", func() { split.SetSheet(nil, true, nil) }); err != nil {
			log.ErrorErr(log.CatUI, "dismiss sheet", err)
		}
		return nil
	}
}

// layout sizes the event feed to what the panels leave over.
func (m *Model) layout() {
	height := m.height - 6
	if m.showLogs {
		height -= maxLogLines + 1
	}
	if m.prompting {
		height--
	}
	m.events.Width = max(m.width/2-2, 22)
	m.events.Height = max(height, 5)
	m.prompt.Width = max(m.width-12, 10)
}
