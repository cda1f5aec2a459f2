// Package tui is the interactive terminal host of the timeline.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"staycal/internal/axis"
	"staycal/internal/feed"
	appLog "staycal/internal/log"
	"staycal/internal/render"
	"staycal/internal/scrollsync"
)

const (
	defaultLabelWidth = 28
	// wheelStep is how many cells one wheel notch scrolls.
	wheelStep = 3
)

type settleMsg struct{}

type refreshedMsg struct {
	snap *feed.Snapshot
	err  error
}

// Refresher reloads feeds on demand.
type Refresher interface {
	Refresh(ctx context.Context) (*feed.Snapshot, error)
}

// Model is the bubbletea model. It owns the axis and viewport for the
// lifetime of the program.
type Model struct {
	store     *feed.Store
	refresher Refresher
	bar       render.Bar

	sizes scrollsync.SizeFeed
	view  *scrollsync.Viewport

	labelWidth int
	width      int
	height     int
	selected   int
	status     string
}

// New builds a model over store. refresher may be nil.
func New(store *feed.Store, refresher Refresher, opts axis.Options, today time.Time) *Model {
	m := &Model{
		store:      store,
		refresher:  refresher,
		bar:        render.BookingBar{},
		labelWidth: defaultLabelWidth,
	}
	m.view = scrollsync.NewViewport(axis.New(today, opts))
	m.view.Attach(&m.sizes)
	return m
}

// Viewport exposes the scroll state, mainly for tests.
func (m *Model) Viewport() *scrollsync.Viewport { return m.view }

func (m *Model) Init() tea.Cmd {
	return nil
}

// settle schedules Settle for after the frame that draws the new axis.
// Commands run once View has returned, which is this host's next paint.
func (m *Model) settle() tea.Cmd {
	if !m.view.NeedsSettle() {
		return nil
	}
	return func() tea.Msg { return settleMsg{} }
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.sizes.Publish(m.bodyWidth())
		return m, m.settle()

	case settleMsg:
		m.view.Settle()
		return m, m.settle()

	case refreshedMsg:
		if msg.err != nil {
			appLog.Error("tui refresh failed", msg.err)
			m.status = "refresh failed: " + msg.err.Error()
		} else {
			m.status = "refreshed " + msg.snap.UpdatedAt.Format("15:04")
		}
		return m, nil

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.view.Wheel(0, -wheelStep)
		case tea.MouseButtonWheelDown:
			m.view.Wheel(0, wheelStep)
		case tea.MouseButtonWheelLeft:
			m.view.Wheel(-wheelStep, 0)
		case tea.MouseButtonWheelRight:
			m.view.Wheel(wheelStep, 0)
		default:
			return m, nil
		}
		return m, m.settle()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cw := m.view.Axis().ColumnWidth()
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.view.Close()
		return m, tea.Quit
	case "left", "h":
		m.view.ScrollBy(-cw)
	case "right", "l":
		m.view.ScrollBy(cw)
	case "pgup", "H":
		m.view.ScrollBy(-max(cw, m.view.ClientWidth()))
	case "pgdown", "L":
		m.view.ScrollBy(max(cw, m.view.ClientWidth()))
	case "t", "home":
		m.view.JumpToToday()
	case "up", "k":
		m.selected = max(0, m.selected-1)
	case "down", "j":
		m.selected = min(max(0, len(m.store.Current().Listings)-1), m.selected+1)
	case "n":
		m.jumpToNextCheckIn()
	case "r":
		return m, m.refresh()
	default:
		return m, nil
	}
	return m, m.settle()
}

func (m *Model) jumpToNextCheckIn() {
	snap := m.store.Current()
	if m.selected >= len(snap.Listings) {
		return
	}
	l := snap.Listings[m.selected]
	next, ok := snap.Index.NextCheckIn(l.ID, m.view.Axis().Today())
	if !ok {
		m.status = l.Name + ": no upcoming check-in"
		return
	}
	m.view.ScrollToDay(next.Start)
	m.status = ""
}

func (m *Model) refresh() tea.Cmd {
	if m.refresher == nil {
		return nil
	}
	m.status = "refreshing…"
	r := m.refresher
	return func() tea.Msg {
		snap, err := r.Refresh(context.Background())
		return refreshedMsg{snap: snap, err: err}
	}
}

func (m *Model) bodyWidth() int {
	return max(0, m.width-m.labelWidth)
}

var (
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	jumpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#2563EB")).Padding(0, 1)
)

func (m *Model) View() string {
	if m.width == 0 {
		return "loading…"
	}
	snap := m.store.Current()
	a := m.view.Axis()

	// Columns prepended since the last settle are drawn already; draw at the
	// offset the settle will move to so this frame does not jump.
	scroll := m.view.ScrollLeft() + a.PendingDays()*a.ColumnWidth()

	lines := render.Grid(
		render.Timeline{Axis: a, Listings: snap.Listings, Index: snap.Index},
		render.Frame{
			ScrollLeft: scroll,
			Width:      m.bodyWidth(),
			LabelWidth: m.labelWidth,
			Selected:   m.selected,
		},
		m.bar,
	)

	if m.height > 0 && len(lines) > m.height-1 {
		lines = lines[:max(0, m.height-1)]
	}

	var b strings.Builder
	b.WriteString(render.Render(lines))
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) footer() string {
	parts := []string{helpStyle.Render("←/→ scroll  pgup/pgdn page  ↑/↓ select  n next check-in  t today  r refresh  q quit")}
	if m.view.JumpToTodayShown() {
		parts = append(parts, jumpStyle.Render("t: jump to today"))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, "  ")
}

// Run starts the full-screen program and blocks until the user quits.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	m.view.Close()
	return err
}
