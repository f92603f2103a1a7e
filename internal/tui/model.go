package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"compass/internal/engine"
	"compass/internal/storage"
	"compass/internal/ui"
)

// columns in display order
var columns = []engine.Placement{
	engine.PlacementInbox,
	engine.PlacementQ1,
	engine.PlacementQ2,
	engine.PlacementQ3,
	engine.PlacementQ4,
}

type boardModel struct {
	ctx context.Context
	svc *engine.Service

	width  int
	height int

	cols   [][]storage.Task
	xp     int
	level  int
	notify engine.Notifications

	col int
	row int

	lastLog string
	loading bool
}

type loadedMsg struct {
	cols   [][]storage.Task
	xp     int
	level  int
	notify engine.Notifications
}

type actionMsg struct {
	log string
	err error
}

func newBoardModel(ctx context.Context, svc *engine.Service) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		cols:    make([][]storage.Task, len(columns)),
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		matrix := m.svc.Matrix()
		cols := make([][]storage.Task, len(columns))
		cols[0] = m.svc.Inbox()
		for i, q := range engine.Quadrants {
			cols[i+1] = matrix.Bucket(q)
		}
		return loadedMsg{
			cols:   cols,
			xp:     m.svc.Ledger().XP(),
			level:  m.svc.Ledger().Level(),
			notify: m.svc.Notifications(),
		}
	}
}

// moveCmd is the drag-and-drop analogue: one Reclassify call.
func (m boardModel) moveCmd(t storage.Task, target engine.Placement) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.svc.Tasks().Reclassify(m.ctx, t.ID, target); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{log: fmt.Sprintf("Moved %q to %s.", t.Title, target.Label())}
	}
}

func (m boardModel) toggleCmd(t storage.Task) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.ToggleTaskStatus(m.ctx, t.ID)
		if res == nil {
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{log: "Task not found."}
		}
		if err != nil {
			return actionMsg{err: fmt.Errorf("completed %q but XP was not saved: %w", t.Title, err)}
		}
		if !res.Completed {
			return actionMsg{log: fmt.Sprintf("Reopened %q.", t.Title)}
		}
		log := fmt.Sprintf("Completed %q: +%d XP", t.Title, res.XPAwarded)
		if res.LevelUp {
			log += fmt.Sprintf(" %s level %d", ui.BadgeLevelUp, res.LevelAfter)
		}
		return actionMsg{log: log}
	}
}

func (m boardModel) archiveCmd(t storage.Task) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.svc.Tasks().DeleteTask(m.ctx, t.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{log: fmt.Sprintf("Archived %q.", t.Title)}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.cols = msg.cols
		m.xp = msg.xp
		m.level = msg.level
		m.notify = msg.notify
		m.clampRow()
		return m, nil
	case actionMsg:
		if msg.err != nil {
			m.lastLog = "Failed: " + msg.err.Error()
		} else {
			m.lastLog = msg.log
		}
		return m, m.loadCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.loading = true
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, m.loadCmd()
	case "left", "h":
		if m.col > 0 {
			m.col--
			m.clampRow()
		}
		return m, nil
	case "right", "l":
		if m.col < len(columns)-1 {
			m.col++
			m.clampRow()
		}
		return m, nil
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
		return m, nil
	case "down", "j":
		if m.row < len(m.cols[m.col])-1 {
			m.row++
		}
		return m, nil
	case "i", "0", "1", "2", "3", "4":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		target, err := engine.ParseTarget(key)
		if err != nil {
			return m, nil
		}
		if target == columns[m.col] {
			return m, nil
		}
		return m, m.moveCmd(t, target)
	case " ", "enter":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.toggleCmd(t)
	case "a":
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.archiveCmd(t)
	}
	return m, nil
}

func (m boardModel) selectedTask() (storage.Task, bool) {
	list := m.cols[m.col]
	if m.row < 0 || m.row >= len(list) {
		return storage.Task{}, false
	}
	return list[m.row], true
}

func (m *boardModel) clampRow() {
	n := len(m.cols[m.col])
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m boardModel) View() string {
	return m.renderHeader() + "\n" + m.renderColumns() + "\n" + m.renderFooter()
}

func (m boardModel) renderHeader() string {
	if m.loading {
		return ui.Heading(ui.IconCompass, "Compass | loading…")
	}
	p := engine.ProgressForXP(m.xp)
	head := fmt.Sprintf("Compass | Level %d | XP %d %s", m.level, m.xp, ui.ProgressBar(p.Current, p.Required, 20))
	if n := m.notify.Total(); n > 0 {
		head += "  " + ui.Warn.Render(fmt.Sprintf("%s %d overdue, %d today, %d inbox",
			ui.IconBell, len(m.notify.Overdue), len(m.notify.DueToday), m.notify.InboxPending))
	}
	return ui.Title.Render(head)
}

func (m boardModel) columnWidth() int {
	w := 24
	if m.width > 0 {
		w = m.width/len(columns) - 4
	}
	if w < 12 {
		w = 12
	}
	return w
}

func (m boardModel) renderColumns() string {
	width := m.columnWidth()
	panels := make([]string, 0, len(columns))
	for i, p := range columns {
		var lines []string
		lines = append(lines, ui.QuadrantStyle(string(p)).Render(fmt.Sprintf("%s (%d)", columnTitle(p), len(m.cols[i]))))
		if len(m.cols[i]) == 0 {
			lines = append(lines, ui.Muted.Render("(empty)"))
		}
		for j, t := range m.cols[i] {
			line := truncate(fmt.Sprintf("%s %s", ui.StatusIcon(t.Status), t.Title), width)
			switch {
			case i == m.col && j == m.row:
				line = ui.SelectedRow.Render(line)
			case t.Status == engine.StatusDone:
				line = ui.Done.Render(line)
			}
			lines = append(lines, line)
		}
		panels = append(panels, ui.ColumnPanel(string(p), i == m.col).Width(width).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panels...)
}

func (m boardModel) renderFooter() string {
	keys := ui.Muted.Render("←/→ column  ↑/↓ task  i/1-4 move  space toggle  a archive  r refresh  q quit")
	return keys + "\n" + m.lastLog
}

func columnTitle(p engine.Placement) string {
	if p == engine.PlacementInbox {
		return ui.IconInbox + " Inbox"
	}
	return strings.ToUpper(string(p)) + " " + p.Label()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
