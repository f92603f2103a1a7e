package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/engine"
	"compass/internal/storage"
)

func newTestModel(t *testing.T) (boardModel, *engine.Service) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	svc, err := engine.NewService(ctx, db, engine.Options{Now: func() time.Time { return now }})
	require.NoError(t, err)
	return newBoardModel(ctx, svc), svc
}

// step applies msg and runs the returned command chain synchronously.
func step(t *testing.T, m boardModel, msg tea.Msg) boardModel {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(boardModel)
		if cmd == nil {
			return m
		}
		msg = cmd()
	}
	return m
}

func keys(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBoardMovesInboxTaskIntoQuadrant(t *testing.T) {
	m, svc := newTestModel(t)
	_, err := svc.CaptureTask(context.Background(), "Pay rent")
	require.NoError(t, err)

	m = step(t, m, m.Init()())
	require.Len(t, m.cols[0], 1)

	m = step(t, m, keys("1"))
	assert.Empty(t, m.cols[0])
	require.Len(t, m.cols[1], 1)
	assert.Equal(t, "Pay rent", m.cols[1][0].Title)
	assert.Contains(t, m.lastLog, "Do first")
}

func TestBoardToggleAwardsXP(t *testing.T) {
	m, svc := newTestModel(t)
	_, err := svc.CreateTask(context.Background(), engine.TaskInput{
		Title: "File taxes", Urgent: engine.Ptr(true), Important: engine.Ptr(true),
	})
	require.NoError(t, err)

	m = step(t, m, m.Init()())
	m = step(t, m, keys("l"))
	require.Equal(t, 1, m.col)

	m = step(t, m, keys(" "))
	assert.Equal(t, engine.TaskCompletionXP, m.xp)
	require.Len(t, m.cols[1], 1)
	assert.Equal(t, engine.StatusDone, m.cols[1][0].Status)
	assert.Contains(t, m.lastLog, "+10 XP")
}

func TestBoardArchiveRemovesFromColumns(t *testing.T) {
	m, svc := newTestModel(t)
	_, err := svc.CaptureTask(context.Background(), "Old idea")
	require.NoError(t, err)

	m = step(t, m, m.Init()())
	m = step(t, m, keys("a"))
	assert.Empty(t, m.cols[0])
	assert.Len(t, svc.Archived(), 1)
}

func TestBoardKeysOnEmptyColumnAreNoops(t *testing.T) {
	m, _ := newTestModel(t)
	m = step(t, m, m.Init()())
	for _, k := range []string{"1", " ", "a", "j", "k"} {
		m = step(t, m, keys(k))
	}
	assert.Equal(t, 0, m.row)
	assert.Equal(t, "Loaded.", m.lastLog)
	assert.Contains(t, m.View(), "Inbox (0)")
}
