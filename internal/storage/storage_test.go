package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSlots(t *testing.T) *Slots {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSlots(db)
}

func TestMigrateIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	_ = db.Close()
}

func TestResolveDBPath(t *testing.T) {
	t.Setenv(DBPathEnv, "/tmp/from-env.db")

	got, err := ResolveDBPath("/tmp/configured.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/configured.db", got)

	got, err = ResolveDBPath("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", got)
}

func TestSlotsLoadMissingKeepsDefault(t *testing.T) {
	slots := openTestSlots(t)

	level := 1
	found, err := slots.Load(context.Background(), SlotLevel, &level)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, level)
}

func TestTaskRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepo(openTestSlots(t))

	urgent := true
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []Task{
		{ID: "a", Title: "Inbox item", Status: "todo", IsInbox: true, CreatedAt: created},
		{ID: "b", Title: "Classified", Status: "todo", Urgent: &urgent, Important: new(bool), DueDate: "2024-03-15", CreatedAt: created},
	}
	require.NoError(t, repo.SaveTasks(ctx, in))

	out, err := repo.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Nil(t, out[0].Urgent)
	assert.Nil(t, out[0].Important)
	require.NotNil(t, out[1].Urgent)
	assert.True(t, *out[1].Urgent)
	require.NotNil(t, out[1].Important)
	assert.False(t, *out[1].Important)
	assert.True(t, out[1].CreatedAt.Equal(created))
}

func TestTaskRepoSaveNilWritesEmptyList(t *testing.T) {
	ctx := context.Background()
	slots := openTestSlots(t)
	require.NoError(t, NewTaskRepo(slots).SaveTasks(ctx, nil))

	raw, err := slots.Raw(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw[SlotTasks]))
}

func TestLedgerRepoDefaultsAndSave(t *testing.T) {
	ctx := context.Background()
	repo := NewLedgerRepo(openTestSlots(t))

	p, err := repo.LoadProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, p.XP)
	assert.Equal(t, 1, p.Level)
	assert.Empty(t, p.History)

	p.XP = 120
	p.Level = 2
	p.History = []XPEntry{{ID: "x", Amount: 10, Source: "task:Pay rent"}}
	require.NoError(t, repo.SaveProgress(ctx, p))

	got, err := repo.LoadProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, got.XP)
	assert.Equal(t, 2, got.Level)
	require.Len(t, got.History, 1)
	assert.Equal(t, "task:Pay rent", got.History[0].Source)
}

func TestContextRepoFoundFlag(t *testing.T) {
	ctx := context.Background()
	repo := NewContextRepo(openTestSlots(t))

	_, found, err := repo.LoadContexts(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SaveContexts(ctx, nil))
	list, found, err := repo.LoadContexts(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, list)
}

func TestSlotsRestore(t *testing.T) {
	ctx := context.Background()
	slots := openTestSlots(t)

	err := slots.Restore(ctx, map[string]json.RawMessage{"bogus": json.RawMessage(`1`)})
	assert.Error(t, err)

	err = slots.Restore(ctx, map[string]json.RawMessage{SlotXP: json.RawMessage(`{`)})
	assert.Error(t, err)

	require.NoError(t, slots.Restore(ctx, map[string]json.RawMessage{
		SlotXP:    json.RawMessage(`250`),
		SlotLevel: json.RawMessage(`3`),
	}))
	p, err := NewLedgerRepo(slots).LoadProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 250, p.XP)
	assert.Equal(t, 3, p.Level)
}

func TestSlotsRestoreRejectsWrongShape(t *testing.T) {
	ctx := context.Background()
	slots := openTestSlots(t)
	tasks := NewTaskRepo(slots)
	require.NoError(t, tasks.SaveTasks(ctx, []Task{{ID: "t1", Title: "keep me", Status: "todo"}}))

	for key, raw := range map[string]string{
		SlotTasks:     `{"oops":1}`,
		SlotMissions:  `"text"`,
		SlotContexts:  `[1,2]`,
		SlotXP:        `"many"`,
		SlotXPHistory: `{"amount":5}`,
	} {
		err := slots.Restore(ctx, map[string]json.RawMessage{
			SlotLevel: json.RawMessage(`9`),
			key:       json.RawMessage(raw),
		})
		assert.Error(t, err, key)
	}

	// Nothing from a rejected restore is written.
	got, err := tasks.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep me", got[0].Title)
	p, err := NewLedgerRepo(slots).LoadProgress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Level)
}

func TestEverySlotHasShape(t *testing.T) {
	for _, key := range AllSlots {
		assert.Contains(t, slotShape, key)
	}
	assert.Len(t, slotShape, len(AllSlots))
}
