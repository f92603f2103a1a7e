package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/storage"
)

// testClock is a settable now func shared by every store of a test service.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService(t *testing.T, clock *testClock, policy DeletePolicy) *Service {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "compass.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts := Options{DeletePolicy: policy}
	if clock != nil {
		opts.Now = clock.Now
	}
	svc, err := NewService(context.Background(), db, opts)
	require.NoError(t, err)
	return svc
}

func mustCapture(t *testing.T, svc *Service, title string) *storage.Task {
	t.Helper()
	task, err := svc.CaptureTask(context.Background(), title)
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func mustMove(t *testing.T, svc *Service, id string, target Placement) *storage.Task {
	t.Helper()
	task, err := svc.Tasks().Reclassify(context.Background(), id, target)
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func ids(tasks []storage.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestPayRentScenario(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local))
	svc := newTestService(t, clock, "")

	task := mustCapture(t, svc, "Pay rent")
	assert.Equal(t, []string{task.ID}, ids(svc.Inbox()))
	assert.Equal(t, 0, svc.Matrix().Len())

	mustMove(t, svc, task.ID, PlacementQ1)
	assert.Empty(t, svc.Inbox())
	assert.Equal(t, []string{task.ID}, ids(svc.Matrix().Q1))

	out, err := svc.ToggleTaskStatus(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Completed)
	assert.Equal(t, TaskCompletionXP, out.XPAwarded)
	assert.Equal(t, 10, svc.Ledger().XP())
	assert.Equal(t, 1, svc.Ledger().Level())

	history := svc.Ledger().History()
	require.Len(t, history, 1)
	assert.Equal(t, "task:Pay rent", history[0].Source)
	assert.Equal(t, 10, history[0].Amount)

	// Still in Q1 inside the retention window.
	assert.Equal(t, []string{task.ID}, ids(svc.Matrix().Q1))
	clock.Advance(MatrixRetention - time.Nanosecond)
	assert.Equal(t, []string{task.ID}, ids(svc.Matrix().Q1))
	clock.Advance(time.Nanosecond)
	assert.Empty(t, svc.Matrix().Q1, "window is exclusive at 24h")
	clock.Advance(time.Hour)
	assert.Empty(t, svc.Matrix().Q1)
	assert.Equal(t, PlacementHidden, Place(*svc.Tasks().Get(task.ID), clock.Now()))
}

func TestPlacementIsExclusive(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	done := now.Add(-time.Hour)
	stale := now.Add(-48 * time.Hour)
	edge := now.Add(-MatrixRetention)
	inside := edge.Add(time.Second)
	tr, fa := Ptr(true), Ptr(false)

	cases := []struct {
		name string
		task storage.Task
		want Placement
	}{
		{"inbox", storage.Task{Status: StatusTodo, IsInbox: true}, PlacementInbox},
		{"q1", storage.Task{Status: StatusTodo, Urgent: tr, Important: tr}, PlacementQ1},
		{"q2", storage.Task{Status: StatusTodo, Urgent: fa, Important: tr}, PlacementQ2},
		{"q3", storage.Task{Status: StatusTodo, Urgent: tr, Important: fa}, PlacementQ3},
		{"q4", storage.Task{Status: StatusTodo, Urgent: fa, Important: fa}, PlacementQ4},
		{"archived wins", storage.Task{Status: StatusTodo, IsInbox: true, IsArchived: true}, PlacementArchived},
		{"archived classified", storage.Task{Status: StatusTodo, Urgent: tr, Important: tr, IsArchived: true}, PlacementArchived},
		{"recent done", storage.Task{Status: StatusDone, Urgent: tr, Important: fa, CompletedAt: &done}, PlacementQ3},
		{"stale done", storage.Task{Status: StatusDone, Urgent: tr, Important: fa, CompletedAt: &stale}, PlacementHidden},
		{"done at window edge", storage.Task{Status: StatusDone, Urgent: tr, Important: fa, CompletedAt: &edge}, PlacementHidden},
		{"done just inside window", storage.Task{Status: StatusDone, Urgent: tr, Important: fa, CompletedAt: &inside}, PlacementQ3},
		{"done without stamp", storage.Task{Status: StatusDone, Urgent: tr, Important: tr}, PlacementHidden},
		{"done inbox", storage.Task{Status: StatusDone, IsInbox: true}, PlacementHidden},
		{"half classified", storage.Task{Status: StatusTodo, Urgent: tr}, PlacementHidden},
		{"inbox with flags", storage.Task{Status: StatusTodo, IsInbox: true, Urgent: tr, Important: tr}, PlacementHidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Place(tc.task, now)
			assert.Equal(t, tc.want, got)

			// Exactly one view predicate holds for visible placements.
			matches := 0
			if tc.task.IsArchived {
				matches++
			}
			if InInbox(tc.task) {
				matches++
			}
			if _, ok := QuadrantOf(tc.task); ok && VisibleInMatrix(tc.task, now) {
				matches++
			}
			if got == PlacementHidden {
				assert.Zero(t, matches)
			} else {
				assert.Equal(t, 1, matches)
			}
		})
	}
}

func TestReclassifyRoundTrip(t *testing.T) {
	svc := newTestService(t, nil, "")
	task := mustCapture(t, svc, "Plan sprint")

	for _, target := range []Placement{PlacementQ2, PlacementQ4, PlacementInbox, PlacementQ3} {
		moved := mustMove(t, svc, task.ID, target)
		assert.Equal(t, target, Place(*moved, svc.Now()), "target %s", target)
	}

	back := mustMove(t, svc, task.ID, PlacementInbox)
	assert.True(t, back.IsInbox)
	assert.Nil(t, back.Urgent)
	assert.Nil(t, back.Important)

	_, err := svc.Tasks().Reclassify(context.Background(), task.ID, PlacementArchived)
	var target InvalidTargetError
	assert.ErrorAs(t, err, &target)
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Placement{
		"inbox": PlacementInbox, "Q1": PlacementQ1, "schedule": PlacementQ2,
		"3": PlacementQ3, " eliminate ": PlacementQ4,
	} {
		got, err := ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTarget("q5")
	assert.Error(t, err)
}

func TestToggleAwardsOncePerCompletion(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, "")
	task := mustCapture(t, svc, "Water plants")
	mustMove(t, svc, task.ID, PlacementQ4)

	first, err := svc.ToggleTaskStatus(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	require.NotNil(t, first.Task.CompletedAt)

	second, err := svc.ToggleTaskStatus(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, second.Completed)
	assert.Zero(t, second.XPAwarded)
	assert.Nil(t, second.Task.CompletedAt)
	assert.Equal(t, StatusTodo, second.Task.Status)

	// Reverting never takes XP back; completing again grants it again.
	assert.Equal(t, 10, svc.Ledger().XP())
	_, err = svc.ToggleTaskStatus(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, svc.Ledger().XP())
	assert.Len(t, svc.Ledger().History(), 2)
}

func TestToggleUnknownIsNoop(t *testing.T) {
	svc := newTestService(t, nil, "")
	out, err := svc.ToggleTaskStatus(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, out)

	upd, err := svc.Tasks().UpdateTask(context.Background(), "missing", TaskPatch{Title: Ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, upd)
	assert.Zero(t, svc.Ledger().XP())
}

func TestLevelUpAtHundred(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, "")

	var last *ToggleOutcome
	for i := 0; i < 10; i++ {
		task := mustCapture(t, svc, "chore")
		out, err := svc.ToggleTaskStatus(ctx, task.ID)
		require.NoError(t, err)
		last = out
	}
	require.NotNil(t, last)
	assert.True(t, last.LevelUp)
	assert.Equal(t, 1, last.LevelBefore)
	assert.Equal(t, 2, last.LevelAfter)
	assert.Equal(t, 100, svc.Ledger().XP())
}

func TestLevelMath(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(99))
	assert.Equal(t, 2, LevelForXP(100))
	assert.Equal(t, 4, LevelForXP(350))
	assert.Equal(t, 1, LevelForXP(-5))
	assert.Equal(t, 300, LevelFloor(4))

	p := ProgressForXP(350)
	assert.Equal(t, 50, p.Current)
	assert.Equal(t, 100, p.Required)
	assert.InDelta(t, 50.0, p.Percentage, 0.001)
}

func TestHistoryCappedNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, "")
	for i := 0; i < HistoryLimit+5; i++ {
		_, err := svc.Ledger().GainXP(ctx, 1, "bonus")
		require.NoError(t, err)
	}
	_, err := svc.Ledger().GainXP(ctx, 7, "latest")
	require.NoError(t, err)

	h := svc.Ledger().History()
	assert.Len(t, h, HistoryLimit)
	assert.Equal(t, "latest", h[0].Source)
	// The total keeps every grant, including trimmed entries.
	assert.Equal(t, HistoryLimit+5+7, svc.Ledger().XP())
}

func TestDueDateBucketIgnoresZone(t *testing.T) {
	tasks := []storage.Task{
		{ID: "a", Title: "a", DueDate: "2024-03-15"},
		{ID: "b", Title: "b", DueDate: "2024-03-16"},
		{ID: "c", Title: "c", DueDate: "2024-03-15", IsArchived: true},
		{ID: "d", Title: "d", DueDate: "15/03/2024"},
	}
	kiritimati := time.FixedZone("UTC+14", 14*3600)
	pagoPago := time.FixedZone("UTC-11", -11*3600)

	for _, day := range []time.Time{
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 23, 30, 0, 0, kiritimati),
		time.Date(2024, 3, 15, 0, 30, 0, 0, pagoPago),
	} {
		assert.Equal(t, []string{"a"}, ids(CalendarDay(tasks, day)), day.String())
	}
	assert.Equal(t, []string{"a"}, ids(CalendarDayKey(tasks, "2024-03-15")))

	month := Month(tasks, 2024, time.March)
	assert.Len(t, month, 31)
	assert.Equal(t, []string{"a"}, ids(month["2024-03-15"]))
	assert.Equal(t, []string{"b"}, ids(month["2024-03-16"]))
	assert.Empty(t, month["2024-03-01"])
}

func TestTriage(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local)
	tasks := []storage.Task{
		{ID: "over", Status: StatusTodo, DueDate: "2024-03-08", Urgent: Ptr(true), Important: Ptr(true)},
		{ID: "today", Status: StatusTodo, DueDate: "2024-03-10", IsInbox: true},
		{ID: "tomorrow", Status: StatusTodo, DueDate: "2024-03-11", Urgent: Ptr(false), Important: Ptr(true)},
		{ID: "later", Status: StatusTodo, DueDate: "2024-03-20"},
		{ID: "done", Status: StatusDone, DueDate: "2024-03-01"},
		{ID: "gone", Status: StatusTodo, DueDate: "2024-03-01", IsArchived: true},
		{ID: "capture", Status: StatusTodo, IsInbox: true},
	}
	n := Triage(tasks, now)
	assert.Equal(t, []string{"over"}, ids(n.Overdue))
	assert.Equal(t, []string{"today"}, ids(n.DueToday))
	assert.Equal(t, []string{"tomorrow"}, ids(n.DueTomorrow))
	assert.Equal(t, 2, n.InboxPending)
	assert.Equal(t, 5, n.Total())

	assert.True(t, IsOverdue(tasks[0], now))
	assert.False(t, IsOverdue(tasks[4], now))
}

func TestStats(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	recent := now.Add(-2 * 24 * time.Hour)
	old := now.Add(-30 * 24 * time.Hour)
	tasks := []storage.Task{
		{ID: "1", Status: StatusTodo, IsInbox: true},
		{ID: "2", Status: StatusTodo, Urgent: Ptr(true), Important: Ptr(true), MissionID: "m1", DueDate: "2024-03-01"},
		{ID: "3", Status: StatusDone, Urgent: Ptr(false), Important: Ptr(true), CompletedAt: &recent},
		{ID: "4", Status: StatusDone, CompletedAt: &old},
		{ID: "5", Status: StatusTodo, IsArchived: true},
	}
	s := ComputeStats(tasks, now)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Open)
	assert.Equal(t, 2, s.Done)
	assert.Equal(t, 1, s.Inbox)
	assert.Equal(t, 1, s.Archived)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.DoneLast7Days)
	assert.Equal(t, 1, s.ByQuadrant[PlacementQ1])
	assert.Equal(t, 1, s.ByMission["m1"])
	assert.Equal(t, 1, s.Unaligned)
	assert.InDelta(t, 0.5, s.CompletionRate, 0.001)
}

func TestCreateTaskValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, "")

	_, err := svc.CreateTask(ctx, TaskInput{Title: "   "})
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = svc.CreateTask(ctx, TaskInput{Title: "x", DueDate: "next week"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "due date", verr.Field)

	_, err = svc.CreateTask(ctx, TaskInput{Title: "x", Urgent: Ptr(true)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quadrant", verr.Field)

	task, err := svc.CreateTask(ctx, TaskInput{Title: "  Call bank ", Context: "phone"})
	require.NoError(t, err)
	assert.Equal(t, "Call bank", task.Title)
	assert.Equal(t, "@phone", task.Context)
	assert.Equal(t, PlacementInbox, Place(*task, svc.Now()))

	direct, err := svc.CreateTask(ctx, TaskInput{Title: "Gym", Urgent: Ptr(false), Important: Ptr(true), IsInbox: true})
	require.NoError(t, err)
	assert.False(t, direct.IsInbox)
	assert.Equal(t, PlacementQ2, Place(*direct, svc.Now()))
}

func TestSubtasksDoNotChangeStatus(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, "")
	task := mustCapture(t, svc, "Move house")

	task, err := svc.Tasks().AddSubtask(ctx, task.ID, "Book van")
	require.NoError(t, err)
	require.Len(t, task.Subtasks, 1)
	sub := task.Subtasks[0].ID

	task, err = svc.Tasks().ToggleSubtask(ctx, task.ID, sub)
	require.NoError(t, err)
	assert.True(t, task.Subtasks[0].Completed)
	assert.Equal(t, StatusTodo, task.Status)
	assert.Zero(t, svc.Ledger().XP())

	task, err = svc.Tasks().RemoveSubtask(ctx, task.ID, sub)
	require.NoError(t, err)
	assert.Empty(t, task.Subtasks)
}

func TestArchiveUnarchivePurge(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, "")
	task := mustCapture(t, svc, "Old idea")

	_, err := svc.Tasks().DeleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, svc.Inbox())
	assert.Equal(t, []string{task.ID}, ids(svc.Archived()))

	restored, err := svc.Tasks().UnarchiveTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, PlacementInbox, Place(*restored, svc.Now()))

	removed, err := svc.Tasks().DeletePermanently(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Nil(t, svc.Tasks().Get(task.ID))

	removed, err = svc.Tasks().DeletePermanently(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFindByPrefix(t *testing.T) {
	svc := newTestService(t, nil, "")
	task := mustCapture(t, svc, "Find me")

	got, err := svc.Tasks().Find(task.ID[:8])
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)

	got, err = svc.Tasks().Find("zzzzzzzz")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStateSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "compass.db")

	db, err := storage.Open(ctx, path)
	require.NoError(t, err)
	svc, err := NewService(ctx, db, Options{})
	require.NoError(t, err)
	task, err := svc.CaptureTask(ctx, "Persist me")
	require.NoError(t, err)
	mustMove(t, svc, task.ID, PlacementQ2)
	_, err = svc.ToggleTaskStatus(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = storage.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	svc, err = NewService(ctx, db, Options{})
	require.NoError(t, err)

	got := svc.Tasks().Get(task.ID)
	require.NotNil(t, got)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, 10, svc.Ledger().XP())
	assert.Len(t, svc.Ledger().History(), 1)
}

type failingTaskRepo struct {
	err error
}

func (r *failingTaskRepo) LoadTasks(context.Context) ([]storage.Task, error) { return nil, nil }
func (r *failingTaskRepo) SaveTasks(context.Context, []storage.Task) error   { return r.err }

type memTaskRepo struct {
	mu    sync.Mutex
	tasks []storage.Task
}

func (r *memTaskRepo) LoadTasks(context.Context) ([]storage.Task, error) { return nil, nil }

func (r *memTaskRepo) SaveTasks(_ context.Context, tasks []storage.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = cloneTasks(tasks)
	return nil
}

func TestToggleReportsCommittedFlipWhenListenerFails(t *testing.T) {
	ctx := context.Background()
	repo := &memTaskRepo{}
	store, err := NewTaskStore(ctx, repo, nil)
	require.NoError(t, err)
	boom := errors.New("ledger unavailable")
	store.Subscribe(func(context.Context, CompletionEvent) (*GainResult, error) { return nil, boom })

	task, err := store.AddTask(ctx, InboxInput("Send invoice"))
	require.NoError(t, err)

	res, err := store.ToggleTaskStatus(ctx, task.ID)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, res, "caller must see the flip that was saved")
	assert.True(t, res.Completed)
	assert.Equal(t, StatusDone, res.Task.Status)
	assert.Nil(t, res.Gain)
	require.Len(t, repo.tasks, 1)
	assert.Equal(t, StatusDone, repo.tasks[0].Status)
}

func TestToggleOutcomeUsesOwnGain(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, "")

	const n = 20
	var tasks []*storage.Task
	for i := 0; i < n; i++ {
		tasks = append(tasks, mustCapture(t, svc, "parallel"))
	}

	outcomes := make([]*ToggleOutcome, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			outcomes[i], errs[i] = svc.ToggleTaskStatus(ctx, id)
		}(i, task.ID)
	}
	wg.Wait()

	levelUps := 0
	for i, out := range outcomes {
		require.NoError(t, errs[i])
		require.NotNil(t, out)
		assert.Equal(t, TaskCompletionXP, out.XPAwarded)
		if out.LevelUp {
			levelUps++
			assert.Equal(t, out.LevelBefore+1, out.LevelAfter)
		}
	}
	assert.Equal(t, n*TaskCompletionXP, svc.Ledger().XP())
	assert.Equal(t, 2, levelUps)
}

func TestPersistFailureKeepsMemory(t *testing.T) {
	boom := errors.New("disk full")
	store, err := NewTaskStore(context.Background(), &failingTaskRepo{err: boom}, nil)
	require.NoError(t, err)

	_, err = store.AddTask(context.Background(), InboxInput("Unsaved"))
	require.ErrorIs(t, err, boom)

	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Unsaved", list[0].Title)
}

func TestCaptureLines(t *testing.T) {
	svc := newTestService(t, nil, "")
	got, err := svc.CaptureLines(context.Background(), strings.NewReader("buy milk\n\n  call mom  \n"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "call mom", got[1].Title)
	assert.Len(t, svc.Inbox(), 2)
}

func TestParseQuickAdd(t *testing.T) {
	in := ParseQuickAdd("Pay rent @home due:tomorrow #q1", "2024-03-10", "2024-03-11")
	assert.Equal(t, "Pay rent", in.Title)
	assert.Equal(t, "@home", in.Context)
	assert.Equal(t, "2024-03-11", in.DueDate)
	require.NotNil(t, in.Urgent)
	require.NotNil(t, in.Important)
	assert.True(t, *in.Urgent)
	assert.True(t, *in.Important)
	assert.False(t, in.IsInbox)

	in = ParseQuickAdd("Read #book due:2024-04-01", "2024-03-10", "2024-03-11")
	assert.Equal(t, "Read #book", in.Title)
	assert.Equal(t, "2024-04-01", in.DueDate)
	assert.True(t, in.IsInbox)
	assert.Nil(t, in.Urgent)
}
