package engine

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"compass/internal/calendar"
	"compass/internal/logger"
	"compass/internal/storage"
)

type Options struct {
	Now          func() time.Time
	DeletePolicy DeletePolicy
}

// Service wires the stores to one database and routes completion events to
// the ledger. It is what the CLI, TUI and HTTP surfaces talk to.
type Service struct {
	slots    *storage.Slots
	now      func() time.Time
	tasks    *TaskStore
	missions *MissionStore
	contexts *ContextStore
	ledger   *Ledger
}

func NewService(ctx context.Context, db *sql.DB, opts Options) (*Service, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	slots := storage.NewSlots(db)

	tasks, err := NewTaskStore(ctx, storage.NewTaskRepo(slots), now)
	if err != nil {
		return nil, err
	}
	missions, err := NewMissionStore(ctx, storage.NewMissionRepo(slots), opts.DeletePolicy, now)
	if err != nil {
		return nil, err
	}
	contexts, err := NewContextStore(ctx, storage.NewContextRepo(slots))
	if err != nil {
		return nil, err
	}
	ledger, err := NewLedger(ctx, storage.NewLedgerRepo(slots), now)
	if err != nil {
		return nil, err
	}
	tasks.Subscribe(ledger.HandleCompletion)

	return &Service{
		slots:    slots,
		now:      now,
		tasks:    tasks,
		missions: missions,
		contexts: contexts,
		ledger:   ledger,
	}, nil
}

func (s *Service) Tasks() *TaskStore       { return s.tasks }
func (s *Service) Missions() *MissionStore { return s.missions }
func (s *Service) Contexts() *ContextStore { return s.contexts }
func (s *Service) Ledger() *Ledger         { return s.ledger }
func (s *Service) Now() time.Time          { return s.now() }

// CaptureTask is the quick-add path: a titled task dropped in the inbox.
func (s *Service) CaptureTask(ctx context.Context, title string) (*storage.Task, error) {
	t, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	return s.tasks.AddTask(ctx, InboxInput(t))
}

// CreateTask validates input at the boundary and adds the task. A task with
// both flags set skips the inbox.
func (s *Service) CreateTask(ctx context.Context, in TaskInput) (*storage.Task, error) {
	title, err := NormalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	in.Title = title
	if in.DueDate, err = NormalizeDueDate(in.DueDate); err != nil {
		return nil, err
	}
	if in.Context != "" {
		if in.Context, err = NormalizeContextName(in.Context); err != nil {
			return nil, err
		}
	}
	switch {
	case in.Urgent == nil && in.Important == nil:
		in.IsInbox = true
	case in.Urgent == nil || in.Important == nil:
		return nil, ValidationError{Field: "quadrant", Reason: "urgent and important must be given together"}
	default:
		in.IsInbox = false
	}
	return s.tasks.AddTask(ctx, in)
}

// CaptureLines adds one inbox task per non-empty line of r, as produced by a
// dictation transcript.
func (s *Service) CaptureLines(ctx context.Context, r io.Reader) ([]storage.Task, error) {
	var out []storage.Task
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		t, err := s.CaptureTask(ctx, line)
		if err != nil {
			return out, err
		}
		out = append(out, *t)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read capture input: %w", err)
	}
	return out, nil
}

// ToggleOutcome is a status flip plus what the ledger did with it.
type ToggleOutcome struct {
	Task        storage.Task
	Completed   bool
	XPAwarded   int
	LevelBefore int
	LevelAfter  int
	LevelUp     bool
}

// ToggleTaskStatus flips a task and reports the XP granted by that flip. When
// the ledger fails to persist, the outcome is still returned with the error.
func (s *Service) ToggleTaskStatus(ctx context.Context, id string) (*ToggleOutcome, error) {
	res, err := s.tasks.ToggleTaskStatus(ctx, id)
	if res == nil {
		return nil, err
	}
	out := &ToggleOutcome{Task: res.Task, Completed: res.Completed}
	if g := res.Gain; g != nil {
		out.XPAwarded = g.Entry.Amount
		out.LevelBefore = g.LevelBefore
		out.LevelAfter = g.LevelAfter
		out.LevelUp = g.LevelUp
	} else {
		lvl := s.ledger.Level()
		out.LevelBefore, out.LevelAfter = lvl, lvl
	}
	return out, err
}

func (s *Service) Inbox() []storage.Task {
	return Inbox(s.tasks.List())
}

func (s *Service) Matrix() MatrixView {
	return Matrix(s.tasks.List(), s.now())
}

func (s *Service) Archived() []storage.Task {
	return Archived(s.tasks.List())
}

func (s *Service) CalendarDay(day time.Time) []storage.Task {
	return CalendarDay(s.tasks.List(), day)
}

func (s *Service) Month(year int, month time.Month) map[string][]storage.Task {
	return Month(s.tasks.List(), year, month)
}

func (s *Service) Notifications() Notifications {
	return Triage(s.tasks.List(), s.now())
}

func (s *Service) Stats() Stats {
	return ComputeStats(s.tasks.List(), s.now())
}

// Alignment resolves a task's missionId. ok is false when the task is unlinked
// or its reference dangles.
func (s *Service) Alignment(t storage.Task) (Alignment, bool) {
	return s.missions.Resolve(t.MissionID)
}

// DeleteMission removes a mission under the configured policy. Tasks that
// referenced it keep the id and resolve as unlinked.
func (s *Service) DeleteMission(ctx context.Context, id string) ([]string, error) {
	removed, err := s.missions.DeleteMission(ctx, id)
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		dangling := 0
		gone := map[string]bool{}
		for _, r := range removed {
			gone[r] = true
		}
		for _, t := range s.tasks.List() {
			if gone[t.MissionID] {
				dangling++
			}
		}
		if dangling > 0 {
			logger.Info("tasks now unlinked", zap.Int("count", dangling), zap.Strings("missions", removed))
		}
	}
	return removed, nil
}

// Snapshot is the export document.
type Snapshot struct {
	Version    int                        `json:"version"`
	ExportedAt time.Time                  `json:"exportedAt"`
	Slots      map[string]json.RawMessage `json:"slots"`
}

const snapshotVersion = 1

func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	raw, err := s.slots.Raw(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Version: snapshotVersion, ExportedAt: s.now(), Slots: raw}, nil
}

// Import replaces the stored slots present in snap and reloads every store.
// Slots missing from snap are left as they are.
func (s *Service) Import(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.Version != snapshotVersion {
		return ValidationError{Field: "snapshot", Reason: "unsupported version"}
	}
	if err := s.slots.Restore(ctx, snap.Slots); err != nil {
		return err
	}
	if err := s.tasks.reload(ctx); err != nil {
		return err
	}
	if err := s.missions.reload(ctx); err != nil {
		return err
	}
	if err := s.contexts.reload(ctx); err != nil {
		return err
	}
	return s.ledger.reload(ctx)
}

// Syncer is the calendar backend.
type Syncer interface {
	Push(ctx context.Context, ev calendar.Event) (string, error)
	List(ctx context.Context, from, to time.Time) ([]calendar.Event, error)
}

type SyncReport struct {
	Pushed  []string
	Skipped []string
	Failed  map[string]error
}

// SyncCalendar pushes every dated, non-archived task due within horizon days
// (overdue open tasks included) and stores the remote event id on the task.
// A failing task is logged and reported; the rest still sync.
func (s *Service) SyncCalendar(ctx context.Context, syncer Syncer, horizonDays int) (*SyncReport, error) {
	report := &SyncReport{Failed: map[string]error{}}
	now := s.now()
	today := Midnight(now.In(time.Local))
	limit := today.AddDate(0, 0, horizonDays+1)

	for _, t := range s.tasks.List() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		due, ok := ParseDueDate(t.DueDate)
		if t.IsArchived || !ok || !due.Before(limit) {
			report.Skipped = append(report.Skipped, t.ID)
			continue
		}
		if due.Before(today) && t.Status == StatusDone && t.CalendarEventID == "" {
			report.Skipped = append(report.Skipped, t.ID)
			continue
		}

		align, _ := s.Alignment(t)
		ev, err := calendar.EventFromTask(t, align.Text, time.Local)
		if err != nil {
			report.Skipped = append(report.Skipped, t.ID)
			continue
		}
		id, err := syncer.Push(ctx, ev)
		if err != nil {
			logger.Warn("calendar push failed", zap.String("task", taskLabel(t)), zap.Error(err))
			report.Failed[t.ID] = err
			continue
		}
		if id != t.CalendarEventID {
			if _, err := s.tasks.UpdateTask(ctx, t.ID, TaskPatch{CalendarEventID: &id}); err != nil {
				report.Failed[t.ID] = err
				continue
			}
		}
		report.Pushed = append(report.Pushed, t.ID)
	}
	logger.Info("calendar sync",
		zap.Int("pushed", len(report.Pushed)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// Agenda lists remote events for the days [from, from+days).
func (s *Service) Agenda(ctx context.Context, syncer Syncer, from time.Time, days int) ([]calendar.Event, error) {
	start := Midnight(from)
	return syncer.List(ctx, start, start.AddDate(0, 0, days))
}
