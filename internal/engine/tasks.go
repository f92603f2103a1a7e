package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"compass/internal/logger"
	"compass/internal/storage"
)

// TaskPort is the persistence contract of the task store.
type TaskPort interface {
	LoadTasks(ctx context.Context) ([]storage.Task, error)
	SaveTasks(ctx context.Context, tasks []storage.Task) error
}

// CompletionEvent is emitted once per todo->done transition.
type CompletionEvent struct {
	Task storage.Task
	At   time.Time
}

// CompletionListener reacts to a completion. Listeners that grant XP return
// the ledger append; others return nil.
type CompletionListener func(ctx context.Context, ev CompletionEvent) (*GainResult, error)

// TaskStore owns the task collection. The in-memory collection is
// authoritative; every mutation rewrites the tasks slot. When that write
// fails the change stays in memory and the error is returned.
type TaskStore struct {
	mu        sync.Mutex
	repo      TaskPort
	tasks     []storage.Task
	now       func() time.Time
	listeners []CompletionListener
}

func NewTaskStore(ctx context.Context, repo TaskPort, now func() time.Time) (*TaskStore, error) {
	tasks, err := repo.LoadTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &TaskStore{repo: repo, tasks: tasks, now: now}, nil
}

// Subscribe registers a listener for completion events.
func (s *TaskStore) Subscribe(l CompletionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// List returns a copy of every task in insertion order, archived included.
func (s *TaskStore) List() []storage.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// Get returns nil when id is unknown.
func (s *TaskStore) Get(id string) *storage.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	t := cloneTask(s.tasks[i])
	return &t
}

// Find resolves a full id or an unambiguous id prefix, as printed by the CLI.
func (s *TaskStore) Find(ref string) (*storage.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	var match *storage.Task
	for i := range s.tasks {
		if s.tasks[i].ID == ref {
			t := cloneTask(s.tasks[i])
			return &t, nil
		}
		if strings.HasPrefix(s.tasks[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("task id %q is ambiguous", ref)
			}
			t := cloneTask(s.tasks[i])
			match = &t
		}
	}
	return match, nil
}

func (s *TaskStore) AddTask(ctx context.Context, in TaskInput) (*storage.Task, error) {
	t := storage.Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      StatusTodo,
		Urgent:      cloneBool(in.Urgent),
		Important:   cloneBool(in.Important),
		DueDate:     in.DueDate,
		Context:     in.Context,
		MissionID:   in.MissionID,
		IsInbox:     in.IsInbox,
		CreatedAt:   s.now(),
	}
	for _, text := range in.Subtasks {
		t.Subtasks = append(t.Subtasks, storage.Subtask{ID: uuid.NewString(), Text: text})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	logger.Debug("task added", zap.String("id", t.ID), zap.Bool("inbox", t.IsInbox))
	out := cloneTask(t)
	return &out, nil
}

// UpdateTask shallow-merges patch. Unknown ids are a no-op (nil, nil).
func (s *TaskStore) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*storage.Task, error) {
	return s.mutate(ctx, id, func(t *storage.Task) { patch.apply(t) })
}

// Reclassify moves a task into the inbox or a quadrant in a single write, so no
// reader can observe it matching both the inbox and a quadrant.
func (s *TaskStore) Reclassify(ctx context.Context, id string, target Placement) (*storage.Task, error) {
	var patch TaskPatch
	if target == PlacementInbox {
		patch = TaskPatch{IsInbox: Ptr(true), Urgent: ClearFlag(), Important: ClearFlag()}
	} else {
		urgent, important, ok := target.Flags()
		if !ok {
			return nil, InvalidTargetError{Target: string(target)}
		}
		patch = TaskPatch{IsInbox: Ptr(false), Urgent: SetFlag(urgent), Important: SetFlag(important)}
	}
	return s.UpdateTask(ctx, id, patch)
}

// DeleteTask archives the task; the record is kept.
func (s *TaskStore) DeleteTask(ctx context.Context, id string) (*storage.Task, error) {
	return s.mutate(ctx, id, func(t *storage.Task) { t.IsArchived = true })
}

func (s *TaskStore) UnarchiveTask(ctx context.Context, id string) (*storage.Task, error) {
	return s.mutate(ctx, id, func(t *storage.Task) { t.IsArchived = false })
}

// DeletePermanently removes the record. It reports whether anything was removed.
func (s *TaskStore) DeletePermanently(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	if err := s.persist(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleResult describes a status flip.
type ToggleResult struct {
	Task      storage.Task
	Completed bool        // true for todo->done
	Gain      *GainResult // set when a listener granted XP
}

// ToggleTaskStatus flips todo/done. The done transition stamps completedAt and
// notifies every listener exactly once; reverting clears completedAt and
// emits nothing. Unknown ids return (nil, nil).
//
// The flip is committed before listeners run, so a listener failure returns
// the result together with the error.
func (s *TaskStore) ToggleTaskStatus(ctx context.Context, id string) (*ToggleResult, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, nil
	}
	t := &s.tasks[i]
	now := s.now()
	completed := t.Status != StatusDone
	if completed {
		t.Status = StatusDone
		t.CompletedAt = &now
	} else {
		t.Status = StatusTodo
		t.CompletedAt = nil
	}
	snapshot := cloneTask(*t)
	listeners := append([]CompletionListener(nil), s.listeners...)
	err := s.persist(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	res := &ToggleResult{Task: snapshot, Completed: completed}
	if !completed {
		return res, nil
	}
	ev := CompletionEvent{Task: snapshot, At: now}
	var errs []error
	for _, l := range listeners {
		gain, err := l(ctx, ev)
		if err != nil {
			logger.Error("completion listener", err, zap.String("task", taskLabel(snapshot)))
			errs = append(errs, err)
			continue
		}
		if gain != nil {
			res.Gain = gain
		}
	}
	if err := errors.Join(errs...); err != nil {
		return res, fmt.Errorf("completion listener: %w", err)
	}
	return res, nil
}

func (s *TaskStore) AddSubtask(ctx context.Context, id string, text string) (*storage.Task, error) {
	return s.mutate(ctx, id, func(t *storage.Task) {
		t.Subtasks = append(t.Subtasks, storage.Subtask{ID: uuid.NewString(), Text: text})
	})
}

// ToggleSubtask flips a checklist item. It never changes the task status.
func (s *TaskStore) ToggleSubtask(ctx context.Context, id string, subtaskID string) (*storage.Task, error) {
	return s.mutate(ctx, id, func(t *storage.Task) {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				t.Subtasks[i].Completed = !t.Subtasks[i].Completed
				return
			}
		}
	})
}

func (s *TaskStore) RemoveSubtask(ctx context.Context, id string, subtaskID string) (*storage.Task, error) {
	return s.mutate(ctx, id, func(t *storage.Task) {
		kept := t.Subtasks[:0]
		for _, st := range t.Subtasks {
			if st.ID != subtaskID {
				kept = append(kept, st)
			}
		}
		t.Subtasks = kept
	})
}

// reload replaces the collection from the port, after an import.
func (s *TaskStore) reload(ctx context.Context) error {
	tasks, err := s.repo.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	return nil
}

func (s *TaskStore) mutate(ctx context.Context, id string, fn func(t *storage.Task)) (*storage.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		logger.Debug("task not found", zap.String("id", id))
		return nil, nil
	}
	fn(&s.tasks[i])
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	out := cloneTask(s.tasks[i])
	return &out, nil
}

// persist must be called with mu held.
func (s *TaskStore) persist(ctx context.Context) error {
	if err := s.repo.SaveTasks(ctx, s.tasks); err != nil {
		logger.Error("persist tasks", err, zap.Int("count", len(s.tasks)))
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (s *TaskStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
