package engine

import (
	"fmt"
	"strings"

	"compass/internal/storage"
)

const (
	StatusTodo = "todo"
	StatusDone = "done"
)

// Placement names the single view a task belongs to at a given instant.
type Placement string

const (
	PlacementInbox    Placement = "inbox"
	PlacementQ1       Placement = "q1" // urgent and important
	PlacementQ2       Placement = "q2" // important, not urgent
	PlacementQ3       Placement = "q3" // urgent, not important
	PlacementQ4       Placement = "q4" // neither
	PlacementArchived Placement = "archived"
	// PlacementHidden covers done tasks past the matrix window and records that
	// satisfy no view predicate.
	PlacementHidden Placement = "hidden"
)

// Quadrants lists the matrix quadrants in display order.
var Quadrants = []Placement{PlacementQ1, PlacementQ2, PlacementQ3, PlacementQ4}

func (p Placement) IsQuadrant() bool {
	switch p {
	case PlacementQ1, PlacementQ2, PlacementQ3, PlacementQ4:
		return true
	default:
		return false
	}
}

// Label is the Covey name of a quadrant.
func (p Placement) Label() string {
	switch p {
	case PlacementQ1:
		return "Do first"
	case PlacementQ2:
		return "Schedule"
	case PlacementQ3:
		return "Delegate"
	case PlacementQ4:
		return "Eliminate"
	case PlacementInbox:
		return "Inbox"
	case PlacementArchived:
		return "Archived"
	default:
		return "Hidden"
	}
}

// Flags returns the urgent/important pair a quadrant stands for.
func (p Placement) Flags() (urgent bool, important bool, ok bool) {
	switch p {
	case PlacementQ1:
		return true, true, true
	case PlacementQ2:
		return false, true, true
	case PlacementQ3:
		return true, false, true
	case PlacementQ4:
		return false, false, true
	default:
		return false, false, false
	}
}

// ParseTarget parses a reclassification target: inbox, q1..q4 or the quadrant
// verbs (do, schedule, delegate, eliminate).
func ParseTarget(input string) (Placement, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "inbox", "i", "0":
		return PlacementInbox, nil
	case "q1", "1", "do":
		return PlacementQ1, nil
	case "q2", "2", "schedule":
		return PlacementQ2, nil
	case "q3", "3", "delegate":
		return PlacementQ3, nil
	case "q4", "4", "eliminate":
		return PlacementQ4, nil
	default:
		return "", InvalidTargetError{Target: input}
	}
}

// TaskInput carries caller-supplied fields for AddTask. The store merges them
// as given; keeping inbox tasks free of urgent/important is the caller's job.
type TaskInput struct {
	Title       string
	Description string
	Urgent      *bool
	Important   *bool
	DueDate     string
	Context     string
	MissionID   string
	IsInbox     bool
	Subtasks    []string
}

// InboxInput is the GTD capture shape: title only, unprocessed.
func InboxInput(title string) TaskInput {
	return TaskInput{Title: title, IsInbox: true}
}

// Flag is a patch value for a tri-state boolean. The zero value leaves the
// field alone; Set with a nil Value clears it.
type Flag struct {
	Set   bool
	Value *bool
}

func SetFlag(v bool) Flag { return Flag{Set: true, Value: &v} }
func ClearFlag() Flag     { return Flag{Set: true} }

// TaskPatch is a shallow merge. Nil pointers leave fields untouched; an empty
// string clears the optional string fields. Status and completedAt are owned
// by ToggleTaskStatus.
type TaskPatch struct {
	Title           *string
	Description     *string
	Urgent          Flag
	Important       Flag
	DueDate         *string
	Context         *string
	MissionID       *string
	IsInbox         *bool
	IsArchived      *bool
	CalendarEventID *string
}

func (p TaskPatch) apply(t *storage.Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Urgent.Set {
		t.Urgent = cloneBool(p.Urgent.Value)
	}
	if p.Important.Set {
		t.Important = cloneBool(p.Important.Value)
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Context != nil {
		t.Context = *p.Context
	}
	if p.MissionID != nil {
		t.MissionID = *p.MissionID
	}
	if p.IsInbox != nil {
		t.IsInbox = *p.IsInbox
	}
	if p.IsArchived != nil {
		t.IsArchived = *p.IsArchived
	}
	if p.CalendarEventID != nil {
		t.CalendarEventID = *p.CalendarEventID
	}
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneTask(t storage.Task) storage.Task {
	out := t
	out.Urgent = cloneBool(t.Urgent)
	out.Important = cloneBool(t.Important)
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		out.CompletedAt = &v
	}
	if t.Subtasks != nil {
		out.Subtasks = append([]storage.Subtask(nil), t.Subtasks...)
	}
	return out
}

func cloneTasks(in []storage.Task) []storage.Task {
	out := make([]storage.Task, len(in))
	for i := range in {
		out[i] = cloneTask(in[i])
	}
	return out
}

func taskLabel(t storage.Task) string {
	return fmt.Sprintf("%q (%s)", t.Title, shortID(t.ID))
}

// shortID is the display prefix of a uuid.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
