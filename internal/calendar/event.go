package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"compass/internal/storage"
)

const (
	// DefaultStartHour places date-only tasks in the morning.
	DefaultStartHour = 9
	DefaultDuration  = 30 * time.Minute
)

var ErrNoDueDate = errors.New("task has no usable due date")

// Event is the normalized calendar shape exchanged with sync backends.
// StartTime and EndTime are RFC3339.
type Event struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	MissionID   string `json:"missionId,omitempty"`
	TaskID      string `json:"taskId,omitempty"`
	Context     string `json:"context,omitempty"`
}

// Start parses StartTime; a malformed value yields the zero time.
func (e Event) Start() time.Time {
	t, _ := time.Parse(time.RFC3339, e.StartTime)
	return t
}

// EventFromTask converts a dated task. alignment is the resolved mission,
// vision or value text, empty when unlinked.
func EventFromTask(t storage.Task, alignment string, loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.Local
	}
	day, err := time.ParseInLocation("2006-01-02", t.DueDate, loc)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %s", ErrNoDueDate, t.ID)
	}
	start := day.Add(DefaultStartHour * time.Hour)
	end := start.Add(DefaultDuration)

	title := t.Title
	if t.Status == "done" {
		title = "✓ " + title
	}

	var desc strings.Builder
	if t.Description != "" {
		desc.WriteString(t.Description)
		desc.WriteString("\n\n")
	}
	fmt.Fprintf(&desc, "Status: %s\n", t.Status)
	if t.Context != "" {
		fmt.Fprintf(&desc, "Context: %s\n", t.Context)
	}
	if alignment != "" {
		fmt.Fprintf(&desc, "Aligned with: %s\n", alignment)
	}
	if len(t.Subtasks) > 0 {
		desc.WriteString("\nChecklist:\n")
		for _, st := range t.Subtasks {
			mark := "[ ]"
			if st.Completed {
				mark = "[x]"
			}
			fmt.Fprintf(&desc, "%s %s\n", mark, st.Text)
		}
	}

	return Event{
		ID:          t.CalendarEventID,
		Title:       title,
		Description: strings.TrimRight(desc.String(), "\n"),
		StartTime:   start.Format(time.RFC3339),
		EndTime:     end.Format(time.RFC3339),
		MissionID:   t.MissionID,
		TaskID:      t.ID,
		Context:     t.Context,
	}, nil
}
