package storage

import "time"

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Urgent      *bool      `json:"urgent,omitempty"`
	Important   *bool      `json:"important,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"` // YYYY-MM-DD, timezone-naive
	Context     string     `json:"context,omitempty"` // Context name, not id
	MissionID   string     `json:"missionId,omitempty"`
	IsInbox     bool       `json:"isInbox"`
	IsArchived  bool       `json:"isArchived"`
	Subtasks    []Subtask  `json:"subtasks,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	CalendarEventID string `json:"calendarEventId,omitempty"`
}

type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Mission struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	ParentID  *string          `json:"parentId"`
	Versions  []MissionVersion `json:"versions"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt *time.Time       `json:"updatedAt,omitempty"`
}

type MissionVersion struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Statement is a flat vision or core value entry.
type Statement struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Context struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type XPEntry struct {
	ID        string    `json:"id"`
	Amount    int       `json:"amount"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Progress is the gamification state spread over the xp, level and xp_history slots.
type Progress struct {
	XP      int
	Level   int
	History []XPEntry
}
