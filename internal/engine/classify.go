package engine

import (
	"time"

	"compass/internal/storage"
)

// MatrixRetention is how long a done task stays visible in its quadrant.
const MatrixRetention = 24 * time.Hour

// DateLayout is the due date format. Comparisons against it are plain string
// equality, so calendar buckets do not depend on the local zone.
const DateLayout = "2006-01-02"

// InInbox reports GTD inbox membership.
func InInbox(t storage.Task) bool {
	return !t.IsArchived &&
		t.Status != StatusDone &&
		t.Urgent == nil &&
		t.Important == nil &&
		t.IsInbox
}

// IsClassified reports whether urgency and importance have been assigned.
func IsClassified(t storage.Task) bool {
	return !t.IsInbox && t.Urgent != nil && t.Important != nil
}

// QuadrantOf returns the quadrant of a classified, non-archived task. It does
// not look at status; see VisibleInMatrix for the done-task window.
func QuadrantOf(t storage.Task) (Placement, bool) {
	if t.IsArchived || !IsClassified(t) {
		return "", false
	}
	switch u, i := *t.Urgent, *t.Important; {
	case u && i:
		return PlacementQ1, true
	case i:
		return PlacementQ2, true
	case u:
		return PlacementQ3, true
	default:
		return PlacementQ4, true
	}
}

// VisibleInMatrix applies the done-task window: open tasks always show, done
// tasks show for MatrixRetention after completion.
func VisibleInMatrix(t storage.Task, now time.Time) bool {
	if t.Status != StatusDone {
		return true
	}
	if t.CompletedAt == nil {
		return false
	}
	return now.Sub(*t.CompletedAt) < MatrixRetention
}

// Place returns the one view a task belongs to, checking archived, then inbox,
// then the urgent/important pair.
func Place(t storage.Task, now time.Time) Placement {
	if t.IsArchived {
		return PlacementArchived
	}
	if InInbox(t) {
		return PlacementInbox
	}
	if q, ok := QuadrantOf(t); ok && VisibleInMatrix(t, now) {
		return q
	}
	return PlacementHidden
}

// Inbox returns inbox tasks in insertion order.
func Inbox(tasks []storage.Task) []storage.Task {
	return filter(tasks, InInbox)
}

// Archived returns archived tasks in insertion order.
func Archived(tasks []storage.Task) []storage.Task {
	return filter(tasks, func(t storage.Task) bool { return t.IsArchived })
}

// MatrixView holds the four quadrant buckets.
type MatrixView struct {
	Q1 []storage.Task
	Q2 []storage.Task
	Q3 []storage.Task
	Q4 []storage.Task
}

// Bucket returns the tasks of quadrant q.
func (m MatrixView) Bucket(q Placement) []storage.Task {
	switch q {
	case PlacementQ1:
		return m.Q1
	case PlacementQ2:
		return m.Q2
	case PlacementQ3:
		return m.Q3
	case PlacementQ4:
		return m.Q4
	default:
		return nil
	}
}

func (m MatrixView) Len() int {
	return len(m.Q1) + len(m.Q2) + len(m.Q3) + len(m.Q4)
}

// Matrix buckets every visible classified task.
func Matrix(tasks []storage.Task, now time.Time) MatrixView {
	var m MatrixView
	for _, t := range tasks {
		switch Place(t, now) {
		case PlacementQ1:
			m.Q1 = append(m.Q1, t)
		case PlacementQ2:
			m.Q2 = append(m.Q2, t)
		case PlacementQ3:
			m.Q3 = append(m.Q3, t)
		case PlacementQ4:
			m.Q4 = append(m.Q4, t)
		}
	}
	return m
}

// DayKey formats t's calendar date in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// CalendarDay returns non-archived tasks due on day.
func CalendarDay(tasks []storage.Task, day time.Time) []storage.Task {
	return CalendarDayKey(tasks, DayKey(day))
}

// CalendarDayKey matches dueDate against a YYYY-MM-DD key verbatim. Malformed
// due dates never equal a key and drop out.
func CalendarDayKey(tasks []storage.Task, key string) []storage.Task {
	return filter(tasks, func(t storage.Task) bool {
		return !t.IsArchived && t.DueDate != "" && t.DueDate == key
	})
}

// Month maps each day key of the month to its due tasks. Days without tasks
// are present with a nil slice so callers can render a full grid.
func Month(tasks []storage.Task, year int, month time.Month) map[string][]storage.Task {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	out := map[string][]storage.Task{}
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		out[DayKey(d)] = nil
	}
	for _, t := range tasks {
		if t.IsArchived {
			continue
		}
		if _, ok := out[t.DueDate]; ok {
			out[t.DueDate] = append(out[t.DueDate], t)
		}
	}
	return out
}

// ParseDueDate parses a YYYY-MM-DD due date as local midnight.
func ParseDueDate(s string) (time.Time, bool) {
	d, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsOverdue reports an open, non-archived task due before today.
func IsOverdue(t storage.Task, now time.Time) bool {
	if t.Status == StatusDone || t.IsArchived {
		return false
	}
	due, ok := ParseDueDate(t.DueDate)
	if !ok {
		return false
	}
	return due.Before(Midnight(now.In(time.Local)))
}

// Notifications is the read-only triage summary.
type Notifications struct {
	Overdue      []storage.Task
	DueToday     []storage.Task
	DueTomorrow  []storage.Task
	InboxPending int
}

func (n Notifications) Total() int {
	return len(n.Overdue) + len(n.DueToday) + len(n.DueTomorrow) + n.InboxPending
}

// Triage buckets open, non-archived tasks by due date relative to now.
func Triage(tasks []storage.Task, now time.Time) Notifications {
	today := Midnight(now.In(time.Local))
	tomorrow := today.AddDate(0, 0, 1)

	var n Notifications
	for _, t := range tasks {
		if InInbox(t) {
			n.InboxPending++
		}
		if t.Status == StatusDone || t.IsArchived {
			continue
		}
		due, ok := ParseDueDate(t.DueDate)
		if !ok {
			continue
		}
		switch {
		case due.Before(today):
			n.Overdue = append(n.Overdue, t)
		case due.Equal(today):
			n.DueToday = append(n.DueToday, t)
		case due.Equal(tomorrow):
			n.DueTomorrow = append(n.DueTomorrow, t)
		}
	}
	return n
}

// ByContext returns open, non-archived tasks tagged with the context name.
func ByContext(tasks []storage.Task, name string) []storage.Task {
	return filter(tasks, func(t storage.Task) bool {
		return !t.IsArchived && t.Status != StatusDone && t.Context == name
	})
}

func filter(tasks []storage.Task, keep func(storage.Task) bool) []storage.Task {
	var out []storage.Task
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
