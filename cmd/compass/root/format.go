package root

import (
	"fmt"
	"io"
	"strings"

	"compass/internal/engine"
	"compass/internal/storage"
	"compass/internal/ui"
)

// findTask resolves an id or printed id prefix.
func findTask(svc *engine.Service, ref string) (*storage.Task, error) {
	t, err := svc.Tasks().Find(ref)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %q not found", ref)
	}
	return t, nil
}

func taskLine(svc *engine.Service, t storage.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", ui.StatusIcon(t.Status), ui.Muted.Render(ui.ShortID(t.ID)), t.Title)

	if p := engine.Place(t, svc.Now()); p.IsQuadrant() {
		b.WriteString(" " + ui.QuadrantStyle(string(p)).Render("["+strings.ToUpper(string(p))+"]"))
	}
	if t.Context != "" {
		b.WriteString(" " + ui.Key.Render(t.Context))
	}
	if t.DueDate != "" {
		due := "due:" + t.DueDate
		if engine.IsOverdue(t, svc.Now()) {
			due = ui.Bad.Render(due)
		}
		b.WriteString(" " + due)
	}
	if len(t.Subtasks) > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		b.WriteString(ui.Muted.Render(fmt.Sprintf(" (%d/%d)", done, len(t.Subtasks))))
	}
	if a, ok := svc.Alignment(t); ok {
		b.WriteString(ui.Muted.Render(fmt.Sprintf(" → %s: %s", a.Kind, a.Text)))
	}
	return b.String()
}

func printTasks(w io.Writer, svc *engine.Service, tasks []storage.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, ui.Muted.Render("  (none)"))
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, "  "+taskLine(svc, t))
	}
}

func printTaskDetail(w io.Writer, svc *engine.Service, t storage.Task) {
	fmt.Fprintln(w, taskLine(svc, t))
	if t.Description != "" {
		fmt.Fprintln(w, ui.Muted.Render("  "+t.Description))
	}
	for _, st := range t.Subtasks {
		mark := "[ ]"
		if st.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(w, "  %s %s %s\n", mark, ui.Muted.Render(ui.ShortID(st.ID)), st.Text)
	}
}
