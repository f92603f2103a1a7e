package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"compass/internal/engine"
	"compass/internal/storage"
)

type Handler struct {
	svc *engine.Service
}

func NewHandler(svc *engine.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) toTask(t storage.Task) taskResponse {
	out := taskResponse{Task: t, Placement: engine.Place(t, h.svc.Now())}
	if a, ok := h.svc.Alignment(t); ok {
		out.Alignment = &alignmentResponse{Kind: a.Kind, ID: a.ID, Text: a.Text}
	}
	return out
}

func (h *Handler) toTasks(tasks []storage.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, h.toTask(t))
	}
	return out
}

// writeTask answers a store mutation: nil means the id was unknown.
func (h *Handler) writeTask(w http.ResponseWriter, r *http.Request, t *storage.Task, err error) {
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if t == nil {
		notFound(w, r, "task")
		return
	}
	writeJSON(w, http.StatusOK, h.toTask(*t))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListTasks serves GET /tasks?view=inbox|matrix|archived|all (default all).
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	switch view := r.URL.Query().Get("view"); view {
	case "", "all":
		writeJSON(w, http.StatusOK, h.toTasks(h.svc.Tasks().List()))
	case "inbox":
		h.Inbox(w, r)
	case "matrix":
		h.Matrix(w, r)
	case "archived", "archive":
		h.ArchivedView(w, r)
	default:
		writeError(w, r, http.StatusBadRequest, "validation_error", "unknown view "+view)
	}
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.svc.CreateTask(r.Context(), req.input())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toTask(*t))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	h.writeTask(w, r, h.svc.Tasks().Get(chi.URLParam(r, "id")), nil)
}

func (h *Handler) PatchTask(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if !decodeJSON(w, r, &raw) {
		return
	}
	patch, err := parsePatch(raw)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	t, err := h.svc.Tasks().UpdateTask(r.Context(), chi.URLParam(r, "id"), patch)
	h.writeTask(w, r, t, err)
}

func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ToggleTaskStatus(r.Context(), chi.URLParam(r, "id"))
	if res == nil {
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		notFound(w, r, "task")
		return
	}
	body := toggleResponse{
		Task:        h.toTask(res.Task),
		Completed:   res.Completed,
		XPAwarded:   res.XPAwarded,
		LevelBefore: res.LevelBefore,
		LevelAfter:  res.LevelAfter,
		LevelUp:     res.LevelUp,
	}
	// The flip is saved; only the ledger write failed.
	if err != nil {
		body.Warning = err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target, err := engine.ParseTarget(req.Target)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	t, err := h.svc.Tasks().Reclassify(r.Context(), chi.URLParam(r, "id"), target)
	h.writeTask(w, r, t, err)
}

func (h *Handler) ArchiveTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Tasks().DeleteTask(r.Context(), chi.URLParam(r, "id"))
	h.writeTask(w, r, t, err)
}

func (h *Handler) UnarchiveTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Tasks().UnarchiveTask(r.Context(), chi.URLParam(r, "id"))
	h.writeTask(w, r, t, err)
}

func (h *Handler) PurgeTask(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Tasks().DeletePermanently(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if !ok {
		notFound(w, r, "task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text, err := engine.NormalizeTitle(req.Text)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	t, err := h.svc.Tasks().AddSubtask(r.Context(), chi.URLParam(r, "id"), text)
	if err == nil && t != nil {
		writeJSON(w, http.StatusCreated, h.toTask(*t))
		return
	}
	h.writeTask(w, r, t, err)
}

func (h *Handler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Tasks().ToggleSubtask(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sid"))
	h.writeTask(w, r, t, err)
}

func (h *Handler) RemoveSubtask(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Tasks().RemoveSubtask(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "sid"))
	h.writeTask(w, r, t, err)
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.toTasks(h.svc.Inbox()))
}

func (h *Handler) Matrix(w http.ResponseWriter, r *http.Request) {
	m := h.svc.Matrix()
	writeJSON(w, http.StatusOK, matrixResponse{
		Q1: h.toTasks(m.Q1),
		Q2: h.toTasks(m.Q2),
		Q3: h.toTasks(m.Q3),
		Q4: h.toTasks(m.Q4),
	})
}

func (h *Handler) ArchivedView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.toTasks(h.svc.Archived()))
}

// CalendarDay serves GET /views/calendar?day=YYYY-MM-DD, defaulting to today.
func (h *Handler) CalendarDay(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r.URL.Query().Get("day"), h.svc.Now())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toTasks(h.svc.CalendarDay(day)))
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	n := h.svc.Notifications()
	writeJSON(w, http.StatusOK, notificationsResponse{
		Overdue:      h.toTasks(n.Overdue),
		DueToday:     h.toTasks(n.DueToday),
		DueTomorrow:  h.toTasks(n.DueTomorrow),
		InboxPending: n.InboxPending,
		Total:        n.Total(),
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStatsResponse(h.svc.Stats()))
}

func (h *Handler) XP(w http.ResponseWriter, r *http.Request) {
	l := h.svc.Ledger()
	xp := l.XP()
	p := engine.ProgressForXP(xp)
	writeJSON(w, http.StatusOK, xpResponse{
		XP:         xp,
		Level:      engine.LevelForXP(xp),
		Current:    p.Current,
		Required:   p.Required,
		Percentage: p.Percentage,
		History:    orEmpty(l.History()),
	})
}

func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	list := h.svc.Achievements()
	out := make([]achievementResponse, 0, len(list))
	for _, a := range list {
		out = append(out, achievementResponse{ID: a.ID, Name: a.Name, Description: a.Description, Icon: a.Icon, Earned: a.Earned})
	}
	writeJSON(w, http.StatusOK, out)
}
