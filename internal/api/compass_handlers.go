package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"compass/internal/engine"
	"compass/internal/storage"
)

func (h *Handler) ListMissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(h.svc.Missions().Missions()))
}

func (h *Handler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var req missionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text, err := engine.NormalizeTitle(req.Text)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	m, err := h.svc.Missions().AddMission(r.Context(), text, req.ParentID)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) UpdateMission(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text, err := engine.NormalizeTitle(req.Text)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	m, err := h.svc.Missions().UpdateMission(r.Context(), chi.URLParam(r, "id"), text)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if m == nil {
		notFound(w, r, "mission")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMission(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.DeleteMission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if len(removed) == 0 {
		notFound(w, r, "mission")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"removed": removed})
}

// statementHandlers serves the vision and value lists, which share a shape.
type statementHandlers struct {
	kind   string
	list   func() []storage.Statement
	add    func(r *http.Request, text string) (*storage.Statement, error)
	update func(r *http.Request, id, text string) (*storage.Statement, error)
	remove func(r *http.Request, id string) (bool, error)
}

func (h *Handler) visions() statementHandlers {
	ms := h.svc.Missions()
	return statementHandlers{
		kind: "vision",
		list: ms.Visions,
		add: func(r *http.Request, text string) (*storage.Statement, error) {
			return ms.AddVision(r.Context(), text)
		},
		update: func(r *http.Request, id, text string) (*storage.Statement, error) {
			return ms.UpdateVision(r.Context(), id, text)
		},
		remove: func(r *http.Request, id string) (bool, error) {
			return ms.DeleteVision(r.Context(), id)
		},
	}
}

func (h *Handler) values() statementHandlers {
	ms := h.svc.Missions()
	return statementHandlers{
		kind: "value",
		list: ms.Values,
		add: func(r *http.Request, text string) (*storage.Statement, error) {
			return ms.AddValue(r.Context(), text)
		},
		update: func(r *http.Request, id, text string) (*storage.Statement, error) {
			return ms.UpdateValue(r.Context(), id, text)
		},
		remove: func(r *http.Request, id string) (bool, error) {
			return ms.DeleteValue(r.Context(), id)
		},
	}
}

func (s statementHandlers) routes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, orEmpty(s.list()))
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var req textRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		text, err := engine.NormalizeTitle(req.Text)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		st, err := s.add(r, text)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, st)
	})
	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req textRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		text, err := engine.NormalizeTitle(req.Text)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		st, err := s.update(r, chi.URLParam(r, "id"), text)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		if st == nil {
			notFound(w, r, s.kind)
			return
		}
		writeJSON(w, http.StatusOK, st)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.remove(r, chi.URLParam(r, "id"))
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		if !ok {
			notFound(w, r, s.kind)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (h *Handler) ListContexts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(h.svc.Contexts().List()))
}

func (h *Handler) CreateContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.Contexts().Add(r.Context(), req.Name, req.Icon)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) RenameContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.svc.Contexts().Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if c == nil {
		notFound(w, r, "context")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteContext(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Contexts().Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if !ok {
		notFound(w, r, "context")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
