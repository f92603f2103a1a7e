package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"compass/internal/engine"
	"compass/internal/logger"
)

// NewRouter mounts every endpoint on a chi router.
func NewRouter(svc *engine.Service) chi.Router {
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging)

	r.Get("/health", h.Health)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Patch("/", h.PatchTask)
			r.Delete("/", h.PurgeTask)
			r.Post("/toggle", h.ToggleTask)
			r.Post("/move", h.MoveTask)
			r.Post("/archive", h.ArchiveTask)
			r.Post("/unarchive", h.UnarchiveTask)
			r.Post("/subtasks", h.AddSubtask)
			r.Post("/subtasks/{sid}/toggle", h.ToggleSubtask)
			r.Delete("/subtasks/{sid}", h.RemoveSubtask)
		})
	})

	r.Route("/views", func(r chi.Router) {
		r.Get("/inbox", h.Inbox)
		r.Get("/matrix", h.Matrix)
		r.Get("/archive", h.ArchivedView)
		r.Get("/calendar", h.CalendarDay)
		r.Get("/notifications", h.Notifications)
		r.Get("/stats", h.Stats)
	})

	r.Route("/missions", func(r chi.Router) {
		r.Get("/", h.ListMissions)
		r.Post("/", h.CreateMission)
		r.Put("/{id}", h.UpdateMission)
		r.Delete("/{id}", h.DeleteMission)
	})
	r.Route("/visions", h.visions().routes)
	r.Route("/values", h.values().routes)

	r.Route("/contexts", func(r chi.Router) {
		r.Get("/", h.ListContexts)
		r.Post("/", h.CreateContext)
		r.Put("/{id}", h.RenameContext)
		r.Delete("/{id}", h.DeleteContext)
	})

	r.Get("/xp", h.XP)
	r.Get("/achievements", h.Achievements)
	return r
}

// Serve runs the API on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, svc *engine.Service) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
