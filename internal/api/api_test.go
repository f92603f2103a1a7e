package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/internal/engine"
	"compass/internal/storage"
)

type testAPI struct {
	t   *testing.T
	svc *engine.Service
	srv *httptest.Server
}

func newTestAPI(t *testing.T, policy engine.DeletePolicy) *testAPI {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local)
	svc, err := engine.NewService(ctx, db, engine.Options{
		Now:          func() time.Time { return now },
		DeletePolicy: policy,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(svc))
	t.Cleanup(srv.Close)
	return &testAPI{t: t, svc: svc, srv: srv}
}

func (a *testAPI) do(method, path string, body any, out any) int {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthCarriesRequestID(t *testing.T) {
	a := newTestAPI(t, "")
	resp, err := http.Get(a.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCaptureMoveToggleFlow(t *testing.T) {
	a := newTestAPI(t, "")

	var created taskResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/tasks", map[string]any{"title": "Pay rent"}, &created))
	assert.Equal(t, engine.PlacementInbox, created.Placement)
	assert.True(t, created.IsInbox)

	var inbox []taskResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/views/inbox", nil, &inbox))
	require.Len(t, inbox, 1)

	var moved taskResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/tasks/"+created.ID+"/move", moveRequest{Target: "q1"}, &moved))
	assert.Equal(t, engine.PlacementQ1, moved.Placement)
	assert.False(t, moved.IsInbox)

	var toggled toggleResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/tasks/"+created.ID+"/toggle", nil, &toggled))
	assert.True(t, toggled.Completed)
	assert.Equal(t, engine.TaskCompletionXP, toggled.XPAwarded)

	var xp xpResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/xp", nil, &xp))
	assert.Equal(t, 10, xp.XP)
	assert.Equal(t, 1, xp.Level)
	require.Len(t, xp.History, 1)
	assert.Equal(t, "task:Pay rent", xp.History[0].Source)

	var matrix matrixResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/views/matrix", nil, &matrix))
	require.Len(t, matrix.Q1, 1)
	assert.Empty(t, matrix.Q2)
}

func TestValidationAndNotFound(t *testing.T) {
	a := newTestAPI(t, "")

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/tasks", map[string]any{"title": "   "}, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/tasks", map[string]any{"title": "x", "dueDate": "15/03/2024"}, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/tasks", map[string]any{"title": "x", "urgent": true}, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/tasks/nope", nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/tasks/nope/toggle", nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/tasks/nope", nil, nil))

	var created taskResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/tasks", map[string]any{"title": "x"}, &created))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/tasks/"+created.ID+"/move", moveRequest{Target: "q9"}, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPatch, "/tasks/"+created.ID, map[string]any{"urgent": true}, nil))
}

func TestPatchTask(t *testing.T) {
	a := newTestAPI(t, "")
	var created taskResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/tasks", map[string]any{
		"title": "Write report", "urgent": false, "important": true, "context": "work",
	}, &created))
	assert.Equal(t, "@work", created.Context)
	assert.Equal(t, engine.PlacementQ2, created.Placement)

	var patched taskResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPatch, "/tasks/"+created.ID, map[string]any{
		"title": "Write Q1 report", "dueDate": "2024-03-15", "context": nil,
	}, &patched))
	assert.Equal(t, "Write Q1 report", patched.Title)
	assert.Equal(t, "2024-03-15", patched.DueDate)
	assert.Empty(t, patched.Context)

	var day []taskResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/views/calendar?day=2024-03-15", nil, &day))
	require.Len(t, day, 1)
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/views/calendar?day=2024-03-14", nil, &day))
	assert.Empty(t, day)
}

func TestArchiveAndPurge(t *testing.T) {
	a := newTestAPI(t, "")
	var created taskResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/tasks", map[string]any{"title": "Old"}, &created))

	var archived taskResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/tasks/"+created.ID+"/archive", nil, &archived))
	assert.Equal(t, engine.PlacementArchived, archived.Placement)

	var list []taskResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/tasks?view=archived", nil, &list))
	require.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/tasks/"+created.ID, nil, nil))
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/tasks", nil, &list))
	assert.Empty(t, list)
}

func TestMissionDeleteConflictUnderRejectPolicy(t *testing.T) {
	a := newTestAPI(t, engine.DeleteReject)

	var parent storage.Mission
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/missions", missionRequest{Text: "Be healthy"}, &parent))
	var child storage.Mission
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/missions", missionRequest{Text: "Run", ParentID: &parent.ID}, &child))

	assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, "/missions/"+parent.ID, nil, nil))

	var updated storage.Mission
	require.Equal(t, http.StatusOK, a.do(http.MethodPut, "/missions/"+parent.ID, textRequest{Text: "Be healthy and rested"}, &updated))
	require.Len(t, updated.Versions, 1)
	assert.Equal(t, "Be healthy", updated.Versions[0].Text)
}

func TestVisionsAndValues(t *testing.T) {
	a := newTestAPI(t, "")

	var vision storage.Statement
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/visions", textRequest{Text: "A calm home"}, &vision))
	var values []storage.Statement
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/values", nil, &values))
	assert.Empty(t, values)

	var task taskResponse
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/tasks", map[string]any{"title": "Declutter", "missionId": vision.ID}, &task))
	require.NotNil(t, task.Alignment)
	assert.Equal(t, engine.AlignVision, task.Alignment.Kind)

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/visions/"+vision.ID, nil, nil))
	var got taskResponse
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/tasks/"+task.ID, nil, &got))
	assert.Nil(t, got.Alignment)
	assert.Equal(t, vision.ID, got.MissionID)
}

func TestContextsSeeded(t *testing.T) {
	a := newTestAPI(t, "")
	var list []storage.Context
	require.Equal(t, http.StatusOK, a.do(http.MethodGet, "/contexts", nil, &list))
	assert.Len(t, list, 5)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/contexts", contextRequest{Name: "home"}, nil))
}
