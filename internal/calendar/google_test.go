package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// fakeCalendar is an in-memory stand-in for the events endpoints.
type fakeCalendar struct {
	mu     sync.Mutex
	events map[string]*gcal.Event
	nextID int
	calls  []string
}

func newFakeCalendar(t *testing.T) (*fakeCalendar, *Google) {
	t.Helper()
	fc := &fakeCalendar{events: map[string]*gcal.Event{}}

	r := chi.NewRouter()
	r.Post("/calendars/{cal}/events", fc.insert)
	r.Patch("/calendars/{cal}/events/{id}", fc.patch)
	r.Get("/calendars/{cal}/events", fc.list)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	svc, err := gcal.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return fc, NewGoogle(svc, "primary")
}

func (f *fakeCalendar) insert(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "insert")
	var ev gcal.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.nextID++
	ev.Id = fmt.Sprintf("ev%d", f.nextID)
	f.events[ev.Id] = &ev
	_ = json.NewEncoder(w).Encode(ev)
}

func (f *fakeCalendar) patch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := chi.URLParam(r, "id")
	f.calls = append(f.calls, "patch:"+id)
	cur, ok := f.events[id]
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
		return
	}
	var ev gcal.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cur.Summary = ev.Summary
	cur.Description = ev.Description
	cur.Start, cur.End = ev.Start, ev.End
	_ = json.NewEncoder(w).Encode(cur)
}

func (f *fakeCalendar) list(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	want := r.URL.Query().Get("privateExtendedProperty")
	var items []*gcal.Event
	for _, ev := range f.events {
		if want != "" {
			if ev.ExtendedProperties == nil || propTaskID+"="+ev.ExtendedProperties.Private[propTaskID] != want {
				continue
			}
		}
		items = append(items, ev)
	}
	_ = json.NewEncoder(w).Encode(gcal.Events{Items: items})
}

func sampleEvent() Event {
	return Event{
		Title:       "Dentist",
		Description: "Status: todo",
		StartTime:   "2024-03-15T09:00:00Z",
		EndTime:     "2024-03-15T09:30:00Z",
		TaskID:      "task-1",
		MissionID:   "m1",
		Context:     "@errands",
	}
}

func TestGooglePushInsertsThenPatches(t *testing.T) {
	ctx := context.Background()
	fc, g := newFakeCalendar(t)

	id, err := g.Push(ctx, sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "ev1", id)

	ev := sampleEvent()
	ev.ID = id
	ev.Title = "✓ Dentist"
	again, err := g.Push(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, "✓ Dentist", fc.events[id].Summary)
	assert.Equal(t, []string{"list", "insert", "patch:ev1"}, fc.calls)
}

func TestGooglePushStaleIDFindsByTask(t *testing.T) {
	ctx := context.Background()
	fc, g := newFakeCalendar(t)

	id, err := g.Push(ctx, sampleEvent())
	require.NoError(t, err)

	ev := sampleEvent()
	ev.ID = "deleted-remotely"
	got, err := g.Push(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Len(t, fc.events, 1)
}

func TestGoogleList(t *testing.T) {
	ctx := context.Background()
	fc, g := newFakeCalendar(t)
	_, err := g.Push(ctx, sampleEvent())
	require.NoError(t, err)
	fc.events["allday"] = &gcal.Event{Id: "allday", Summary: "Holiday", Start: &gcal.EventDateTime{Date: "2024-03-16"}}

	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	events, err := g.List(ctx, from, from.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, events, 2)

	byID := map[string]Event{}
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	assert.Equal(t, "task-1", byID["ev1"].TaskID)
	assert.Equal(t, "@errands", byID["ev1"].Context)
	assert.Equal(t, 16, byID["allday"].Start().In(time.Local).Day())
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	require.NoError(t, SaveToken(path, tok))

	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
