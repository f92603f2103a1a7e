package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Private extended property keys carrying Compass ids on remote events.
const (
	propTaskID    = "compass_task_id"
	propMissionID = "compass_mission_id"
	propContext   = "compass_context"
)

// Google syncs events with one Google Calendar.
type Google struct {
	srv        *gcal.Service
	calendarID string
}

func NewGoogle(srv *gcal.Service, calendarID string) *Google {
	return &Google{srv: srv, calendarID: calendarID}
}

// DialGoogle builds the API service and resolves calendarName. "primary" is
// used as is; other names are looked up by summary.
func DialGoogle(ctx context.Context, client *http.Client, calendarName string) (*Google, error) {
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	if calendarName == "" || calendarName == "primary" {
		return NewGoogle(srv, "primary"), nil
	}

	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	for _, item := range list.Items {
		if item.Summary == calendarName {
			return NewGoogle(srv, item.Id), nil
		}
	}
	return nil, fmt.Errorf("calendar %q not found", calendarName)
}

// Push creates or updates the event for ev.TaskID and returns the remote id.
// A known ev.ID is patched; a stale one falls back to a lookup by task id.
func (g *Google) Push(ctx context.Context, ev Event) (string, error) {
	body := toGoogle(ev)

	if ev.ID != "" {
		updated, err := g.srv.Events.Patch(g.calendarID, ev.ID, body).Context(ctx).Do()
		if err == nil {
			return updated.Id, nil
		}
		if !isNotFound(err) {
			return "", fmt.Errorf("patch event: %w", err)
		}
	}

	existing, err := g.findByTask(ctx, ev.TaskID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		updated, err := g.srv.Events.Patch(g.calendarID, existing.Id, body).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("patch event: %w", err)
		}
		return updated.Id, nil
	}

	created, err := g.srv.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

// List returns single events starting in [from, to).
func (g *Google) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	res, err := g.srv.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		out = append(out, fromGoogle(item))
	}
	return out, nil
}

func (g *Google) Delete(ctx context.Context, eventID string) error {
	if err := g.srv.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil && !isNotFound(err) {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (g *Google) findByTask(ctx context.Context, taskID string) (*gcal.Event, error) {
	if taskID == "" {
		return nil, nil
	}
	res, err := g.srv.Events.List(g.calendarID).
		PrivateExtendedProperty(propTaskID + "=" + taskID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search event: %w", err)
	}
	if len(res.Items) > 0 {
		return res.Items[0], nil
	}
	return nil, nil
}

func toGoogle(ev Event) *gcal.Event {
	private := map[string]string{}
	if ev.TaskID != "" {
		private[propTaskID] = ev.TaskID
	}
	if ev.MissionID != "" {
		private[propMissionID] = ev.MissionID
	}
	if ev.Context != "" {
		private[propContext] = ev.Context
	}
	return &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.StartTime},
		End:         &gcal.EventDateTime{DateTime: ev.EndTime},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: private,
		},
	}
}

func fromGoogle(item *gcal.Event) Event {
	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
	}
	if item.Start != nil {
		ev.StartTime = eventTime(item.Start)
	}
	if item.End != nil {
		ev.EndTime = eventTime(item.End)
	}
	if item.ExtendedProperties != nil {
		p := item.ExtendedProperties.Private
		ev.TaskID = p[propTaskID]
		ev.MissionID = p[propMissionID]
		ev.Context = p[propContext]
	}
	return ev
}

// eventTime normalizes all-day events (Date only) to local midnight RFC3339.
func eventTime(dt *gcal.EventDateTime) string {
	if dt.DateTime != "" {
		return dt.DateTime
	}
	d, err := time.ParseInLocation("2006-01-02", dt.Date, time.Local)
	if err != nil {
		return ""
	}
	return d.Format(time.RFC3339)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}
