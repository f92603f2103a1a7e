package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"compass/internal/engine"
	"compass/internal/storage"
)

type taskResponse struct {
	storage.Task
	Placement engine.Placement   `json:"placement"`
	Alignment *alignmentResponse `json:"alignment,omitempty"`
}

type alignmentResponse struct {
	Kind engine.AlignmentKind `json:"kind"`
	ID   string               `json:"id"`
	Text string               `json:"text"`
}

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Urgent      *bool    `json:"urgent"`
	Important   *bool    `json:"important"`
	DueDate     string   `json:"dueDate"`
	Context     string   `json:"context"`
	MissionID   string   `json:"missionId"`
	Subtasks    []string `json:"subtasks"`
}

func (r createTaskRequest) input() engine.TaskInput {
	return engine.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Urgent:      r.Urgent,
		Important:   r.Important,
		DueDate:     r.DueDate,
		Context:     r.Context,
		MissionID:   r.MissionID,
		Subtasks:    r.Subtasks,
	}
}

type moveRequest struct {
	Target string `json:"target"`
}

type textRequest struct {
	Text string `json:"text"`
}

type missionRequest struct {
	Text     string  `json:"text"`
	ParentID *string `json:"parentId"`
}

type contextRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type toggleResponse struct {
	Task        taskResponse `json:"task"`
	Completed   bool         `json:"completed"`
	XPAwarded   int          `json:"xpAwarded"`
	LevelBefore int          `json:"levelBefore"`
	LevelAfter  int          `json:"levelAfter"`
	LevelUp     bool         `json:"levelUp"`
	Warning     string       `json:"warning,omitempty"`
}

type matrixResponse struct {
	Q1 []taskResponse `json:"q1"`
	Q2 []taskResponse `json:"q2"`
	Q3 []taskResponse `json:"q3"`
	Q4 []taskResponse `json:"q4"`
}

type notificationsResponse struct {
	Overdue      []taskResponse `json:"overdue"`
	DueToday     []taskResponse `json:"dueToday"`
	DueTomorrow  []taskResponse `json:"dueTomorrow"`
	InboxPending int            `json:"inboxPending"`
	Total        int            `json:"total"`
}

type statsResponse struct {
	Total          int            `json:"total"`
	Open           int            `json:"open"`
	Done           int            `json:"done"`
	Inbox          int            `json:"inbox"`
	Archived       int            `json:"archived"`
	Overdue        int            `json:"overdue"`
	DoneLast7Days  int            `json:"doneLast7Days"`
	CompletionRate float64        `json:"completionRate"`
	ByQuadrant     map[string]int `json:"byQuadrant"`
	ByMission      map[string]int `json:"byMission"`
	Unaligned      int            `json:"unaligned"`
}

func toStatsResponse(s engine.Stats) statsResponse {
	byQ := make(map[string]int, len(s.ByQuadrant))
	for q, n := range s.ByQuadrant {
		byQ[string(q)] = n
	}
	return statsResponse{
		Total:          s.Total,
		Open:           s.Open,
		Done:           s.Done,
		Inbox:          s.Inbox,
		Archived:       s.Archived,
		Overdue:        s.Overdue,
		DoneLast7Days:  s.DoneLast7Days,
		CompletionRate: s.CompletionRate,
		ByQuadrant:     byQ,
		ByMission:      s.ByMission,
		Unaligned:      s.Unaligned,
	}
}

type xpResponse struct {
	XP         int               `json:"xp"`
	Level      int               `json:"level"`
	Current    int               `json:"current"`
	Required   int               `json:"required"`
	Percentage float64           `json:"percentage"`
	History    []storage.XPEntry `json:"history"`
}

type achievementResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Earned      bool   `json:"earned"`
}

// patchFields lists what PATCH /tasks/{id} may change. Classification goes
// through /move so inbox and quadrant flags change together.
var patchFields = map[string]bool{
	"title":       true,
	"description": true,
	"dueDate":     true,
	"context":     true,
	"missionId":   true,
}

// parsePatch builds a TaskPatch from a JSON object. A null or "" clears the
// optional string fields; title cannot be cleared.
func parsePatch(raw map[string]json.RawMessage) (engine.TaskPatch, error) {
	var p engine.TaskPatch
	for key := range raw {
		if !patchFields[key] {
			return p, engine.ValidationError{Field: key, Reason: "not patchable"}
		}
	}
	str := func(key string) (*string, error) {
		v, ok := raw[key]
		if !ok {
			return nil, nil
		}
		var s *string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, engine.ValidationError{Field: key, Reason: "must be a string"}
		}
		if s == nil {
			return engine.Ptr(""), nil
		}
		return s, nil
	}

	var err error
	if p.Title, err = str("title"); err != nil {
		return p, err
	}
	if p.Title != nil {
		t, err := engine.NormalizeTitle(*p.Title)
		if err != nil {
			return p, err
		}
		p.Title = &t
	}
	if p.Description, err = str("description"); err != nil {
		return p, err
	}
	if p.DueDate, err = str("dueDate"); err != nil {
		return p, err
	}
	if p.DueDate != nil {
		d, err := engine.NormalizeDueDate(*p.DueDate)
		if err != nil {
			return p, err
		}
		p.DueDate = &d
	}
	if p.Context, err = str("context"); err != nil {
		return p, err
	}
	if p.Context != nil && strings.TrimSpace(*p.Context) != "" {
		c, err := engine.NormalizeContextName(*p.Context)
		if err != nil {
			return p, err
		}
		p.Context = &c
	}
	if p.MissionID, err = str("missionId"); err != nil {
		return p, err
	}
	return p, nil
}

func parseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	d, ok := engine.ParseDueDate(s)
	if !ok {
		return time.Time{}, engine.ValidationError{Field: "day", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", s)}
	}
	return d, nil
}
