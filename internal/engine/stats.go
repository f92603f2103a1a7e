package engine

import (
	"time"

	"compass/internal/storage"
)

// Stats aggregates the task collection for the stats view.
type Stats struct {
	Total          int
	Open           int
	Done           int
	Inbox          int
	Archived       int
	Overdue        int
	DoneLast7Days  int
	CompletionRate float64 // Done / (Open + Done), 0 when empty
	ByQuadrant     map[Placement]int
	ByMission      map[string]int // open tasks per missionId
	Unaligned      int            // open tasks with no missionId
}

// ComputeStats counts archived tasks only in Archived and Total.
func ComputeStats(tasks []storage.Task, now time.Time) Stats {
	s := Stats{
		ByQuadrant: map[Placement]int{},
		ByMission:  map[string]int{},
	}
	weekAgo := now.Add(-7 * 24 * time.Hour)

	for _, t := range tasks {
		s.Total++
		if t.IsArchived {
			s.Archived++
			continue
		}
		if t.Status == StatusDone {
			s.Done++
			if t.CompletedAt != nil && !t.CompletedAt.Before(weekAgo) {
				s.DoneLast7Days++
			}
			continue
		}

		s.Open++
		if InInbox(t) {
			s.Inbox++
		}
		if q, ok := QuadrantOf(t); ok {
			s.ByQuadrant[q]++
		}
		if IsOverdue(t, now) {
			s.Overdue++
		}
		if t.MissionID == "" {
			s.Unaligned++
		} else {
			s.ByMission[t.MissionID]++
		}
	}

	if n := s.Open + s.Done; n > 0 {
		s.CompletionRate = float64(s.Done) / float64(n)
	}
	return s
}
