package engine

import (
	"compass/internal/storage"
)

// Achievement is a badge derived from current state. Nothing is stored; a
// badge can be lost again, for example by purging done tasks.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Earned      bool
}

// AchievementChecker evaluates badges against a snapshot of the stores.
type AchievementChecker struct {
	xp       int
	tasks    []storage.Task
	missions []storage.Mission
	visions  []storage.Statement
	values   []storage.Statement
}

func NewAchievementChecker(xp int, tasks []storage.Task, missions []storage.Mission, visions, values []storage.Statement) *AchievementChecker {
	return &AchievementChecker{xp: xp, tasks: tasks, missions: missions, visions: visions, values: values}
}

func (c *AchievementChecker) GetAchievements() []Achievement {
	return []Achievement{
		c.levelAchievement("getting_started", "Getting Started", "Reach level 2", "🌱", 2),
		c.levelAchievement("steady_course", "Steady Course", "Reach level 5", "⛵", 5),
		c.levelAchievement("seasoned", "Seasoned", "Reach level 10", "⭐", 10),

		c.doneCountAchievement("first_task", "First Step", "Complete 1 task", "✓", 1),
		c.doneCountAchievement("productive", "Productive", "Complete 10 tasks", "📋", 10),
		c.doneCountAchievement("achiever", "Achiever", "Complete 50 tasks", "🏅", 50),

		c.quadrantAchievement("firefighter", "Firefighter", "Complete a Q1 task", "🔥", PlacementQ1),
		c.quadrantAchievement("planner", "Planner", "Complete a Q2 task", "🗓", PlacementQ2),

		c.inboxZeroAchievement(),
		c.compassAchievement(),
	}
}

func (c *AchievementChecker) CountEarned() int {
	count := 0
	for _, a := range c.GetAchievements() {
		if a.Earned {
			count++
		}
	}
	return count
}

func (c *AchievementChecker) CountTotal() int {
	return len(c.GetAchievements())
}

func (c *AchievementChecker) levelAchievement(id, name, desc, icon string, level int) Achievement {
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: LevelForXP(c.xp) >= level}
}

func (c *AchievementChecker) doneCountAchievement(id, name, desc, icon string, count int) Achievement {
	done := 0
	for _, t := range c.tasks {
		if t.Status == StatusDone {
			done++
		}
	}
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: done >= count}
}

func (c *AchievementChecker) quadrantAchievement(id, name, desc, icon string, q Placement) Achievement {
	earned := false
	for _, t := range c.tasks {
		if got, ok := QuadrantOf(t); ok && got == q && t.Status == StatusDone {
			earned = true
			break
		}
	}
	return Achievement{ID: id, Name: name, Description: desc, Icon: icon, Earned: earned}
}

// Inbox zero needs at least one processed task, so an empty database does
// not earn it.
func (c *AchievementChecker) inboxZeroAchievement() Achievement {
	processed := false
	for _, t := range c.tasks {
		if InInbox(t) {
			return Achievement{ID: "inbox_zero", Name: "Inbox Zero", Description: "Empty the inbox", Icon: "📭"}
		}
		if !t.IsInbox {
			processed = true
		}
	}
	return Achievement{ID: "inbox_zero", Name: "Inbox Zero", Description: "Empty the inbox", Icon: "📭", Earned: processed}
}

func (c *AchievementChecker) compassAchievement() Achievement {
	earned := len(c.missions) > 0 && len(c.visions) > 0 && len(c.values) > 0
	return Achievement{ID: "true_north", Name: "True North", Description: "Write a mission, a vision and a value", Icon: "🧭", Earned: earned}
}

// Achievements evaluates badges for the service's current state.
func (s *Service) Achievements() []Achievement {
	return NewAchievementChecker(
		s.ledger.XP(),
		s.tasks.List(),
		s.missions.Missions(),
		s.missions.Visions(),
		s.missions.Values(),
	).GetAchievements()
}
