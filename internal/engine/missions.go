package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"compass/internal/logger"
	"compass/internal/storage"
)

// DeletePolicy decides what DeleteMission does with sub-missions.
type DeletePolicy string

const (
	// DeleteReject refuses to delete a mission that still has children.
	DeleteReject DeletePolicy = "reject"
	// DeleteOrphan removes only the node; children keep a dangling parentId.
	DeleteOrphan DeletePolicy = "orphan"
	// DeleteCascade removes the node and all of its descendants.
	DeleteCascade DeletePolicy = "cascade"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case DeleteReject, DeleteOrphan, DeleteCascade:
		return p, nil
	case "":
		return DeleteReject, nil
	default:
		return "", ValidationError{Field: "delete policy", Reason: fmt.Sprintf("unknown policy %q", s)}
	}
}

// MissionPort is the persistence contract of the mission store.
type MissionPort interface {
	LoadMissions(ctx context.Context) ([]storage.Mission, error)
	SaveMissions(ctx context.Context, missions []storage.Mission) error
	LoadVisions(ctx context.Context) ([]storage.Statement, error)
	SaveVisions(ctx context.Context, visions []storage.Statement) error
	LoadValues(ctx context.Context) ([]storage.Statement, error)
	SaveValues(ctx context.Context, values []storage.Statement) error
}

// AlignmentKind names what a task's missionId resolved to.
type AlignmentKind string

const (
	AlignMission AlignmentKind = "mission"
	AlignVision  AlignmentKind = "vision"
	AlignValue   AlignmentKind = "value"
)

type Alignment struct {
	Kind AlignmentKind
	ID   string
	Text string
}

// MissionStore owns missions (a parentId tree), visions and core values.
type MissionStore struct {
	mu       sync.Mutex
	repo     MissionPort
	policy   DeletePolicy
	now      func() time.Time
	missions []storage.Mission
	visions  []storage.Statement
	values   []storage.Statement
}

func NewMissionStore(ctx context.Context, repo MissionPort, policy DeletePolicy, now func() time.Time) (*MissionStore, error) {
	if now == nil {
		now = time.Now
	}
	if policy == "" {
		policy = DeleteReject
	}
	s := &MissionStore{repo: repo, policy: policy, now: now}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MissionStore) Policy() DeletePolicy {
	return s.policy
}

func (s *MissionStore) AddMission(ctx context.Context, text string, parentID *string) (*storage.Mission, error) {
	m := storage.Mission{
		ID:        uuid.NewString(),
		Text:      text,
		ParentID:  cloneString(parentID),
		Versions:  []storage.MissionVersion{},
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.missions = append(s.missions, m)
	if err := s.saveMissions(ctx); err != nil {
		return nil, err
	}
	out := cloneMission(m)
	return &out, nil
}

// UpdateMission appends the previous text to versions before overwriting,
// even when the text is unchanged. Unknown ids return (nil, nil).
func (s *MissionStore) UpdateMission(ctx context.Context, id string, text string) (*storage.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.missionIndex(id)
	if i < 0 {
		return nil, nil
	}
	now := s.now()
	m := &s.missions[i]
	m.Versions = append(m.Versions, storage.MissionVersion{Text: m.Text, Timestamp: now})
	m.Text = text
	m.UpdatedAt = &now

	if err := s.saveMissions(ctx); err != nil {
		return nil, err
	}
	out := cloneMission(*m)
	return &out, nil
}

// DeleteMission applies the store's DeletePolicy and returns the removed ids.
// Tasks that reference a removed mission are left as they are.
func (s *MissionStore) DeleteMission(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.missionIndex(id) < 0 {
		return nil, nil
	}

	remove := map[string]bool{id: true}
	switch s.policy {
	case DeleteReject:
		if n := len(s.children(id)); n > 0 {
			return nil, MissionHasChildrenError{ID: id, Children: n}
		}
	case DeleteCascade:
		stack := []string{id}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, c := range s.children(cur) {
				if !remove[c.ID] {
					remove[c.ID] = true
					stack = append(stack, c.ID)
				}
			}
		}
	case DeleteOrphan:
		if n := len(s.children(id)); n > 0 {
			logger.Warn("mission deleted with sub-missions; children orphaned",
				zap.String("id", id), zap.Int("children", n))
		}
	}

	var removed []string
	kept := s.missions[:0]
	for _, m := range s.missions {
		if remove[m.ID] {
			removed = append(removed, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	s.missions = kept

	if err := s.saveMissions(ctx); err != nil {
		return nil, err
	}
	return removed, nil
}

// Missions returns every mission in insertion order.
func (s *MissionStore) Missions() []storage.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMissions(s.missions)
}

func (s *MissionStore) Mission(id string) *storage.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.missionIndex(id)
	if i < 0 {
		return nil
	}
	m := cloneMission(s.missions[i])
	return &m
}

// RootMissions returns missions without a parentId.
func (s *MissionStore) RootMissions() []storage.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Mission
	for _, m := range s.missions {
		if m.ParentID == nil || *m.ParentID == "" {
			out = append(out, cloneMission(m))
		}
	}
	return out
}

// SubMissions returns the direct children of parentID.
func (s *MissionStore) SubMissions(parentID string) []storage.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMissions(s.children(parentID))
}

// OrphanedMissions returns missions whose parentId no longer resolves.
func (s *MissionStore) OrphanedMissions() []storage.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Mission
	for _, m := range s.missions {
		if m.ParentID != nil && *m.ParentID != "" && s.missionIndex(*m.ParentID) < 0 {
			out = append(out, cloneMission(m))
		}
	}
	return out
}

func (s *MissionStore) AddVision(ctx context.Context, text string) (*storage.Statement, error) {
	return s.addStatement(ctx, &s.visions, text, s.repo.SaveVisions)
}

func (s *MissionStore) UpdateVision(ctx context.Context, id string, text string) (*storage.Statement, error) {
	return s.updateStatement(ctx, &s.visions, id, text, s.repo.SaveVisions)
}

func (s *MissionStore) DeleteVision(ctx context.Context, id string) (bool, error) {
	return s.deleteStatement(ctx, &s.visions, id, s.repo.SaveVisions)
}

func (s *MissionStore) Visions() []storage.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Statement(nil), s.visions...)
}

func (s *MissionStore) AddValue(ctx context.Context, text string) (*storage.Statement, error) {
	return s.addStatement(ctx, &s.values, text, s.repo.SaveValues)
}

func (s *MissionStore) UpdateValue(ctx context.Context, id string, text string) (*storage.Statement, error) {
	return s.updateStatement(ctx, &s.values, id, text, s.repo.SaveValues)
}

func (s *MissionStore) DeleteValue(ctx context.Context, id string) (bool, error) {
	return s.deleteStatement(ctx, &s.values, id, s.repo.SaveValues)
}

func (s *MissionStore) Values() []storage.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Statement(nil), s.values...)
}

// Resolve looks id up across missions, visions and values. A miss is the
// "unlinked" state and not an error.
func (s *MissionStore) Resolve(id string) (Alignment, bool) {
	if id == "" {
		return Alignment{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.missionIndex(id); i >= 0 {
		return Alignment{Kind: AlignMission, ID: id, Text: s.missions[i].Text}, true
	}
	for _, v := range s.visions {
		if v.ID == id {
			return Alignment{Kind: AlignVision, ID: id, Text: v.Text}, true
		}
	}
	for _, v := range s.values {
		if v.ID == id {
			return Alignment{Kind: AlignValue, ID: id, Text: v.Text}, true
		}
	}
	return Alignment{}, false
}

// FindID resolves a full id or unique prefix across all three lists.
func (s *MissionStore) FindID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, m := range s.missions {
		ids = append(ids, m.ID)
	}
	for _, v := range s.visions {
		ids = append(ids, v.ID)
	}
	for _, v := range s.values {
		ids = append(ids, v.ID)
	}

	match := ""
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("id %q is ambiguous", ref)
			}
			match = id
		}
	}
	return match, nil
}

func (s *MissionStore) reload(ctx context.Context) error {
	missions, err := s.repo.LoadMissions(ctx)
	if err != nil {
		return fmt.Errorf("load missions: %w", err)
	}
	visions, err := s.repo.LoadVisions(ctx)
	if err != nil {
		return fmt.Errorf("load visions: %w", err)
	}
	values, err := s.repo.LoadValues(ctx)
	if err != nil {
		return fmt.Errorf("load values: %w", err)
	}
	s.mu.Lock()
	s.missions, s.visions, s.values = missions, visions, values
	s.mu.Unlock()
	return nil
}

func (s *MissionStore) addStatement(ctx context.Context, list *[]storage.Statement, text string, save func(context.Context, []storage.Statement) error) (*storage.Statement, error) {
	st := storage.Statement{ID: uuid.NewString(), Text: text, CreatedAt: s.now()}
	s.mu.Lock()
	defer s.mu.Unlock()
	*list = append(*list, st)
	if err := save(ctx, *list); err != nil {
		return nil, fmt.Errorf("save statements: %w", err)
	}
	return &st, nil
}

func (s *MissionStore) updateStatement(ctx context.Context, list *[]storage.Statement, id string, text string, save func(context.Context, []storage.Statement) error) (*storage.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range *list {
		st := &(*list)[i]
		if st.ID != id {
			continue
		}
		st.Text = text
		if err := save(ctx, *list); err != nil {
			return nil, fmt.Errorf("save statements: %w", err)
		}
		out := *st
		return &out, nil
	}
	return nil, nil
}

func (s *MissionStore) deleteStatement(ctx context.Context, list *[]storage.Statement, id string, save func(context.Context, []storage.Statement) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range *list {
		if (*list)[i].ID != id {
			continue
		}
		*list = append((*list)[:i], (*list)[i+1:]...)
		if err := save(ctx, *list); err != nil {
			return false, fmt.Errorf("save statements: %w", err)
		}
		return true, nil
	}
	return false, nil
}

func (s *MissionStore) children(parentID string) []storage.Mission {
	var out []storage.Mission
	for _, m := range s.missions {
		if m.ParentID != nil && *m.ParentID == parentID {
			out = append(out, m)
		}
	}
	return out
}

func (s *MissionStore) missionIndex(id string) int {
	for i := range s.missions {
		if s.missions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MissionStore) saveMissions(ctx context.Context) error {
	if err := s.repo.SaveMissions(ctx, s.missions); err != nil {
		logger.Error("persist missions", err)
		return fmt.Errorf("save missions: %w", err)
	}
	return nil
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMission(m storage.Mission) storage.Mission {
	out := m
	out.ParentID = cloneString(m.ParentID)
	out.Versions = append([]storage.MissionVersion{}, m.Versions...)
	if m.UpdatedAt != nil {
		v := *m.UpdatedAt
		out.UpdatedAt = &v
	}
	return out
}

func cloneMissions(in []storage.Mission) []storage.Mission {
	var out []storage.Mission
	for _, m := range in {
		out = append(out, cloneMission(m))
	}
	return out
}
