package storage

import "context"

// MissionRepo persists missions, visions and core values, one slot each.
type MissionRepo struct {
	slots *Slots
}

func NewMissionRepo(slots *Slots) *MissionRepo {
	return &MissionRepo{slots: slots}
}

func (r *MissionRepo) LoadMissions(ctx context.Context) ([]Mission, error) {
	var out []Mission
	if _, err := r.slots.Load(ctx, SlotMissions, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MissionRepo) SaveMissions(ctx context.Context, missions []Mission) error {
	if missions == nil {
		missions = []Mission{}
	}
	return r.slots.Save(ctx, SlotMissions, missions)
}

func (r *MissionRepo) LoadVisions(ctx context.Context) ([]Statement, error) {
	return r.loadStatements(ctx, SlotVisions)
}

func (r *MissionRepo) SaveVisions(ctx context.Context, visions []Statement) error {
	return r.saveStatements(ctx, SlotVisions, visions)
}

func (r *MissionRepo) LoadValues(ctx context.Context) ([]Statement, error) {
	return r.loadStatements(ctx, SlotValues)
}

func (r *MissionRepo) SaveValues(ctx context.Context, values []Statement) error {
	return r.saveStatements(ctx, SlotValues, values)
}

func (r *MissionRepo) loadStatements(ctx context.Context, slot string) ([]Statement, error) {
	var out []Statement
	if _, err := r.slots.Load(ctx, slot, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MissionRepo) saveStatements(ctx context.Context, slot string, list []Statement) error {
	if list == nil {
		list = []Statement{}
	}
	return r.slots.Save(ctx, slot, list)
}
