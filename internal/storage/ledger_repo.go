package storage

import "context"

// LedgerRepo persists XP progress across the xp, level and xp_history slots.
type LedgerRepo struct {
	slots *Slots
}

func NewLedgerRepo(slots *Slots) *LedgerRepo {
	return &LedgerRepo{slots: slots}
}

func (r *LedgerRepo) LoadProgress(ctx context.Context) (Progress, error) {
	p := Progress{Level: 1}
	if _, err := r.slots.Load(ctx, SlotXP, &p.XP); err != nil {
		return Progress{}, err
	}
	if _, err := r.slots.Load(ctx, SlotLevel, &p.Level); err != nil {
		return Progress{}, err
	}
	if _, err := r.slots.Load(ctx, SlotXPHistory, &p.History); err != nil {
		return Progress{}, err
	}
	return p, nil
}

// SaveProgress writes all three slots in one transaction.
func (r *LedgerRepo) SaveProgress(ctx context.Context, p Progress) error {
	history := p.History
	if history == nil {
		history = []XPEntry{}
	}
	return r.slots.SaveMany(ctx, map[string]any{
		SlotXP:        p.XP,
		SlotLevel:     p.Level,
		SlotXPHistory: history,
	})
}
