package storage

import "context"

type ContextRepo struct {
	slots *Slots
}

func NewContextRepo(slots *Slots) *ContextRepo {
	return &ContextRepo{slots: slots}
}

// LoadContexts returns found=false when the slot was never written, so the
// caller can seed defaults on first run.
func (r *ContextRepo) LoadContexts(ctx context.Context) ([]Context, bool, error) {
	var out []Context
	found, err := r.slots.Load(ctx, SlotContexts, &out)
	if err != nil {
		return nil, false, err
	}
	return out, found, nil
}

func (r *ContextRepo) SaveContexts(ctx context.Context, contexts []Context) error {
	if contexts == nil {
		contexts = []Context{}
	}
	return r.slots.Save(ctx, SlotContexts, contexts)
}
