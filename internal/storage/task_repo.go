package storage

import "context"

// TaskRepo persists the task collection in the tasks slot.
type TaskRepo struct {
	slots *Slots
}

func NewTaskRepo(slots *Slots) *TaskRepo {
	return &TaskRepo{slots: slots}
}

func (r *TaskRepo) LoadTasks(ctx context.Context) ([]Task, error) {
	var out []Task
	if _, err := r.slots.Load(ctx, SlotTasks, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TaskRepo) SaveTasks(ctx context.Context, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	return r.slots.Save(ctx, SlotTasks, tasks)
}
