package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmehra2102/TodoDesk/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownTask   = errors.New("no task matches reference")
	ErrAmbiguousTask = errors.New("reference matches more than one task")
)

// Relay is the subset of relay operations the board issues.
type Relay interface {
	GetAll(ctx context.Context) ([]domain.Task, error)
	Add(ctx context.Context, task domain.Task) (domain.Task, error)
	Toggle(ctx context.Context, id string, completed bool) error
	Edit(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
	UpdateOrder(ctx context.Context, entries []domain.OrderEntry) (int64, error)
}

// Board is the client's working copy of the task list. Changes are applied
// locally first and rolled back when the relay call fails. The lock is never
// held across a relay call.
type Board struct {
	mu     sync.Mutex
	tasks  []domain.Task
	relay  Relay
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func New(relay Relay, logger *zap.Logger) *Board {
	return &Board{
		relay:  relay,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Load replaces the local list with the stored one. On failure the board is
// left empty and the error is returned.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.relay.GetAll(ctx)
	if err != nil {
		b.logger.Error("failed to load tasks", zap.Error(err))
		b.replace(nil)
		return err
	}
	b.replace(tasks)
	return nil
}

// Tasks returns a copy of the local list in display order.
func (b *Board) Tasks() []domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.tasks)
}

func (b *Board) Add(ctx context.Context, text string) (domain.Task, error) {
	normalized, err := domain.NormalizeText(text)
	if err != nil {
		return domain.Task{}, err
	}

	task := domain.Task{
		ID:        b.newID(),
		Text:      normalized,
		CreatedAt: b.now(),
	}

	b.mu.Lock()
	task.Order = len(b.tasks)
	b.tasks = append(b.tasks, task)
	b.mu.Unlock()

	stored, err := b.relay.Add(ctx, task)
	if err != nil {
		b.logger.Error("failed to add task", zap.Error(err), zap.String("task_id", task.ID))
		b.mu.Lock()
		b.tasks = slices.DeleteFunc(b.tasks, func(t domain.Task) bool { return t.ID == task.ID })
		b.mu.Unlock()
		return domain.Task{}, err
	}

	b.update(task.ID, func(t *domain.Task) { t.Order = stored.Order })
	task.Order = stored.Order
	return task, nil
}

// Toggle flips the completed flag of a task.
func (b *Board) Toggle(ctx context.Context, id string) error {
	var previous bool
	found := b.update(id, func(t *domain.Task) {
		previous = t.Completed
		t.Completed = !t.Completed
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}

	if err := b.relay.Toggle(ctx, id, !previous); err != nil {
		b.logger.Error("failed to toggle task", zap.Error(err), zap.String("task_id", id))
		b.update(id, func(t *domain.Task) { t.Completed = previous })
		return err
	}
	return nil
}

func (b *Board) Edit(ctx context.Context, id, text string) error {
	normalized, err := domain.NormalizeText(text)
	if err != nil {
		return err
	}

	var previous string
	found := b.update(id, func(t *domain.Task) {
		previous = t.Text
		t.Text = normalized
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}

	if err := b.relay.Edit(ctx, id, normalized); err != nil {
		b.logger.Error("failed to edit task", zap.Error(err), zap.String("task_id", id))
		b.update(id, func(t *domain.Task) { t.Text = previous })
		return err
	}
	return nil
}

// Remove deletes a task and then compacts the order of the ones left.
// A failed compaction is reconciled by reloading from the store.
func (b *Board) Remove(ctx context.Context, id string) error {
	b.mu.Lock()
	snapshot := slices.Clone(b.tasks)
	idx := slices.IndexFunc(b.tasks, func(t domain.Task) bool { return t.ID == id })
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	b.tasks = slices.Delete(b.tasks, idx, idx+1)
	resequence(b.tasks)
	remaining := slices.Clone(b.tasks)
	b.mu.Unlock()

	if err := b.relay.Delete(ctx, id); err != nil {
		b.logger.Error("failed to delete task", zap.Error(err), zap.String("task_id", id))
		b.replace(snapshot)
		return err
	}

	if len(remaining) == 0 {
		return nil
	}
	err := b.submitOrder(ctx, remaining)
	switch {
	case errors.Is(err, errPartialOrder):
		return b.Load(ctx)
	case err != nil:
		b.logger.Error("failed to compact order after delete", zap.Error(err), zap.String("task_id", id))
		_ = b.Load(ctx)
		return err
	}
	return nil
}

// Move places a task at index, clamped to the list bounds.
func (b *Board) Move(ctx context.Context, id string, index int) error {
	b.mu.Lock()
	from := slices.IndexFunc(b.tasks, func(t domain.Task) bool { return t.ID == id })
	if from < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	ids := make([]string, 0, len(b.tasks))
	for _, t := range b.tasks {
		if t.ID != id {
			ids = append(ids, t.ID)
		}
	}
	b.mu.Unlock()

	index = max(0, min(index, len(ids)))
	ids = slices.Insert(ids, index, id)
	return b.Reorder(ctx, ids)
}

// Reorder submits a complete ordering of the board. ids must name every
// local task exactly once.
func (b *Board) Reorder(ctx context.Context, ids []string) error {
	b.mu.Lock()
	snapshot := slices.Clone(b.tasks)
	reordered, err := arrange(b.tasks, ids)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	b.tasks = reordered
	ordered := slices.Clone(reordered)
	b.mu.Unlock()

	err = b.submitOrder(ctx, ordered)
	switch {
	case errors.Is(err, errPartialOrder):
		// Some ids no longer exist in the store.
		return b.Load(ctx)
	case err != nil:
		b.logger.Error("failed to reorder tasks", zap.Error(err))
		b.replace(snapshot)
		return err
	}
	return nil
}

// Resolve finds a task by id or by a unique id prefix.
func (b *Board) Resolve(ref string) (domain.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Task{}, ErrUnknownTask
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var matches []domain.Task
	for _, t := range b.tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return domain.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Task{}, fmt.Errorf("%w: %s", ErrAmbiguousTask, ref)
	}
}

var errPartialOrder = errors.New("order batch partially applied")

func (b *Board) submitOrder(ctx context.Context, tasks []domain.Task) error {
	entries := domain.Sequence(tasks)
	changed, err := b.relay.UpdateOrder(ctx, entries)
	if err != nil {
		return err
	}
	if changed < int64(len(entries)) {
		b.logger.Warn("order batch partially applied, reloading",
			zap.Int("batch_size", len(entries)),
			zap.Int64("changed", changed),
		)
		return fmt.Errorf("%w: %d of %d", errPartialOrder, changed, len(entries))
	}
	return nil
}

func (b *Board) replace(tasks []domain.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tasks == nil {
		tasks = []domain.Task{}
	}
	b.tasks = tasks
}

func (b *Board) update(id string, fn func(*domain.Task)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			fn(&b.tasks[i])
			return true
		}
	}
	return false
}

func resequence(tasks []domain.Task) {
	for i := range tasks {
		tasks[i].Order = i
	}
}

func arrange(tasks []domain.Task, ids []string) ([]domain.Task, error) {
	if len(ids) != len(tasks) {
		return nil, fmt.Errorf("%w: got %d ids for %d tasks", domain.ErrInvalidOrder, len(ids), len(tasks))
	}
	byID := make(map[string]domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	out := make([]domain.Task, 0, len(ids))
	for i, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTask, id)
		}
		delete(byID, id)
		t.Order = i
		out = append(out, t)
	}
	return out, nil
}
