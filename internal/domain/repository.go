package domain

import "context"

// Repository defines the contract for task persistence
type Repository interface {
	// List returns every task ordered by ascending order
	List(ctx context.Context) ([]*Task, error)

	// Create persists a new task and sets its store-assigned order
	Create(ctx context.Context, task *Task) error

	// SetCompleted updates only the completed flag
	SetCompleted(ctx context.Context, id string, completed bool) error

	// SetText updates only the text
	SetText(ctx context.Context, id, text string) error

	// Delete removes a task without compacting the remaining order values
	Delete(ctx context.Context, id string) error

	// UpdateOrder applies a reorder batch in one transaction and returns
	// the number of rows changed
	UpdateOrder(ctx context.Context, entries []OrderEntry) (int64, error)

	// Reset drops and recreates the task table
	Reset(ctx context.Context) error

	// Status reports the store location and existence flags
	Status(ctx context.Context) (*StoreStatus, error)
}
