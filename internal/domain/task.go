package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is a single to-do item.
type Task struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt time.Time
	// Order is the dense zero-based display rank. It is assigned by the
	// store on creation and rewritten as a batch on reorder.
	Order int
}

// OrderEntry is one (id, order) pair of a reorder batch.
type OrderEntry struct {
	ID    string
	Order int
}

// StoreStatus describes where the store lives and what exists on disk.
type StoreStatus struct {
	DataDir      string
	DBPath       string
	DBExists     bool
	TableExists  bool
	ConfigPath   string
	ConfigExists bool
}

// NewTask creates a task with a fresh id and creation time.
// The order is provisional until the store assigns one.
func NewTask(text string) (*Task, error) {
	normalized, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}

	return &Task{
		ID:        uuid.New().String(),
		Text:      normalized,
		Completed: false,
		CreatedAt: time.Now().UTC(),
		Order:     -1,
	}, nil
}

// Validate checks the caller-supplied fields of a task about to be added
// and trims its text in place.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	text, err := NormalizeText(t.Text)
	if err != nil {
		return err
	}
	t.Text = text
	return nil
}

// NormalizeText trims surrounding whitespace and rejects empty text.
func NormalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	return trimmed, nil
}

// ValidateOrder rejects malformed reorder batches before anything is written.
// Unknown ids are not checked here; the store tolerates them.
func ValidateOrder(entries []OrderEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return ErrInvalidOrder
		}
		if e.Order < 0 {
			return ErrInvalidOrder
		}
		if _, dup := seen[e.ID]; dup {
			return ErrInvalidOrder
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Sequence builds a dense ordering from tasks in their current slice order.
func Sequence(tasks []Task) []OrderEntry {
	entries := make([]OrderEntry, len(tasks))
	for i, t := range tasks {
		entries[i] = OrderEntry{ID: t.ID, Order: i}
	}
	return entries
}
