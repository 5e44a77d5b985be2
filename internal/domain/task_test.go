package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask("  buy milk ")
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "buy milk", task.Text)
	assert.False(t, task.Completed)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Equal(t, -1, task.Order)
}

func TestNewTask_EmptyText(t *testing.T) {
	_, err := NewTask(" \t\n")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestTaskValidate(t *testing.T) {
	task := &Task{ID: "a", Text: "  walk dog  "}
	require.NoError(t, task.Validate())
	assert.Equal(t, "walk dog", task.Text)

	assert.ErrorIs(t, (&Task{ID: " ", Text: "x"}).Validate(), ErrEmptyID)
	assert.ErrorIs(t, (&Task{ID: "a", Text: "   "}).Validate(), ErrEmptyText)
}

func TestValidateOrder(t *testing.T) {
	tests := []struct {
		name    string
		entries []OrderEntry
		wantErr bool
	}{
		{"empty batch", nil, false},
		{"dense", []OrderEntry{{"a", 0}, {"b", 1}}, false},
		{"empty id", []OrderEntry{{"", 0}}, true},
		{"negative order", []OrderEntry{{"a", -1}}, true},
		{"duplicate id", []OrderEntry{{"a", 0}, {"a", 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrder(tt.entries)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOrder)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSequence(t *testing.T) {
	got := Sequence([]Task{{ID: "b"}, {ID: "a"}, {ID: "c"}})
	assert.Equal(t, []OrderEntry{{"b", 0}, {"a", 1}, {"c", 2}}, got)
}

func TestStoreErrorIs(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("add: %w", NewStoreError("insert task", cause))

	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTaskNotFound)
	assert.Equal(t, "add: failed to insert task: disk full", err.Error())
}
