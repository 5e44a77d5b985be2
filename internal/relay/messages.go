package relay

import (
	"time"

	"github.com/dmehra2102/TodoDesk/internal/domain"
)

// Wire messages. Field names match the UI's existing task shape.

type TaskMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	Order     int       `json:"order"`
}

// NewTaskMessage is a task as submitted by the UI; the store assigns order.
type NewTaskMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

type OrderEntryMessage struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

type StatusMessage struct {
	DataDir     string `json:"dataDir"`
	DBPath      string `json:"dbPath"`
	DBExists    bool   `json:"dbExists"`
	TableExists bool   `json:"tableExists"`
	StorePath   string `json:"storePath"`
	StoreExists bool   `json:"storeExists"`
}

type Empty struct{}

type GetAllResponse struct {
	Tasks []TaskMessage `json:"tasks"`
}

type AddRequest struct {
	Task NewTaskMessage `json:"task"`
}

type AddResponse struct {
	Order int `json:"order"`
}

type ToggleRequest struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
}

type EditRequest struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type DeleteRequest struct {
	ID string `json:"id"`
}

type UpdateOrderRequest struct {
	TodosOrder []OrderEntryMessage `json:"todosOrder"`
}

type UpdateOrderResponse struct {
	Changes int64 `json:"changes"`
}

func toTaskMessages(tasks []domain.Task) []TaskMessage {
	out := make([]TaskMessage, len(tasks))
	for i, t := range tasks {
		out[i] = TaskMessage{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			CreatedAt: t.CreatedAt,
			Order:     t.Order,
		}
	}
	return out
}

func fromTaskMessages(msgs []TaskMessage) []domain.Task {
	out := make([]domain.Task, len(msgs))
	for i, m := range msgs {
		out[i] = domain.Task{
			ID:        m.ID,
			Text:      m.Text,
			Completed: m.Completed,
			CreatedAt: m.CreatedAt,
			Order:     m.Order,
		}
	}
	return out
}

func toOrderMessages(entries []domain.OrderEntry) []OrderEntryMessage {
	out := make([]OrderEntryMessage, len(entries))
	for i, e := range entries {
		out[i] = OrderEntryMessage{ID: e.ID, Order: e.Order}
	}
	return out
}

func fromOrderMessages(msgs []OrderEntryMessage) []domain.OrderEntry {
	out := make([]domain.OrderEntry, len(msgs))
	for i, m := range msgs {
		out[i] = domain.OrderEntry{ID: m.ID, Order: m.Order}
	}
	return out
}

func toStatusMessage(s domain.StoreStatus) *StatusMessage {
	return &StatusMessage{
		DataDir:     s.DataDir,
		DBPath:      s.DBPath,
		DBExists:    s.DBExists,
		TableExists: s.TableExists,
		StorePath:   s.ConfigPath,
		StoreExists: s.ConfigExists,
	}
}

func fromStatusMessage(m *StatusMessage) domain.StoreStatus {
	return domain.StoreStatus{
		DataDir:      m.DataDir,
		DBPath:       m.DBPath,
		DBExists:     m.DBExists,
		TableExists:  m.TableExists,
		ConfigPath:   m.StorePath,
		ConfigExists: m.StoreExists,
	}
}
