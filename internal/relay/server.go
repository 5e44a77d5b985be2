package relay

import (
	"context"

	"github.com/dmehra2102/TodoDesk/internal/domain"
)

// Server forwards relay calls to the backend verbatim. It performs no
// validation, caching or batching of its own.
type Server struct {
	backend Backend
}

func NewServer(backend Backend) *Server {
	return &Server{backend: backend}
}

func (s *Server) GetAll(ctx context.Context, _ *Empty) (*GetAllResponse, error) {
	tasks, err := s.backend.GetAll(ctx)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &GetAllResponse{Tasks: toTaskMessages(tasks)}, nil
}

func (s *Server) Add(ctx context.Context, req *AddRequest) (*AddResponse, error) {
	task, err := s.backend.Add(ctx, domain.Task{
		ID:        req.Task.ID,
		Text:      req.Task.Text,
		Completed: req.Task.Completed,
		CreatedAt: req.Task.CreatedAt,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &AddResponse{Order: task.Order}, nil
}

func (s *Server) Toggle(ctx context.Context, req *ToggleRequest) (*Empty, error) {
	if err := s.backend.Toggle(ctx, req.ID, req.Completed); err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *Server) Edit(ctx context.Context, req *EditRequest) (*Empty, error) {
	if err := s.backend.Edit(ctx, req.ID, req.Text); err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *Server) Delete(ctx context.Context, req *DeleteRequest) (*Empty, error) {
	if err := s.backend.Delete(ctx, req.ID); err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *Server) UpdateOrder(ctx context.Context, req *UpdateOrderRequest) (*UpdateOrderResponse, error) {
	changed, err := s.backend.UpdateOrder(ctx, fromOrderMessages(req.TodosOrder))
	if err != nil {
		return nil, mapDomainError(err)
	}
	return &UpdateOrderResponse{Changes: changed}, nil
}

func (s *Server) ClearAll(ctx context.Context, _ *Empty) (*Empty, error) {
	if err := s.backend.ClearAll(ctx); err != nil {
		return nil, mapDomainError(err)
	}
	return &Empty{}, nil
}

func (s *Server) GetStatus(ctx context.Context, _ *Empty) (*StatusMessage, error) {
	st, err := s.backend.GetStatus(ctx)
	if err != nil {
		return nil, mapDomainError(err)
	}
	return toStatusMessage(st), nil
}

var _ RelayServer = (*Server)(nil)
