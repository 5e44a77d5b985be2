package app

import (
	"context"
	"errors"
	"time"

	"github.com/dmehra2102/TodoDesk/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TaskService is the persistence service. It is constructed once at startup
// and owns the repository for the life of the process.
type TaskService struct {
	repo   domain.Repository
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewTaskService(repo domain.Repository, logger *zap.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("task-service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetAll returns every task in ascending order.
func (s *TaskService) GetAll(ctx context.Context) ([]domain.Task, error) {
	ctx, span := s.tracer.Start(ctx, "GetAll")
	defer span.End()

	tasks, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list tasks", zap.Error(err))
		return nil, err
	}

	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = *t
	}

	span.SetAttributes(attribute.Int("task.count", len(out)))
	return out, nil
}

// Add stores a caller-identified task and returns it with its assigned order.
func (s *TaskService) Add(ctx context.Context, task domain.Task) (domain.Task, error) {
	ctx, span := s.tracer.Start(ctx, "Add")
	defer span.End()

	span.SetAttributes(attribute.String("task.id", task.ID))

	if err := task.Validate(); err != nil {
		s.logger.Warn("rejected task", zap.Error(err), zap.String("task_id", task.ID))
		return domain.Task{}, err
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now()
	}

	if err := s.repo.Create(ctx, &task); err != nil {
		s.logFailure("failed to add task", err, zap.String("task_id", task.ID))
		return domain.Task{}, err
	}

	s.logger.Info("task added",
		zap.String("task_id", task.ID),
		zap.Int("order", task.Order),
	)
	return task, nil
}

func (s *TaskService) Toggle(ctx context.Context, id string, completed bool) error {
	ctx, span := s.tracer.Start(ctx, "Toggle")
	defer span.End()

	span.SetAttributes(attribute.String("task.id", id))

	if err := s.repo.SetCompleted(ctx, id, completed); err != nil {
		s.logFailure("failed to toggle task", err, zap.String("task_id", id))
		return err
	}

	s.logger.Info("task toggled",
		zap.String("task_id", id),
		zap.Bool("completed", completed),
	)
	return nil
}

// Edit replaces the text of a task. Text that is empty after trimming is
// rejected and the row is left untouched.
func (s *TaskService) Edit(ctx context.Context, id, text string) error {
	ctx, span := s.tracer.Start(ctx, "Edit")
	defer span.End()

	span.SetAttributes(attribute.String("task.id", id))

	normalized, err := domain.NormalizeText(text)
	if err != nil {
		s.logger.Warn("rejected edit", zap.Error(err), zap.String("task_id", id))
		return err
	}

	if err := s.repo.SetText(ctx, id, normalized); err != nil {
		s.logFailure("failed to edit task", err, zap.String("task_id", id))
		return err
	}

	s.logger.Info("task edited", zap.String("task_id", id))
	return nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()

	span.SetAttributes(attribute.String("task.id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logFailure("failed to delete task", err, zap.String("task_id", id))
		return err
	}

	s.logger.Info("task deleted", zap.String("task_id", id))
	return nil
}

// UpdateOrder applies a full reorder batch atomically. Unknown ids are
// tolerated; the returned count is less than len(entries) when any were
// skipped.
func (s *TaskService) UpdateOrder(ctx context.Context, entries []domain.OrderEntry) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "UpdateOrder")
	defer span.End()

	span.SetAttributes(attribute.Int("batch_size", len(entries)))

	if err := domain.ValidateOrder(entries); err != nil {
		s.logger.Warn("rejected order batch", zap.Error(err), zap.Int("batch_size", len(entries)))
		return 0, err
	}

	changed, err := s.repo.UpdateOrder(ctx, entries)
	if err != nil {
		s.logFailure("failed to update task order", err, zap.Int("batch_size", len(entries)))
		return 0, err
	}

	if changed < int64(len(entries)) {
		s.logger.Warn("order batch partially applied",
			zap.Int("batch_size", len(entries)),
			zap.Int64("changed", changed),
		)
	} else {
		s.logger.Info("task order updated", zap.Int64("changed", changed))
	}
	return changed, nil
}

func (s *TaskService) ClearAll(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "ClearAll")
	defer span.End()

	if err := s.repo.Reset(ctx); err != nil {
		s.logger.Error("failed to clear tasks", zap.Error(err))
		return err
	}

	s.logger.Info("all tasks cleared")
	return nil
}

func (s *TaskService) GetStatus(ctx context.Context) (domain.StoreStatus, error) {
	ctx, span := s.tracer.Start(ctx, "GetStatus")
	defer span.End()

	status, err := s.repo.Status(ctx)
	if err != nil {
		s.logger.Error("failed to read store status", zap.Error(err))
		return domain.StoreStatus{}, err
	}
	return *status, nil
}

// logFailure keeps not-found at warn level; everything else is an error.
func (s *TaskService) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, domain.ErrTaskNotFound) || errors.Is(err, domain.ErrTaskExists) {
		s.logger.Warn(msg, fields...)
		return
	}
	s.logger.Error(msg, fields...)
}
