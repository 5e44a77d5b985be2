package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmehra2102/TodoDesk/internal/domain"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/config"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/sqlite/migrations"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	driverName          = "sqlite"
	defaultQueryTimeout = 5 * time.Second
)

type SQLiteRepository struct {
	// mu is held exclusively by Reset so no statement runs against a
	// dropped table.
	mu           sync.RWMutex
	db           *sql.DB
	migrator     *migrate.Migrate
	cfg          config.StoreConfig
	tracer       trace.Tracer
	queryTimeout time.Duration
}

// Open creates the data directory and database file if needed and applies
// the baseline schema. Every failure wraps domain.ErrInitialization.
func Open(ctx context.Context, cfg config.StoreConfig) (*SQLiteRepository, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, initError("validate path", errors.New("storage path is required"))
	}
	cfg.Path = filepath.Clean(cfg.Path)

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, initError("create data directory", err)
	}

	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, initError("open database", err)
	}

	// The repository is the single owner of the store handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, initError("ping database", err)
	}

	migrator, err := newMigrator(db)
	if err != nil {
		_ = db.Close()
		return nil, initError("prepare schema", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = migrator.Close()
		return nil, initError("create task table", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	return &SQLiteRepository{
		db:           db,
		migrator:     migrator,
		cfg:          cfg,
		tracer:       otel.Tracer("sqlite-repository"),
		queryTimeout: timeout,
	}, nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

func initError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrInitialization, op, err)
}

// Close releases the store handle.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.migrator == nil {
		return nil
	}
	srcErr, dbErr := r.migrator.Close()
	return errors.Join(srcErr, dbErr)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.List")
	defer span.End()

	query := `
		SELECT id, text, completed, createdAt, "order"
		FROM todos
		ORDER BY "order" ASC, createdAt ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, domain.NewStoreError("list tasks", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task := &domain.Task{}
		var completed int
		var createdAt string

		if err := rows.Scan(&task.ID, &task.Text, &completed, &createdAt, &task.Order); err != nil {
			span.RecordError(err)
			return nil, domain.NewStoreError("scan task", err)
		}

		task.Completed = decodeCompleted(completed)
		task.CreatedAt, err = parseTimestamp(createdAt)
		if err != nil {
			span.RecordError(err)
			return nil, domain.NewStoreError("decode task "+task.ID, err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, domain.NewStoreError("iterate tasks", err)
	}

	span.SetAttributes(attribute.Int("returned_count", len(tasks)))
	return tasks, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, task *domain.Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Create")
	defer span.End()

	span.SetAttributes(attribute.String("task.id", task.ID))

	// The order is computed in the same statement as the insert.
	query := `
		INSERT INTO todos (id, text, completed, createdAt, "order")
		SELECT ?, ?, ?, ?, COALESCE(MAX("order"), -1) + 1 FROM todos
		RETURNING "order"
	`

	var order int
	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.Text,
		encodeCompleted(task.Completed),
		formatTimestamp(task.CreatedAt),
	).Scan(&order)

	if err != nil {
		span.RecordError(err)
		if isConstraintViolation(err) {
			return domain.ErrTaskExists
		}
		return domain.NewStoreError("create task", err)
	}

	task.Order = order
	span.SetAttributes(attribute.Int("task.order", order))
	return nil
}

func (r *SQLiteRepository) SetCompleted(ctx context.Context, id string, completed bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.SetCompleted")
	defer span.End()

	span.SetAttributes(
		attribute.String("task.id", id),
		attribute.Bool("task.completed", completed),
	)

	query := `UPDATE todos SET completed = ? WHERE id = ?`
	return r.execOne(ctx, span, "toggle task", query, encodeCompleted(completed), id)
}

func (r *SQLiteRepository) SetText(ctx context.Context, id, text string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.SetText")
	defer span.End()

	span.SetAttributes(attribute.String("task.id", id))

	query := `UPDATE todos SET text = ? WHERE id = ?`
	return r.execOne(ctx, span, "edit task", query, text, id)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("task.id", id))

	query := `DELETE FROM todos WHERE id = ?`
	return r.execOne(ctx, span, "delete task", query, id)
}

// execOne runs a single-row statement and reports a missing row as not found.
func (r *SQLiteRepository) execOne(ctx context.Context, span trace.Span, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return domain.NewStoreError(op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return domain.NewStoreError("get rows affected", err)
	}

	if rowsAffected == 0 {
		span.SetAttributes(attribute.Bool("not_found", true))
		return domain.ErrTaskNotFound
	}

	return nil
}

// UpdateOrder applies every pair inside one transaction. Pairs for unknown
// ids change nothing; the returned count lets the caller detect that.
func (r *SQLiteRepository) UpdateOrder(ctx context.Context, entries []domain.OrderEntry) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.UpdateOrder")
	defer span.End()

	span.SetAttributes(attribute.Int("batch_size", len(entries)))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return 0, domain.NewStoreError("begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE todos SET "order" = ? WHERE id = ?`)
	if err != nil {
		span.RecordError(err)
		return 0, domain.NewStoreError("prepare statement", err)
	}
	defer stmt.Close()

	var changed int64
	for _, entry := range entries {
		result, err := stmt.ExecContext(ctx, entry.Order, entry.ID)
		if err != nil {
			span.RecordError(err)
			return 0, domain.NewStoreError("update order of task "+entry.ID, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			span.RecordError(err)
			return 0, domain.NewStoreError("get rows affected", err)
		}
		changed += n
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return 0, domain.NewStoreError("commit transaction", err)
	}

	span.SetAttributes(attribute.Int64("changed", changed))
	return changed, nil
}

// Reset drops the task table and recreates it from the baseline schema.
func (r *SQLiteRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, span := r.tracer.Start(ctx, "repository.Reset")
	defer span.End()

	if err := r.migrator.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		span.RecordError(err)
		return domain.NewStoreError("drop task table", err)
	}

	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		span.RecordError(err)
		return domain.NewStoreError("recreate task table", err)
	}

	return nil
}

func (r *SQLiteRepository) Status(ctx context.Context) (*domain.StoreStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Status")
	defer span.End()

	status := &domain.StoreStatus{
		DataDir:      r.cfg.DataDir,
		DBPath:       r.cfg.Path,
		DBExists:     fileExists(r.cfg.Path),
		ConfigPath:   r.cfg.ConfigPath,
		ConfigExists: fileExists(r.cfg.ConfigPath),
	}

	var tables int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'todos'`,
	).Scan(&tables)
	if err != nil {
		span.RecordError(err)
		return nil, domain.NewStoreError("inspect schema", err)
	}
	status.TableExists = tables > 0

	return status, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	// Extended result codes carry the primary code in the low byte.
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

var _ domain.Repository = (*SQLiteRepository)(nil)
