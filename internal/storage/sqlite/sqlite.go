package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/weekplan/internal/observability"
	"github.com/example/weekplan/internal/storage"
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// New creates a new SQLite storage instance.
func New(path string) (*SQLiteStorage, error) {
	return NewWithMetrics(path, nil)
}

// NewWithMetrics creates a SQLite storage that records query durations.
func NewWithMetrics(path string, metrics *observability.Metrics) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single connection for writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStorage{db: db, metrics: metrics}, nil
}

// Begin starts a new transaction.
func (s *SQLiteStorage) Begin(ctx context.Context) (storage.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newUnitOfWork(tx, s.metrics), nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.db)
}

// unitOfWork implements the UnitOfWork interface.
type unitOfWork struct {
	tx        *sql.Tx
	projects  *projectRepo
	goals     *goalRepo
	tasks     *taskRepo
	recurring *recurringTaskRepo
}

func newUnitOfWork(tx *sql.Tx, metrics *observability.Metrics) *unitOfWork {
	q := querier{tx: tx, metrics: metrics}
	return &unitOfWork{
		tx:        tx,
		projects:  &projectRepo{q: q},
		goals:     &goalRepo{q: q},
		tasks:     &taskRepo{q: q},
		recurring: &recurringTaskRepo{q: q},
	}
}

func (u *unitOfWork) Projects() storage.ProjectRepository {
	return u.projects
}

func (u *unitOfWork) Goals() storage.GoalRepository {
	return u.goals
}

func (u *unitOfWork) Tasks() storage.TaskRepository {
	return u.tasks
}

func (u *unitOfWork) RecurringTasks() storage.RecurringTaskRepository {
	return u.recurring
}

func (u *unitOfWork) Commit() error {
	return u.tx.Commit()
}

func (u *unitOfWork) Rollback() error {
	return u.tx.Rollback()
}

// querier runs statements inside a transaction and times the reads.
type querier struct {
	tx      *sql.Tx
	metrics *observability.Metrics
}

func (q querier) exec(ctx context.Context, query string, args ...any) error {
	_, err := q.tx.ExecContext(ctx, query, args...)
	return err
}

func (q querier) query(ctx context.Context, label, query string, args ...any) (*sql.Rows, error) {
	if q.metrics != nil {
		defer q.metrics.DBQueryDuration().WithLabels(label).Since(time.Now())
	}
	return q.tx.QueryContext(ctx, query, args...)
}
