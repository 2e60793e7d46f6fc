package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/weekplan/internal/domain"
)

type taskRepo struct {
	q querier
}

func (r *taskRepo) Create(ctx context.Context, t *domain.Task) error {
	return r.q.exec(ctx, `
		INSERT INTO tasks (id, user_id, goal_id, title, status, estimated_hours, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.GoalID, t.Title, t.Status.String(), t.EstimatedHours, t.Priority, time.Now().UTC())
}

func (r *taskRepo) ListByGoal(ctx context.Context, goalID, userID string) ([]domain.Task, error) {
	rows, err := r.q.query(ctx, "list_tasks", `
		SELECT id, user_id, goal_id, title, status, estimated_hours, priority
		FROM tasks WHERE goal_id = ? AND user_id = ?
		ORDER BY rowid
	`, goalID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var t domain.Task
		var status string
		if err := rows.Scan(&t.ID, &t.UserID, &t.GoalID, &t.Title, &status, &t.EstimatedHours, &t.Priority); err != nil {
			return nil, err
		}
		t.Status = domain.ParseTaskStatus(status)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type recurringTaskRepo struct {
	q querier
}

func (r *recurringTaskRepo) Create(ctx context.Context, rt *domain.RecurringTask) error {
	var projectID sql.NullString
	if rt.ProjectID != "" {
		projectID = sql.NullString{String: rt.ProjectID, Valid: true}
	}
	return r.q.exec(ctx, `
		INSERT INTO recurring_tasks (id, user_id, project_id, title, estimated_hours, frequency, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rt.ID, rt.UserID, projectID, rt.Title, rt.EstimatedHours, rt.Frequency, rt.Active, time.Now().UTC())
}

func (r *recurringTaskRepo) ListActive(ctx context.Context, userID string) ([]domain.RecurringTask, error) {
	rows, err := r.q.query(ctx, "list_recurring_tasks", `
		SELECT id, user_id, project_id, title, estimated_hours, frequency, active
		FROM recurring_tasks WHERE user_id = ? AND active = TRUE
		ORDER BY rowid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RecurringTask
	for rows.Next() {
		var rt domain.RecurringTask
		var projectID, frequency sql.NullString
		if err := rows.Scan(&rt.ID, &rt.UserID, &projectID, &rt.Title, &rt.EstimatedHours, &frequency, &rt.Active); err != nil {
			return nil, err
		}
		rt.ProjectID = projectID.String
		rt.Frequency = frequency.String
		out = append(out, rt)
	}
	return out, rows.Err()
}
