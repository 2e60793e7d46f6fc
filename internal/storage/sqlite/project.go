package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/weekplan/internal/domain"
)

type projectRepo struct {
	q querier
}

func (r *projectRepo) Create(ctx context.Context, p *domain.Project) error {
	var pct sql.NullFloat64
	if p.AllocationPercentage != nil {
		pct = sql.NullFloat64{Float64: *p.AllocationPercentage, Valid: true}
	}
	return r.q.exec(ctx, `
		INSERT INTO projects (id, user_id, title, allocation_percentage, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.Title, pct, time.Now().UTC())
}

func (r *projectRepo) List(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.q.query(ctx, "list_projects", `
		SELECT id, user_id, title, allocation_percentage
		FROM projects WHERE user_id = ?
		ORDER BY rowid
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		var pct sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &pct); err != nil {
			return nil, err
		}
		if pct.Valid {
			v := pct.Float64
			p.AllocationPercentage = &v
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type goalRepo struct {
	q querier
}

func (r *goalRepo) Create(ctx context.Context, g *domain.Goal) error {
	return r.q.exec(ctx, `
		INSERT INTO goals (id, user_id, project_id, title, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, g.ID, g.UserID, g.ProjectID, g.Title, time.Now().UTC())
}

func (r *goalRepo) ListByProject(ctx context.Context, projectID, userID string) ([]domain.Goal, error) {
	rows, err := r.q.query(ctx, "list_goals", `
		SELECT id, user_id, project_id, title
		FROM goals WHERE project_id = ? AND user_id = ?
		ORDER BY rowid
	`, projectID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		var g domain.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.ProjectID, &g.Title); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
