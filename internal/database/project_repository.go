package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edunova/platform/internal/domain"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

const projectColumns = `id, owner_id, title, description, category, objectives,
	expected_impact, required_resources, status, state,
	community_score, ai_score, final_score, created_at, updated_at`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.Category, &p.Objectives,
		&p.ExpectedImpact, &p.RequiredResources, &p.Status, &p.State,
		&p.CommunityScore, &p.AIScore, &p.FinalScore, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = $1", projectID)
	project, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project by ID: %w", err)
	}
	return project, nil
}

func (r *ProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO projects (id, owner_id, title, description, category, objectives,
			expected_impact, required_resources, status, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`, p.ID, p.OwnerID, p.Title, p.Description, p.Category, p.Objectives,
		p.ExpectedImpact, p.RequiredResources, p.Status, p.State, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) TeamSize(ctx context.Context, projectID uuid.UUID) (int, error) {
	var size int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM project_team WHERE project_id = $1", projectID).Scan(&size)
	if err != nil {
		return 0, fmt.Errorf("failed to count team members: %w", err)
	}
	return size, nil
}

func (r *ProjectRepo) AddTeamMember(ctx context.Context, projectID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO project_team (project_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (project_id, user_id) DO NOTHING
	`, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (r *ProjectRepo) RemoveTeamMember(ctx context.Context, projectID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM project_team WHERE project_id = $1 AND user_id = $2", projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return nil
}

func (r *ProjectRepo) ClearTeam(ctx context.Context, projectID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM project_team WHERE project_id = $1", projectID)
	if err != nil {
		return fmt.Errorf("failed to clear team: %w", err)
	}
	return nil
}

func (r *ProjectRepo) ListCandidates(ctx context.Context, excludeOwner uuid.UUID, categories []string, limit int) ([]domain.Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE state = 'live' AND owner_id <> $1
	`
	args := []any{excludeOwner}
	if len(categories) > 0 {
		query += " AND category = ANY($2) ORDER BY final_score DESC, community_score DESC LIMIT $3"
		args = append(args, categories, limit)
	} else {
		query += " ORDER BY final_score DESC, community_score DESC LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) ListLiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, "SELECT id FROM projects WHERE state = 'live'")
	if err != nil {
		return nil, fmt.Errorf("failed to list live projects: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
