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

// ScoreStore writes the output of a scoring run: the project's score columns
// and its evaluation row change in the same transaction, so readers never see
// a half-applied run.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) EnsureEvaluation(ctx context.Context, projectID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO evaluation_results (project_id)
		VALUES ($1)
		ON CONFLICT (project_id) DO NOTHING
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to ensure evaluation row: %w", err)
	}
	return nil
}

func (s *ScoreStore) SaveScores(ctx context.Context, projectID uuid.UUID, scores domain.Scores) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE projects
		SET community_score = $1, ai_score = $2, final_score = $3, updated_at = NOW()
		WHERE id = $4
	`, scores.CommunityScore, scores.AIScore, scores.FinalScore, projectID)
	if err != nil {
		return fmt.Errorf("failed to update project scores: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO evaluation_results (project_id, feasibility, innovation, impact, clarity, ai_score, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (project_id) DO UPDATE SET
			feasibility = EXCLUDED.feasibility,
			innovation = EXCLUDED.innovation,
			impact = EXCLUDED.impact,
			clarity = EXCLUDED.clarity,
			ai_score = EXCLUDED.ai_score,
			updated_at = EXCLUDED.updated_at
	`, projectID, scores.Feasibility, scores.Innovation, scores.Impact, scores.Clarity, scores.AIScore)
	if err != nil {
		return fmt.Errorf("failed to upsert evaluation result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *ScoreStore) GetEvaluation(ctx context.Context, projectID uuid.UUID) (*domain.EvaluationResult, error) {
	var e domain.EvaluationResult
	err := s.pool.QueryRow(ctx, `
		SELECT project_id, feasibility, innovation, impact, clarity, ai_score, updated_at
		FROM evaluation_results
		WHERE project_id = $1
	`, projectID).Scan(&e.ProjectID, &e.Feasibility, &e.Innovation, &e.Impact, &e.Clarity, &e.AIScore, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation result: %w", err)
	}
	return &e, nil
}
