package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edunova/platform/internal/domain"
)

type RecommendationRepo struct {
	pool *pgxpool.Pool
}

func NewRecommendationRepo(pool *pgxpool.Pool) *RecommendationRepo {
	return &RecommendationRepo{pool: pool}
}

func (r *RecommendationRepo) Replace(ctx context.Context, userID uuid.UUID, recs []domain.Recommendation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM recommendations WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}

	for _, rec := range recs {
		_, err := tx.Exec(ctx, `
			INSERT INTO recommendations (id, user_id, project_id, score, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, project_id) DO NOTHING
		`, rec.ID, rec.UserID, rec.ProjectID, rec.Score, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *RecommendationRepo) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM recommendations WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete recommendations: %w", err)
	}
	return nil
}

func (r *RecommendationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, project_id, score, created_at
		FROM recommendations
		WHERE user_id = $1
		ORDER BY score DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []domain.Recommendation
	for rows.Next() {
		var rec domain.Recommendation
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ProjectID, &rec.Score, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
