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

type OrientationRepo struct {
	pool *pgxpool.Pool
}

func NewOrientationRepo(pool *pgxpool.Pool) *OrientationRepo {
	return &OrientationRepo{pool: pool}
}

const requestColumns = "id, student_id, advisor_id, topic, context, status, created_at, updated_at"

func scanRequest(row pgx.Row) (*domain.OrientationRequest, error) {
	var req domain.OrientationRequest
	err := row.Scan(&req.ID, &req.StudentID, &req.AdvisorID, &req.Topic, &req.Context, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *OrientationRepo) GetByID(ctx context.Context, requestID uuid.UUID) (*domain.OrientationRequest, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+requestColumns+" FROM orientation_requests WHERE id = $1", requestID)
	request, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get orientation request: %w", err)
	}
	return request, nil
}

func (r *OrientationRepo) Create(ctx context.Context, req *domain.OrientationRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orientation_requests (id, student_id, advisor_id, topic, context, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, req.ID, req.StudentID, req.AdvisorID, req.Topic, req.Context, req.Status, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create orientation request: %w", err)
	}
	return nil
}

func (r *OrientationRepo) SetAssignment(ctx context.Context, requestID, advisorID uuid.UUID, status domain.RequestStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orientation_requests
		SET advisor_id = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`, advisorID, status, requestID)
	if err != nil {
		return fmt.Errorf("failed to assign orientation request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func (r *OrientationRepo) CountOpenByAdvisor(ctx context.Context, advisorIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT advisor_id, COUNT(*)
		FROM orientation_requests
		WHERE advisor_id = ANY($1) AND status IN ('pending', 'in_progress')
		GROUP BY advisor_id
	`, advisorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count open requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var advisorID uuid.UUID
		var count int
		if err := rows.Scan(&advisorID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan request count: %w", err)
		}
		counts[advisorID] = count
	}
	return counts, rows.Err()
}
