package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edunova/platform/internal/domain"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, title, message, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.RecipientID, n.Title, n.Message, n.URL, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient_id, title, message, url, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.URL, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

type PredictionLogRepo struct {
	pool *pgxpool.Pool
}

func NewPredictionLogRepo(pool *pgxpool.Pool) *PredictionLogRepo {
	return &PredictionLogRepo{pool: pool}
}

func (r *PredictionLogRepo) Append(ctx context.Context, l *domain.PredictionLog) error {
	input, err := json.Marshal(l.Input)
	if err != nil {
		return fmt.Errorf("failed to encode log input: %w", err)
	}
	output, err := json.Marshal(l.Output)
	if err != nil {
		return fmt.Errorf("failed to encode log output: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO prediction_logs (id, kind, input, output, duration_ms, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, l.ID, l.Kind, input, output, l.DurationMs, l.Success, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append prediction log: %w", err)
	}
	return nil
}
