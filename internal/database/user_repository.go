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

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = "id, username, first_name, last_name, role, active, created_at"

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Role, &u.Active, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", userID)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func (r *UserRepo) ListActiveAdvisors(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = $1 AND active
		ORDER BY created_at, id
	`, domain.RoleAdvisor)
	if err != nil {
		return nil, fmt.Errorf("failed to list advisors: %w", err)
	}
	defer rows.Close()

	var advisors []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advisor: %w", err)
		}
		advisors = append(advisors, *user)
	}
	return advisors, rows.Err()
}

type SponsorRepo struct {
	pool *pgxpool.Pool
}

func NewSponsorRepo(pool *pgxpool.Pool) *SponsorRepo {
	return &SponsorRepo{pool: pool}
}

func (r *SponsorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.SponsorProfile, error) {
	var p domain.SponsorProfile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, organization, interests
		FROM sponsor_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Organization, &p.Interests)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSponsorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sponsor profile: %w", err)
	}
	return &p, nil
}
