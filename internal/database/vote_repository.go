package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edunova/platform/internal/domain"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

const voteColumns = `id, project_id, voter_id, rating, comment, sentiment_label,
	sentiment_score, weight, positive_hits, negative_hits, created_at, updated_at`

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanVote(row pgx.Row) (*domain.Vote, error) {
	var v domain.Vote
	err := row.Scan(
		&v.ID, &v.ProjectID, &v.VoterID, &v.Rating, &v.Comment, &v.SentimentLabel,
		&v.SentimentScore, &v.Weight, &v.PositiveHits, &v.NegativeHits, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VoteRepo) GetByID(ctx context.Context, voteID uuid.UUID) (*domain.Vote, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+voteColumns+" FROM votes WHERE id = $1", voteID)
	vote, err := scanVote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrVoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote by ID: %w", err)
	}
	return vote, nil
}

func (r *VoteRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Vote, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+voteColumns+" FROM votes WHERE project_id = $1 ORDER BY created_at", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.Vote
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, *vote)
	}
	return votes, rows.Err()
}

func (r *VoteRepo) Create(ctx context.Context, v *domain.Vote) (*domain.VoteSummary, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO votes (id, project_id, voter_id, rating, comment, sentiment_label,
			sentiment_score, weight, positive_hits, negative_hits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`, v.ID, v.ProjectID, v.VoterID, v.Rating, v.Comment, v.SentimentLabel,
		v.SentimentScore, v.Weight, v.PositiveHits, v.NegativeHits, v.CreatedAt)
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicateVote
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert vote: %w", err)
	}

	summary, err := recomputeSummary(ctx, tx, v.ProjectID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return summary, nil
}

func (r *VoteRepo) Update(ctx context.Context, v *domain.Vote) (*domain.VoteSummary, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE votes
		SET rating = $1, comment = $2, sentiment_label = $3, sentiment_score = $4,
			weight = $5, positive_hits = $6, negative_hits = $7, updated_at = $8
		WHERE id = $9
	`, v.Rating, v.Comment, v.SentimentLabel, v.SentimentScore,
		v.Weight, v.PositiveHits, v.NegativeHits, v.UpdatedAt, v.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrVoteNotFound
	}

	summary, err := recomputeSummary(ctx, tx, v.ProjectID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return summary, nil
}

func (r *VoteRepo) Delete(ctx context.Context, voteID, projectID uuid.UUID) (*domain.VoteSummary, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "DELETE FROM votes WHERE id = $1", voteID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrVoteNotFound
	}

	summary, err := recomputeSummary(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return summary, nil
}

func (r *VoteRepo) UpdateSentiments(ctx context.Context, updates []domain.SentimentUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, u := range updates {
		_, err := tx.Exec(ctx, `
			UPDATE votes
			SET sentiment_label = $1, sentiment_score = $2, weight = $3,
				positive_hits = $4, negative_hits = $5, updated_at = NOW()
			WHERE id = $6
		`, u.Label, u.Score, u.Weight, u.PositiveHits, u.NegativeHits, u.VoteID)
		if err != nil {
			return fmt.Errorf("failed to update vote sentiment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *VoteRepo) GetSummary(ctx context.Context, projectID uuid.UUID) (*domain.VoteSummary, error) {
	var s domain.VoteSummary
	err := r.pool.QueryRow(ctx, `
		SELECT project_id, average_rating, total_votes, weighted_score, last_computed_at
		FROM vote_summaries
		WHERE project_id = $1
	`, projectID).Scan(&s.ProjectID, &s.AverageRating, &s.TotalVotes, &s.WeightedScore, &s.LastComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// No votes yet: an empty summary, not an error.
		return &domain.VoteSummary{ProjectID: projectID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote summary: %w", err)
	}
	return &s, nil
}

// recomputeSummary rebuilds the project's cached aggregate from the full vote
// set inside the caller's transaction. The weighted score divides by the
// weight sum when positive and falls back to the plain average otherwise.
func recomputeSummary(ctx context.Context, tx pgx.Tx, projectID uuid.UUID) (*domain.VoteSummary, error) {
	var s domain.VoteSummary
	err := tx.QueryRow(ctx, `
		INSERT INTO vote_summaries (project_id, average_rating, total_votes, weighted_score, last_computed_at)
		SELECT $1,
			COALESCE(AVG(rating), 0),
			COUNT(*),
			COALESCE(CASE
				WHEN SUM(weight) > 0 THEN SUM(rating * weight) / SUM(weight)
				ELSE AVG(rating)
			END, 0),
			NOW()
		FROM votes
		WHERE project_id = $1
		ON CONFLICT (project_id) DO UPDATE SET
			average_rating = EXCLUDED.average_rating,
			total_votes = EXCLUDED.total_votes,
			weighted_score = EXCLUDED.weighted_score,
			last_computed_at = EXCLUDED.last_computed_at
		RETURNING project_id, average_rating, total_votes, weighted_score, last_computed_at
	`, projectID).Scan(&s.ProjectID, &s.AverageRating, &s.TotalVotes, &s.WeightedScore, &s.LastComputedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute vote summary: %w", err)
	}
	return &s, nil
}
