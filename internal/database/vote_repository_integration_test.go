package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunova/platform/internal/domain"
)

func newTestVote(projectID, voterID uuid.UUID, rating int, weight float64) *domain.Vote {
	return &domain.Vote{
		ID:             uuid.New(),
		ProjectID:      projectID,
		VoterID:        voterID,
		Rating:         rating,
		SentimentLabel: domain.SentimentNeutral,
		SentimentScore: 50,
		Weight:         weight,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func TestCreateVote_RecomputesSummary(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)

	summary, err := repo.Create(ctx, newTestVote(project, createTestUser(t, pool, "student"), 4, 1))
	require.NoError(t, err)
	assert.Equal(t, project, summary.ProjectID)
	assert.Equal(t, 1, summary.TotalVotes)
	assert.InDelta(t, 4.0, summary.AverageRating, 1e-9)

	summary, err = repo.Create(ctx, newTestVote(project, createTestUser(t, pool, "student"), 5, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalVotes)
	assert.InDelta(t, 4.5, summary.AverageRating, 1e-9)
	assert.InDelta(t, 4.5, summary.WeightedScore, 1e-9)

	// The committed row matches what the mutation returned
	stored, err := repo.GetSummary(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalVotes)
	assert.InDelta(t, 4.5, stored.AverageRating, 1e-9)
}

func TestCreateVote_Duplicate(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)
	voter := createTestUser(t, pool, "student")

	_, err := repo.Create(ctx, newTestVote(project, voter, 4, 1))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newTestVote(project, voter, 5, 1))
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)

	// The failed insert left the summary untouched
	summary, err := repo.GetSummary(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalVotes)
	assert.InDelta(t, 4.0, summary.AverageRating, 1e-9)
}

func TestUpdateVote_RecomputesSummary(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)

	vote := newTestVote(project, createTestUser(t, pool, "student"), 2, 1)
	_, err := repo.Create(ctx, vote)
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTestVote(project, createTestUser(t, pool, "student"), 4, 1))
	require.NoError(t, err)

	vote.Rating = 5
	vote.UpdatedAt = time.Now()
	summary, err := repo.Update(ctx, vote)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalVotes)
	assert.InDelta(t, 4.5, summary.AverageRating, 1e-9)
}

func TestUpdateVote_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)

	_, err := repo.Update(ctx, newTestVote(project, createTestUser(t, pool, "student"), 3, 1))
	assert.ErrorIs(t, err, domain.ErrVoteNotFound)
}

func TestDeleteVote_RecomputesSummary(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)

	vote := newTestVote(project, createTestUser(t, pool, "student"), 1, 1)
	_, err := repo.Create(ctx, vote)
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTestVote(project, createTestUser(t, pool, "student"), 5, 1))
	require.NoError(t, err)

	summary, err := repo.Delete(ctx, vote.ID, project)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalVotes)
	assert.InDelta(t, 5.0, summary.AverageRating, 1e-9)

	// Deleting the same vote again is a not-found
	_, err = repo.Delete(ctx, vote.ID, project)
	assert.ErrorIs(t, err, domain.ErrVoteNotFound)
}

func TestDeleteVote_LastVoteZeroesSummary(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)

	vote := newTestVote(project, createTestUser(t, pool, "student"), 4, 1)
	_, err := repo.Create(ctx, vote)
	require.NoError(t, err)

	summary, err := repo.Delete(ctx, vote.ID, project)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalVotes)
	assert.InDelta(t, 0.0, summary.AverageRating, 1e-9)
	assert.InDelta(t, 0.0, summary.WeightedScore, 1e-9)
}

func TestRecomputeSummary_WeightedScore(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)

	_, err := repo.Create(ctx, newTestVote(project, createTestUser(t, pool, "student"), 5, 2))
	require.NoError(t, err)
	summary, err := repo.Create(ctx, newTestVote(project, createTestUser(t, pool, "student"), 2, 1))
	require.NoError(t, err)

	// (5*2 + 2*1) / 3 = 4, against a plain average of 3.5
	assert.InDelta(t, 3.5, summary.AverageRating, 1e-9)
	assert.InDelta(t, 4.0, summary.WeightedScore, 1e-9)
}

func TestRecomputeSummary_ZeroWeightFallback(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)

	_, err := repo.Create(ctx, newTestVote(project, createTestUser(t, pool, "student"), 2, 0))
	require.NoError(t, err)
	summary, err := repo.Create(ctx, newTestVote(project, createTestUser(t, pool, "student"), 4, 0))
	require.NoError(t, err)

	// No positive weight to divide by: fall back to the plain average
	assert.InDelta(t, 3.0, summary.AverageRating, 1e-9)
	assert.InDelta(t, 3.0, summary.WeightedScore, 1e-9)
}

func TestGetSummary_NoVotes(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewVoteRepo(pool)
	ctx := context.Background()

	owner := createTestUser(t, pool, "student")
	project := createTestProject(t, pool, owner)

	summary, err := repo.GetSummary(ctx, project)
	require.NoError(t, err)
	assert.Equal(t, project, summary.ProjectID)
	assert.Equal(t, 0, summary.TotalVotes)
	assert.InDelta(t, 0.0, summary.AverageRating, 1e-9)
}
