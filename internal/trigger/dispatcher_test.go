package trigger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunova/platform/internal/domain"
)

type scheduled struct {
	task    string
	payload map[string]string
}

type mockScheduler struct {
	calls []scheduled
}

func (m *mockScheduler) Schedule(ctx context.Context, task string, payload map[string]string) {
	m.calls = append(m.calls, scheduled{task: task, payload: payload})
}

type mockScoreStore struct {
	ensureFunc func(ctx context.Context, projectID uuid.UUID) error
}

func (m *mockScoreStore) EnsureEvaluation(ctx context.Context, projectID uuid.UUID) error {
	return m.ensureFunc(ctx, projectID)
}

func (m *mockScoreStore) SaveScores(ctx context.Context, projectID uuid.UUID, s domain.Scores) error {
	return nil
}

func (m *mockScoreStore) GetEvaluation(ctx context.Context, projectID uuid.UUID) (*domain.EvaluationResult, error) {
	return nil, nil
}

func TestVoteChanged_FansOutThreeTasks(t *testing.T) {
	scheduler := &mockScheduler{}
	d := NewDispatcher(scheduler, &mockScoreStore{})

	projectID := uuid.New()
	voterID := uuid.New()
	d.VoteChanged(context.Background(), projectID, voterID)

	require.Len(t, scheduler.calls, 3)
	assert.Equal(t, TaskAnalyzeSentiment, scheduler.calls[0].task)
	assert.Equal(t, projectID.String(), scheduler.calls[0].payload["project_id"])
	assert.Equal(t, TaskUpdateScores, scheduler.calls[1].task)
	assert.Equal(t, projectID.String(), scheduler.calls[1].payload["project_id"])
	assert.Equal(t, TaskRefreshRecommendations, scheduler.calls[2].task)
	assert.Equal(t, voterID.String(), scheduler.calls[2].payload["user_id"])
}

func TestTeamChanged_SchedulesScoreUpdate(t *testing.T) {
	scheduler := &mockScheduler{}
	d := NewDispatcher(scheduler, &mockScoreStore{})

	projectID := uuid.New()
	d.TeamChanged(context.Background(), projectID)

	require.Len(t, scheduler.calls, 1)
	assert.Equal(t, TaskUpdateScores, scheduler.calls[0].task)
	assert.Equal(t, projectID.String(), scheduler.calls[0].payload["project_id"])
}

func TestProjectCreated_EnsuresEvaluationThenSchedules(t *testing.T) {
	scheduler := &mockScheduler{}
	ensured := uuid.Nil
	store := &mockScoreStore{
		ensureFunc: func(ctx context.Context, projectID uuid.UUID) error {
			ensured = projectID
			return nil
		},
	}
	d := NewDispatcher(scheduler, store)

	projectID := uuid.New()
	d.ProjectCreated(context.Background(), projectID)

	assert.Equal(t, projectID, ensured)
	require.Len(t, scheduler.calls, 1)
	assert.Equal(t, TaskUpdateScores, scheduler.calls[0].task)
}

func TestProjectCreated_SchedulesEvenWhenShellFails(t *testing.T) {
	scheduler := &mockScheduler{}
	store := &mockScoreStore{
		ensureFunc: func(ctx context.Context, projectID uuid.UUID) error {
			return assert.AnError
		},
	}
	d := NewDispatcher(scheduler, store)

	d.ProjectCreated(context.Background(), uuid.New())

	require.Len(t, scheduler.calls, 1)
	assert.Equal(t, TaskUpdateScores, scheduler.calls[0].task)
}
