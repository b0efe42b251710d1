package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunova/platform/internal/domain"
	"github.com/edunova/platform/internal/recommend"
	"github.com/edunova/platform/internal/tasks"
	"github.com/edunova/platform/internal/trigger"
)

type mockUserRepo struct {
	getByIDFunc func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, userID)
}

func (m *mockUserRepo) ListActiveAdvisors(ctx context.Context) ([]domain.User, error) {
	return nil, nil
}

type mockProjectRepo struct {
	getByIDFunc     func(ctx context.Context, projectID uuid.UUID) (*domain.Project, error)
	createFunc      func(ctx context.Context, p *domain.Project) error
	teamSizeFunc    func(ctx context.Context, projectID uuid.UUID) (int, error)
	addMemberFunc   func(ctx context.Context, projectID, userID uuid.UUID) error
	listLiveIDsFunc func(ctx context.Context) ([]uuid.UUID, error)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return m.getByIDFunc(ctx, projectID)
}

func (m *mockProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	return m.createFunc(ctx, p)
}

func (m *mockProjectRepo) TeamSize(ctx context.Context, projectID uuid.UUID) (int, error) {
	return m.teamSizeFunc(ctx, projectID)
}

func (m *mockProjectRepo) AddTeamMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return m.addMemberFunc(ctx, projectID, userID)
}

func (m *mockProjectRepo) RemoveTeamMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return nil
}

func (m *mockProjectRepo) ClearTeam(ctx context.Context, projectID uuid.UUID) error {
	return nil
}

func (m *mockProjectRepo) ListCandidates(ctx context.Context, excludeOwner uuid.UUID, categories []string, limit int) ([]domain.Project, error) {
	return nil, nil
}

func (m *mockProjectRepo) ListLiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return m.listLiveIDsFunc(ctx)
}

type mockVoteRepo struct {
	listByProjectFunc    func(ctx context.Context, projectID uuid.UUID) ([]domain.Vote, error)
	updateSentimentsFunc func(ctx context.Context, updates []domain.SentimentUpdate) error
}

func (m *mockVoteRepo) GetByID(ctx context.Context, voteID uuid.UUID) (*domain.Vote, error) {
	return nil, domain.ErrVoteNotFound
}

func (m *mockVoteRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Vote, error) {
	return m.listByProjectFunc(ctx, projectID)
}

func (m *mockVoteRepo) Create(ctx context.Context, v *domain.Vote) (*domain.VoteSummary, error) {
	return nil, nil
}

func (m *mockVoteRepo) Update(ctx context.Context, v *domain.Vote) (*domain.VoteSummary, error) {
	return nil, nil
}

func (m *mockVoteRepo) Delete(ctx context.Context, voteID, projectID uuid.UUID) (*domain.VoteSummary, error) {
	return nil, nil
}

func (m *mockVoteRepo) UpdateSentiments(ctx context.Context, updates []domain.SentimentUpdate) error {
	return m.updateSentimentsFunc(ctx, updates)
}

func (m *mockVoteRepo) GetSummary(ctx context.Context, projectID uuid.UUID) (*domain.VoteSummary, error) {
	return &domain.VoteSummary{ProjectID: projectID}, nil
}

type mockScoreStore struct {
	ensureFunc func(ctx context.Context, projectID uuid.UUID) error
	saveFunc   func(ctx context.Context, projectID uuid.UUID, s domain.Scores) error
}

func (m *mockScoreStore) EnsureEvaluation(ctx context.Context, projectID uuid.UUID) error {
	if m.ensureFunc == nil {
		return nil
	}
	return m.ensureFunc(ctx, projectID)
}

func (m *mockScoreStore) SaveScores(ctx context.Context, projectID uuid.UUID, s domain.Scores) error {
	return m.saveFunc(ctx, projectID, s)
}

func (m *mockScoreStore) GetEvaluation(ctx context.Context, projectID uuid.UUID) (*domain.EvaluationResult, error) {
	return nil, domain.ErrProjectNotFound
}

type scheduledTask struct {
	task    string
	payload map[string]string
}

type mockScheduler struct {
	calls []scheduledTask
}

func (m *mockScheduler) Schedule(ctx context.Context, task string, payload map[string]string) {
	m.calls = append(m.calls, scheduledTask{task: task, payload: payload})
}

func newTestService(projects *mockProjectRepo, voteRepo *mockVoteRepo, store *mockScoreStore, scheduler *mockScheduler) *Service {
	return New(Deps{
		Projects:   projects,
		Votes:      voteRepo,
		Scores:     store,
		Dispatcher: trigger.NewDispatcher(scheduler, store),
		Clock:      clockwork.NewFakeClock(),
	})
}

func TestHandleUpdateScores_Idempotent(t *testing.T) {
	projectID := uuid.New()
	projects := &mockProjectRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
			return &domain.Project{
				ID:          projectID,
				Description: "A learning platform for rural schools built with volunteers",
				Objectives:  "Teach every child to read",
			}, nil
		},
		teamSizeFunc: func(ctx context.Context, id uuid.UUID) (int, error) { return 3, nil },
	}
	voteRepo := &mockVoteRepo{
		listByProjectFunc: func(ctx context.Context, id uuid.UUID) ([]domain.Vote, error) {
			return []domain.Vote{{Rating: 4}, {Rating: 5}}, nil
		},
	}

	var saved []domain.Scores
	store := &mockScoreStore{
		saveFunc: func(ctx context.Context, id uuid.UUID, s domain.Scores) error {
			assert.Equal(t, projectID, id)
			saved = append(saved, s)
			return nil
		},
	}
	svc := newTestService(projects, voteRepo, store, &mockScheduler{})

	payload := tasks.ProjectPayload(projectID.String())
	require.NoError(t, svc.handleUpdateScores(context.Background(), payload))
	require.NoError(t, svc.handleUpdateScores(context.Background(), payload))

	require.Len(t, saved, 2)
	assert.Equal(t, saved[0], saved[1])
	assert.Equal(t, 90.0, saved[0].CommunityScore)
	assert.Greater(t, saved[0].FinalScore, 0.0)
}

func TestHandleUpdateScores_MissingProjectID(t *testing.T) {
	svc := newTestService(&mockProjectRepo{}, &mockVoteRepo{}, &mockScoreStore{}, &mockScheduler{})

	err := svc.handleUpdateScores(context.Background(), tasks.Payload{})
	assert.Error(t, err)
}

func TestHandleAnalyzeSentiment_UpdatesAllVotes(t *testing.T) {
	projectID := uuid.New()
	voteA, voteB := uuid.New(), uuid.New()
	voteRepo := &mockVoteRepo{
		listByProjectFunc: func(ctx context.Context, id uuid.UUID) ([]domain.Vote, error) {
			return []domain.Vote{
				{ID: voteA, Comment: "an excellent and innovative concept"},
				{ID: voteB, Comment: "a weak plan with a real problem"},
			}, nil
		},
	}

	var got []domain.SentimentUpdate
	voteRepo.updateSentimentsFunc = func(ctx context.Context, updates []domain.SentimentUpdate) error {
		got = updates
		return nil
	}
	svc := newTestService(&mockProjectRepo{}, voteRepo, &mockScoreStore{}, &mockScheduler{})

	err := svc.handleAnalyzeSentiment(context.Background(), tasks.ProjectPayload(projectID.String()))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, voteA, got[0].VoteID)
	assert.Equal(t, domain.SentimentPositive, got[0].Label)
	assert.Equal(t, voteB, got[1].VoteID)
	assert.Equal(t, domain.SentimentNegative, got[1].Label)
}

func TestCreateProject_EnsuresShellAndSchedulesScoring(t *testing.T) {
	var created *domain.Project
	projects := &mockProjectRepo{
		createFunc: func(ctx context.Context, p *domain.Project) error {
			created = p
			return nil
		},
	}
	ensured := uuid.Nil
	store := &mockScoreStore{
		ensureFunc: func(ctx context.Context, projectID uuid.UUID) error {
			ensured = projectID
			return nil
		},
	}
	scheduler := &mockScheduler{}
	svc := newTestService(projects, &mockVoteRepo{}, store, scheduler)

	project, err := svc.CreateProject(context.Background(), &domain.Project{
		OwnerID:  uuid.New(),
		Title:    "Solar kits",
		Category: domain.CategoryEnvironment,
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.NotEqual(t, uuid.Nil, project.ID)
	assert.Equal(t, domain.StateLive, project.State)
	assert.Equal(t, domain.StatusIdea, project.Status)
	assert.Equal(t, project.ID, ensured)
	require.Len(t, scheduler.calls, 1)
	assert.Equal(t, trigger.TaskUpdateScores, scheduler.calls[0].task)
}

func TestAddTeamMember_TriggersRescore(t *testing.T) {
	projectID := uuid.New()
	userID := uuid.New()
	projects := &mockProjectRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
			return &domain.Project{ID: id}, nil
		},
		addMemberFunc: func(ctx context.Context, pID, uID uuid.UUID) error {
			assert.Equal(t, projectID, pID)
			assert.Equal(t, userID, uID)
			return nil
		},
	}
	scheduler := &mockScheduler{}
	svc := newTestService(projects, &mockVoteRepo{}, &mockScoreStore{}, scheduler)
	svc.users = &mockUserRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
			return &domain.User{ID: id, Role: domain.RoleStudent}, nil
		},
	}

	require.NoError(t, svc.AddTeamMember(context.Background(), projectID, userID))

	require.Len(t, scheduler.calls, 1)
	assert.Equal(t, trigger.TaskUpdateScores, scheduler.calls[0].task)
	assert.Equal(t, projectID.String(), scheduler.calls[0].payload["project_id"])
}

func TestSweepOnce_SchedulesEveryLiveProject(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	projects := &mockProjectRepo{
		listLiveIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
			return ids, nil
		},
	}
	scheduler := &mockScheduler{}
	svc := newTestService(projects, &mockVoteRepo{}, &mockScoreStore{}, scheduler)

	svc.sweepOnce(context.Background(), scheduler)

	require.Len(t, scheduler.calls, len(ids))
	for i, call := range scheduler.calls {
		assert.Equal(t, trigger.TaskUpdateScores, call.task)
		assert.Equal(t, ids[i].String(), call.payload["project_id"])
	}
}

func TestStartSweep_FiresOnTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	listed := make(chan struct{}, 1)
	projects := &mockProjectRepo{
		listLiveIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
			listed <- struct{}{}
			return nil, nil
		},
	}
	scheduler := &mockScheduler{}
	svc := New(Deps{
		Projects:      projects,
		Clock:         clock,
		SweepInterval: time.Hour,
	})

	svc.StartSweep(scheduler)
	clock.BlockUntil(1)
	clock.Advance(time.Hour)

	select {
	case <-listed:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run after tick")
	}
	svc.StopSweep()
}

func TestHandleRefreshRecommendations_InvalidUserID(t *testing.T) {
	svc := newTestService(&mockProjectRepo{}, &mockVoteRepo{}, &mockScoreStore{}, &mockScheduler{})
	svc.generator = recommend.NewGenerator(&mockProjectRepo{}, nil, nil, nil, nil, clockwork.NewFakeClock())

	err := svc.handleRefreshRecommendations(context.Background(), tasks.Payload{"user_id": "not-a-uuid"})
	assert.Error(t, err)
}
