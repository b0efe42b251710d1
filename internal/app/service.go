// Package app wires the scoring pipeline together: it owns the inbound
// operations, the asynchronous task handlers, and the periodic score sweep.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/edunova/platform/internal/domain"
	"github.com/edunova/platform/internal/logging"
	"github.com/edunova/platform/internal/metrics"
	"github.com/edunova/platform/internal/orientation"
	"github.com/edunova/platform/internal/recommend"
	"github.com/edunova/platform/internal/scoring"
	"github.com/edunova/platform/internal/sentiment"
	"github.com/edunova/platform/internal/tasks"
	"github.com/edunova/platform/internal/trigger"
	"github.com/edunova/platform/internal/votes"
)

// Service is the application facade. HTTP handlers call its inbound
// operations; the task queue calls its handlers.
type Service struct {
	users         domain.UserRepository
	projects      domain.ProjectRepository
	voteRepo      domain.VoteRepository
	scores        domain.ScoreStore
	recs          domain.RecommendationRepository
	notifications domain.NotificationRepository
	prediction    domain.PredictionLogRepository

	ledger     *votes.Ledger
	generator  *recommend.Generator
	balancer   *orientation.Balancer
	dispatcher *trigger.Dispatcher

	clock         clockwork.Clock
	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepDone     chan struct{}
}

type Deps struct {
	Users         domain.UserRepository
	Projects      domain.ProjectRepository
	Votes         domain.VoteRepository
	Scores        domain.ScoreStore
	Recs          domain.RecommendationRepository
	Notifications domain.NotificationRepository
	Prediction    domain.PredictionLogRepository

	Ledger     *votes.Ledger
	Generator  *recommend.Generator
	Balancer   *orientation.Balancer
	Dispatcher *trigger.Dispatcher

	Clock         clockwork.Clock
	SweepInterval time.Duration
}

func New(deps Deps) *Service {
	return &Service{
		users:         deps.Users,
		projects:      deps.Projects,
		voteRepo:      deps.Votes,
		scores:        deps.Scores,
		recs:          deps.Recs,
		notifications: deps.Notifications,
		prediction:    deps.Prediction,
		ledger:        deps.Ledger,
		generator:     deps.Generator,
		balancer:      deps.Balancer,
		dispatcher:    deps.Dispatcher,
		clock:         deps.Clock,
		sweepInterval: deps.SweepInterval,
		stopSweep:     make(chan struct{}),
		sweepDone:     make(chan struct{}),
	}
}

// RegisterHandlers binds the recomputation tasks to the queue. Handlers are
// idempotent: they recompute from current state, so redelivery is harmless.
func (s *Service) RegisterHandlers(q *tasks.Queue) {
	q.Register(trigger.TaskAnalyzeSentiment, s.handleAnalyzeSentiment)
	q.Register(trigger.TaskUpdateScores, s.handleUpdateScores)
	q.Register(trigger.TaskRefreshRecommendations, s.handleRefreshRecommendations)
}

// --- Inbound operations ---

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// CreateProject persists a new project, makes sure its evaluation shell
// exists, and schedules the initial score computation.
func (s *Service) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.State = domain.StateLive
	if p.Status == "" {
		p.Status = domain.StatusIdea
	}
	p.CreatedAt = s.clock.Now()
	p.UpdatedAt = p.CreatedAt

	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}

	s.dispatcher.ProjectCreated(ctx, p.ID)
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, projectID uuid.UUID) (*domain.Project, error) {
	return s.projects.GetByID(ctx, projectID)
}

func (s *Service) AddTeamMember(ctx context.Context, projectID, userID uuid.UUID) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.projects.AddTeamMember(ctx, projectID, userID); err != nil {
		return err
	}
	s.dispatcher.TeamChanged(ctx, projectID)
	return nil
}

func (s *Service) RemoveTeamMember(ctx context.Context, projectID, userID uuid.UUID) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return err
	}
	if err := s.projects.RemoveTeamMember(ctx, projectID, userID); err != nil {
		return err
	}
	s.dispatcher.TeamChanged(ctx, projectID)
	return nil
}

func (s *Service) ClearTeam(ctx context.Context, projectID uuid.UUID) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return err
	}
	if err := s.projects.ClearTeam(ctx, projectID); err != nil {
		return err
	}
	s.dispatcher.TeamChanged(ctx, projectID)
	return nil
}

func (s *Service) CastVote(ctx context.Context, voterID, projectID uuid.UUID, rating int, comment string) (*domain.Vote, error) {
	voter, err := s.users.GetByID(ctx, voterID)
	if err != nil {
		return nil, err
	}
	return s.ledger.Record(ctx, voter, projectID, rating, comment)
}

func (s *Service) UpdateVote(ctx context.Context, actorID, voteID uuid.UUID, rating *int, comment *string) (*domain.Vote, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.ledger.Update(ctx, actor, voteID, rating, comment)
}

func (s *Service) DeleteVote(ctx context.Context, actorID, voteID uuid.UUID) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	return s.ledger.Delete(ctx, actor, voteID)
}

func (s *Service) GetVoteSummary(ctx context.Context, projectID uuid.UUID) (*domain.VoteSummary, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.ledger.Summary(ctx, projectID)
}

func (s *Service) GetEvaluation(ctx context.Context, projectID uuid.UUID) (*domain.EvaluationResult, error) {
	return s.scores.GetEvaluation(ctx, projectID)
}

func (s *Service) RefreshRecommendations(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error) {
	return s.generator.Refresh(ctx, userID)
}

func (s *Service) ListRecommendations(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.recs.ListForUser(ctx, userID)
}

func (s *Service) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.notifications.ListForUser(ctx, userID, limit)
}

func (s *Service) CreateOrientationRequest(ctx context.Context, studentID uuid.UUID, topic, requestContext string) (*domain.OrientationRequest, error) {
	if _, err := s.users.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.balancer.CreateRequest(ctx, studentID, topic, requestContext)
}

func (s *Service) AssignAdvisor(ctx context.Context, requestID uuid.UUID, explicitAdvisorID *uuid.UUID) (*domain.User, error) {
	return s.balancer.Assign(ctx, requestID, explicitAdvisorID)
}

// --- Task handlers ---

// handleAnalyzeSentiment re-derives sentiment for every vote on a project and
// persists the batch atomically.
func (s *Service) handleAnalyzeSentiment(ctx context.Context, payload tasks.Payload) error {
	projectID, err := projectIDFrom(payload)
	if err != nil {
		return err
	}

	start := s.clock.Now()
	voteList, err := s.voteRepo.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	updates := make([]domain.SentimentUpdate, 0, len(voteList))
	for _, v := range voteList {
		result := sentiment.Analyze(v.Comment)
		updates = append(updates, domain.SentimentUpdate{
			VoteID:       v.ID,
			Label:        result.Label,
			Score:        result.Score,
			Weight:       result.Weight,
			PositiveHits: result.PositiveHits,
			NegativeHits: result.NegativeHits,
		})
	}

	if err := s.voteRepo.UpdateSentiments(ctx, updates); err != nil {
		return err
	}

	s.appendLog(ctx, "sentiment", map[string]any{
		"project_id": projectID.String(),
		"votes":      len(voteList),
	}, map[string]any{
		"updated": len(updates),
	}, start, true)
	return nil
}

// handleUpdateScores recomputes the full score set for one project from its
// current description, team, and votes. Running it twice in a row writes the
// same values twice.
func (s *Service) handleUpdateScores(ctx context.Context, payload tasks.Payload) error {
	projectID, err := projectIDFrom(payload)
	if err != nil {
		return err
	}

	start := s.clock.Now()
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		metrics.ScoreRecomputations.WithLabelValues("error").Inc()
		return err
	}

	voteList, err := s.voteRepo.ListByProject(ctx, projectID)
	if err != nil {
		metrics.ScoreRecomputations.WithLabelValues("error").Inc()
		return err
	}
	ratings := make([]int, 0, len(voteList))
	for _, v := range voteList {
		ratings = append(ratings, v.Rating)
	}

	teamSize, err := s.projects.TeamSize(ctx, projectID)
	if err != nil {
		metrics.ScoreRecomputations.WithLabelValues("error").Inc()
		return err
	}

	computed := scoring.Compute(scoring.Inputs{
		Description:       project.Description,
		Objectives:        project.Objectives,
		ExpectedImpact:    project.ExpectedImpact,
		RequiredResources: project.RequiredResources,
		TeamSize:          teamSize,
		Ratings:           ratings,
	})

	if err := s.scores.SaveScores(ctx, projectID, computed); err != nil {
		metrics.ScoreRecomputations.WithLabelValues("error").Inc()
		return err
	}

	metrics.ScoreRecomputations.WithLabelValues("ok").Inc()
	logging.WithProject(projectID.String()).Debug("Scores recomputed",
		"ai_score", computed.AIScore, "final_score", computed.FinalScore)
	s.appendLog(ctx, "scoring", map[string]any{
		"project_id": projectID.String(),
		"team_size":  teamSize,
		"votes":      len(ratings),
	}, map[string]any{
		"ai_score":    computed.AIScore,
		"final_score": computed.FinalScore,
	}, start, true)
	return nil
}

func (s *Service) handleRefreshRecommendations(ctx context.Context, payload tasks.Payload) error {
	raw, err := tasks.FromPayload(payload, "user_id")
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return err
	}

	_, err = s.generator.Refresh(ctx, userID)
	return err
}

func projectIDFrom(payload tasks.Payload) (uuid.UUID, error) {
	raw, err := tasks.FromPayload(payload, "project_id")
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(raw)
}

// appendLog records a heuristic run for auditing. Best-effort.
func (s *Service) appendLog(ctx context.Context, kind string, input, output map[string]any, start time.Time, success bool) {
	if s.prediction == nil {
		return
	}
	entry := &domain.PredictionLog{
		ID:         uuid.New(),
		Kind:       kind,
		Input:      input,
		Output:     output,
		DurationMs: s.clock.Since(start).Milliseconds(),
		Success:    success,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.prediction.Append(ctx, entry); err != nil {
		slog.Warn("Failed to append prediction log", "kind", kind, "error", err)
	}
}

// --- Periodic sweep ---

// StartSweep periodically recomputes scores for every live project, catching
// drift from missed events. No-op when the interval is zero.
func (s *Service) StartSweep(scheduler domain.TaskScheduler) {
	if s.sweepInterval <= 0 {
		close(s.sweepDone)
		return
	}

	go func() {
		defer close(s.sweepDone)
		ticker := s.clock.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopSweep:
				return
			case <-ticker.Chan():
				s.sweepOnce(context.Background(), scheduler)
			}
		}
	}()
}

func (s *Service) sweepOnce(ctx context.Context, scheduler domain.TaskScheduler) {
	ids, err := s.projects.ListLiveIDs(ctx)
	if err != nil {
		slog.Error("Score sweep failed to list projects", "error", err)
		return
	}
	for _, id := range ids {
		scheduler.Schedule(ctx, trigger.TaskUpdateScores, tasks.ProjectPayload(id.String()))
	}
	slog.Info("Score sweep scheduled", "projects", len(ids))
}

// StopSweep stops the periodic sweep and waits for it to exit.
func (s *Service) StopSweep() {
	close(s.stopSweep)
	<-s.sweepDone
}
