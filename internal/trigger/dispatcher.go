// Package trigger maps domain events to the recomputation tasks they imply.
package trigger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edunova/platform/internal/domain"
	"github.com/edunova/platform/internal/tasks"
)

// Task names understood by the worker pool.
const (
	TaskAnalyzeSentiment       = "sentiment.analyze"
	TaskUpdateScores           = "scores.update"
	TaskRefreshRecommendations = "recommendations.refresh"
)

// Dispatcher translates events into scheduled tasks. It is the single place
// deciding which recomputations a change fans out to.
type Dispatcher struct {
	scheduler domain.TaskScheduler
	scores    domain.ScoreStore
}

func NewDispatcher(scheduler domain.TaskScheduler, scores domain.ScoreStore) *Dispatcher {
	return &Dispatcher{scheduler: scheduler, scores: scores}
}

// VoteChanged fans out after any vote create, update, or delete: re-analyze
// the project's comment sentiment, recompute its scores, and refresh the
// voter's recommendations.
func (d *Dispatcher) VoteChanged(ctx context.Context, projectID, voterID uuid.UUID) {
	d.scheduler.Schedule(ctx, TaskAnalyzeSentiment, tasks.ProjectPayload(projectID.String()))
	d.scheduler.Schedule(ctx, TaskUpdateScores, tasks.ProjectPayload(projectID.String()))
	d.scheduler.Schedule(ctx, TaskRefreshRecommendations, tasks.UserPayload(voterID.String()))
}

// TeamChanged recomputes scores after membership changes; feasibility depends
// on team size.
func (d *Dispatcher) TeamChanged(ctx context.Context, projectID uuid.UUID) {
	d.scheduler.Schedule(ctx, TaskUpdateScores, tasks.ProjectPayload(projectID.String()))
}

// ProjectCreated makes sure the evaluation shell exists before scoring runs,
// then schedules the initial score computation.
func (d *Dispatcher) ProjectCreated(ctx context.Context, projectID uuid.UUID) {
	if err := d.scores.EnsureEvaluation(ctx, projectID); err != nil {
		slog.Error("Failed to create evaluation shell", "project_id", projectID, "error", err)
	}
	d.scheduler.Schedule(ctx, TaskUpdateScores, tasks.ProjectPayload(projectID.String()))
}
