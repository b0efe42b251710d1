// Package votes owns the one-vote-per-user-per-project ledger and its derived
// per-project summary.
package votes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/edunova/platform/internal/domain"
	"github.com/edunova/platform/internal/sentiment"
)

const minCommentLength = 10

// Events is the subset of the recomputation dispatcher the ledger emits to.
type Events interface {
	VoteChanged(ctx context.Context, projectID, voterID uuid.UUID)
}

// Ledger validates and persists votes. Every mutation recomputes the owning
// project's VoteSummary inside the repository transaction before returning.
type Ledger struct {
	votes    domain.VoteRepository
	projects domain.ProjectRepository
	notifier domain.Notifier
	events   Events
	clock    clockwork.Clock
}

func NewLedger(votes domain.VoteRepository, projects domain.ProjectRepository, notifier domain.Notifier, events Events, clock clockwork.Clock) *Ledger {
	return &Ledger{
		votes:    votes,
		projects: projects,
		notifier: notifier,
		events:   events,
		clock:    clock,
	}
}

// Record creates a vote for (voter, project). The comment's sentiment is
// derived inline so the stored vote is never without a label.
func (l *Ledger) Record(ctx context.Context, voter *domain.User, projectID uuid.UUID, rating int, comment string) (*domain.Vote, error) {
	if err := validate(rating, comment); err != nil {
		return nil, err
	}

	project, err := l.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project for vote: %w", err)
	}

	analysis := sentiment.Analyze(comment)
	now := l.clock.Now()
	vote := &domain.Vote{
		ID:             uuid.New(),
		ProjectID:      projectID,
		VoterID:        voter.ID,
		Rating:         rating,
		Comment:        strings.TrimSpace(comment),
		SentimentLabel: analysis.Label,
		SentimentScore: analysis.Score,
		Weight:         analysis.Weight,
		PositiveHits:   analysis.PositiveHits,
		NegativeHits:   analysis.NegativeHits,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := l.votes.Create(ctx, vote); err != nil {
		return nil, err
	}

	l.events.VoteChanged(ctx, projectID, voter.ID)

	if project.OwnerID != voter.ID {
		l.notifier.Notify(ctx, project.OwnerID,
			"New vote",
			fmt.Sprintf("%s rated your project.", voter.DisplayName()),
			fmt.Sprintf("/projects/%s", projectID),
		)
	}

	return vote, nil
}

// Update changes the rating and/or comment of an existing vote. Only the
// vote's own voter may update it. A new comment re-runs sentiment analysis.
func (l *Ledger) Update(ctx context.Context, actor *domain.User, voteID uuid.UUID, rating *int, comment *string) (*domain.Vote, error) {
	vote, err := l.votes.GetByID(ctx, voteID)
	if err != nil {
		return nil, err
	}
	if vote.VoterID != actor.ID {
		return nil, domain.ErrPermissionDenied
	}

	newRating := vote.Rating
	if rating != nil {
		newRating = *rating
	}
	newComment := vote.Comment
	if comment != nil {
		newComment = *comment
	}
	if err := validate(newRating, newComment); err != nil {
		return nil, err
	}

	vote.Rating = newRating
	if comment != nil {
		analysis := sentiment.Analyze(newComment)
		vote.Comment = strings.TrimSpace(newComment)
		vote.SentimentLabel = analysis.Label
		vote.SentimentScore = analysis.Score
		vote.Weight = analysis.Weight
		vote.PositiveHits = analysis.PositiveHits
		vote.NegativeHits = analysis.NegativeHits
	}
	vote.UpdatedAt = l.clock.Now()

	if _, err := l.votes.Update(ctx, vote); err != nil {
		return nil, err
	}

	l.events.VoteChanged(ctx, vote.ProjectID, vote.VoterID)
	return vote, nil
}

// Delete removes a vote. Permitted only for the vote's own voter or an admin.
func (l *Ledger) Delete(ctx context.Context, actor *domain.User, voteID uuid.UUID) error {
	vote, err := l.votes.GetByID(ctx, voteID)
	if err != nil {
		return err
	}
	if vote.VoterID != actor.ID && actor.Role != domain.RoleAdmin {
		return domain.ErrPermissionDenied
	}

	summary, err := l.votes.Delete(ctx, voteID, vote.ProjectID)
	if err != nil {
		return err
	}
	slog.Debug("Vote deleted", "vote_id", voteID.String(), "remaining_votes", summary.TotalVotes)

	l.events.VoteChanged(ctx, vote.ProjectID, vote.VoterID)
	return nil
}

// Summary returns the cached aggregate for a project.
func (l *Ledger) Summary(ctx context.Context, projectID uuid.UUID) (*domain.VoteSummary, error) {
	return l.votes.GetSummary(ctx, projectID)
}

func validate(rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return domain.ErrInvalidRating
	}
	if utf8.RuneCountInString(strings.TrimSpace(comment)) < minCommentLength {
		return domain.ErrCommentTooShort
	}
	return nil
}
