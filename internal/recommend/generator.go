// Package recommend regenerates the per-user ranked project list. Each
// refresh fully replaces the previous list; nothing is patched incrementally.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/edunova/platform/internal/domain"
	"github.com/edunova/platform/internal/logging"
	"github.com/edunova/platform/internal/metrics"
)

// MaxRecommendations is the fixed size cap of a personalized list.
const MaxRecommendations = 10

type Generator struct {
	projects domain.ProjectRepository
	recs     domain.RecommendationRepository
	sponsors domain.SponsorRepository
	users    domain.UserRepository
	notifier domain.Notifier
	clock    clockwork.Clock
	// group collapses concurrent refreshes for the same user.
	group singleflight.Group
}

func NewGenerator(projects domain.ProjectRepository, recs domain.RecommendationRepository, sponsors domain.SponsorRepository, users domain.UserRepository, notifier domain.Notifier, clock clockwork.Clock) *Generator {
	return &Generator{
		projects: projects,
		recs:     recs,
		sponsors: sponsors,
		users:    users,
		notifier: notifier,
		clock:    clock,
	}
}

// Refresh regenerates the ranked list for a user. Sponsors with declared
// interests only see projects in those categories. An empty candidate set
// clears the stored list and sends no notification.
func (g *Generator) Refresh(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error) {
	result, err, _ := g.group.Do(userID.String(), func() (any, error) {
		return g.refresh(ctx, userID)
	})
	if err != nil {
		metrics.RecommendationRefreshes.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RecommendationRefreshes.WithLabelValues("ok").Inc()
	return result.([]domain.Recommendation), nil
}

func (g *Generator) refresh(ctx context.Context, userID uuid.UUID) ([]domain.Recommendation, error) {
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for recommendations: %w", err)
	}

	categories, err := g.interestCategories(ctx, user)
	if err != nil {
		return nil, err
	}

	candidates, err := g.projects.ListCandidates(ctx, userID, categories, MaxRecommendations)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate projects: %w", err)
	}

	if len(candidates) == 0 {
		if err := g.recs.DeleteForUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to clear recommendations: %w", err)
		}
		return nil, nil
	}

	now := g.clock.Now()
	recs := make([]domain.Recommendation, 0, len(candidates))
	for _, project := range candidates {
		score := project.FinalScore
		if score == 0 {
			score = project.CommunityScore
		}
		recs = append(recs, domain.Recommendation{
			ID:        uuid.New(),
			UserID:    userID,
			ProjectID: project.ID,
			Score:     score,
			CreatedAt: now,
		})
	}

	if err := g.recs.Replace(ctx, userID, recs); err != nil {
		return nil, fmt.Errorf("failed to replace recommendations: %w", err)
	}

	g.notifier.Notify(ctx, userID,
		"New recommendations available",
		"We refreshed the projects that might interest you.",
		"/projects/recommended",
	)

	return recs, nil
}

// interestCategories returns the lowered category filter for sponsors with a
// profile, nil for everyone else. A missing sponsor profile is not an error.
func (g *Generator) interestCategories(ctx context.Context, user *domain.User) ([]string, error) {
	if user.Role != domain.RoleSponsor {
		return nil, nil
	}

	profile, err := g.sponsors.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSponsorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load sponsor profile: %w", err)
	}
	if len(profile.Interests) == 0 {
		return nil, nil
	}

	categories := make([]string, 0, len(profile.Interests))
	for _, interest := range profile.Interests {
		categories = append(categories, strings.ToLower(interest))
	}
	logging.WithUser(user.ID.String()).Debug("Filtering recommendations by sponsor interests", "categories", categories)
	return categories, nil
}
