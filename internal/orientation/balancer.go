// Package orientation assigns incoming orientation requests to the
// least-loaded active advisor.
package orientation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/edunova/platform/internal/domain"
)

// Balancer distributes orientation requests across advisors. Load is a live
// snapshot of open requests (pending or in_progress); ties are broken by the
// advisor listing order, which the repository keeps stable (created_at, id).
type Balancer struct {
	requests domain.OrientationRepository
	users    domain.UserRepository
	notifier domain.Notifier
	clock    clockwork.Clock
}

func NewBalancer(requests domain.OrientationRepository, users domain.UserRepository, notifier domain.Notifier, clock clockwork.Clock) *Balancer {
	return &Balancer{
		requests: requests,
		users:    users,
		notifier: notifier,
		clock:    clock,
	}
}

// CreateRequest stores a new request and auto-assigns the least-loaded
// advisor. When no advisor is active the request silently stays pending.
func (b *Balancer) CreateRequest(ctx context.Context, studentID uuid.UUID, topic, requestContext string) (*domain.OrientationRequest, error) {
	now := b.clock.Now()
	request := &domain.OrientationRequest{
		ID:        uuid.New(),
		StudentID: studentID,
		Topic:     topic,
		Context:   requestContext,
		Status:    domain.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create orientation request: %w", err)
	}

	advisor, err := b.Assign(ctx, request.ID, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNoAdvisorAvailable) {
			slog.Info("No advisor available, request stays pending", "request_id", request.ID.String())
			return request, nil
		}
		return nil, err
	}

	advisorID := advisor.ID
	request.AdvisorID = &advisorID
	request.Status = domain.RequestInProgress
	return request, nil
}

// Assign binds a request to an advisor. With an explicit advisor id the role
// is validated; otherwise the least-loaded active advisor is selected.
func (b *Balancer) Assign(ctx context.Context, requestID uuid.UUID, explicitAdvisorID *uuid.UUID) (*domain.User, error) {
	request, err := b.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var advisor *domain.User
	if explicitAdvisorID != nil {
		advisor, err = b.validateAdvisor(ctx, *explicitAdvisorID)
	} else {
		advisor, err = b.pickLeastLoaded(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := b.requests.SetAssignment(ctx, request.ID, advisor.ID, domain.RequestInProgress); err != nil {
		return nil, fmt.Errorf("failed to persist advisor assignment: %w", err)
	}

	b.notifier.Notify(ctx, advisor.ID,
		"Orientation request assigned",
		fmt.Sprintf("The request %q has been assigned to you.", request.Topic),
		fmt.Sprintf("/orientation/requests/%s", request.ID),
	)

	return advisor, nil
}

func (b *Balancer) validateAdvisor(ctx context.Context, advisorID uuid.UUID) (*domain.User, error) {
	user, err := b.users.GetByID(ctx, advisorID)
	if err != nil || user.Role != domain.RoleAdvisor {
		return nil, domain.ErrAdvisorNotFound
	}
	return user, nil
}

func (b *Balancer) pickLeastLoaded(ctx context.Context) (*domain.User, error) {
	advisors, err := b.users.ListActiveAdvisors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list advisors: %w", err)
	}
	if len(advisors) == 0 {
		return nil, domain.ErrNoAdvisorAvailable
	}

	ids := make([]uuid.UUID, 0, len(advisors))
	for _, advisor := range advisors {
		ids = append(ids, advisor.ID)
	}
	load, err := b.requests.CountOpenByAdvisor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count advisor load: %w", err)
	}

	// First minimum in listing order wins.
	best := advisors[0]
	bestLoad := load[best.ID]
	for _, advisor := range advisors[1:] {
		if load[advisor.ID] < bestLoad {
			best = advisor
			bestLoad = load[advisor.ID]
		}
	}
	return &best, nil
}
