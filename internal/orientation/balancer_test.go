package orientation

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunova/platform/internal/domain"
)

// --- Mock implementations ---

type assignment struct {
	requestID uuid.UUID
	advisorID uuid.UUID
	status    domain.RequestStatus
}

type mockOrientationRepo struct {
	requests    map[uuid.UUID]*domain.OrientationRequest
	load        map[uuid.UUID]int
	assignments []assignment
}

func newMockOrientationRepo() *mockOrientationRepo {
	return &mockOrientationRepo{
		requests: make(map[uuid.UUID]*domain.OrientationRequest),
		load:     make(map[uuid.UUID]int),
	}
}

func (m *mockOrientationRepo) GetByID(_ context.Context, requestID uuid.UUID) (*domain.OrientationRequest, error) {
	if r, ok := m.requests[requestID]; ok {
		return r, nil
	}
	return nil, domain.ErrRequestNotFound
}

func (m *mockOrientationRepo) Create(_ context.Context, r *domain.OrientationRequest) error {
	m.requests[r.ID] = r
	return nil
}

func (m *mockOrientationRepo) SetAssignment(_ context.Context, requestID, advisorID uuid.UUID, status domain.RequestStatus) error {
	m.assignments = append(m.assignments, assignment{requestID: requestID, advisorID: advisorID, status: status})
	m.load[advisorID]++
	return nil
}

func (m *mockOrientationRepo) CountOpenByAdvisor(_ context.Context, advisorIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, id := range advisorIDs {
		if n := m.load[id]; n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

type mockUserRepo struct {
	users    map[uuid.UUID]*domain.User
	advisors []domain.User
}

func (m *mockUserRepo) GetByID(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) ListActiveAdvisors(context.Context) ([]domain.User, error) {
	return m.advisors, nil
}

type mockNotifier struct {
	notified []uuid.UUID
}

func (m *mockNotifier) Notify(_ context.Context, recipientID uuid.UUID, _, _, _ string) {
	m.notified = append(m.notified, recipientID)
}

func advisorSet(n int) ([]domain.User, map[uuid.UUID]*domain.User) {
	advisors := make([]domain.User, 0, n)
	byID := make(map[uuid.UUID]*domain.User)
	for i := 0; i < n; i++ {
		u := domain.User{ID: uuid.New(), Username: fmt.Sprintf("advisor-%d", i), Role: domain.RoleAdvisor, Active: true}
		advisors = append(advisors, u)
		byID[u.ID] = &advisors[len(advisors)-1]
	}
	return advisors, byID
}

// --- Tests ---

func TestAssign_PicksLeastLoadedAdvisor(t *testing.T) {
	advisors, byID := advisorSet(3)
	repo := newMockOrientationRepo()
	repo.load[advisors[0].ID] = 2
	repo.load[advisors[2].ID] = 1
	// advisors[1] has zero open requests

	request := &domain.OrientationRequest{ID: uuid.New(), StudentID: uuid.New(), Topic: "study plan", Status: domain.RequestPending}
	repo.requests[request.ID] = request

	users := &mockUserRepo{users: byID, advisors: advisors}
	notifier := &mockNotifier{}
	balancer := NewBalancer(repo, users, notifier, clockwork.NewFakeClock())

	assigned, err := balancer.Assign(context.Background(), request.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, advisors[1].ID, assigned.ID)
	require.Len(t, repo.assignments, 1)
	assert.Equal(t, domain.RequestInProgress, repo.assignments[0].status)
	// after assignment the chosen advisor's open count is 1
	assert.Equal(t, 1, repo.load[advisors[1].ID])
	assert.Equal(t, []uuid.UUID{advisors[1].ID}, notifier.notified)
}

func TestAssign_TieBreakIsFirstInListingOrder(t *testing.T) {
	advisors, byID := advisorSet(3)
	repo := newMockOrientationRepo()
	request := &domain.OrientationRequest{ID: uuid.New(), Topic: "tie"}
	repo.requests[request.ID] = request

	users := &mockUserRepo{users: byID, advisors: advisors}
	balancer := NewBalancer(repo, users, &mockNotifier{}, clockwork.NewFakeClock())

	assigned, err := balancer.Assign(context.Background(), request.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, advisors[0].ID, assigned.ID)
}

func TestAssign_ExplicitAdvisor(t *testing.T) {
	advisors, byID := advisorSet(2)
	repo := newMockOrientationRepo()
	request := &domain.OrientationRequest{ID: uuid.New(), Topic: "explicit"}
	repo.requests[request.ID] = request

	users := &mockUserRepo{users: byID, advisors: advisors}
	balancer := NewBalancer(repo, users, &mockNotifier{}, clockwork.NewFakeClock())

	assigned, err := balancer.Assign(context.Background(), request.ID, &advisors[1].ID)
	require.NoError(t, err)
	assert.Equal(t, advisors[1].ID, assigned.ID)
}

func TestAssign_ExplicitAdvisorWrongRole(t *testing.T) {
	student := &domain.User{ID: uuid.New(), Role: domain.RoleStudent}
	repo := newMockOrientationRepo()
	request := &domain.OrientationRequest{ID: uuid.New()}
	repo.requests[request.ID] = request

	users := &mockUserRepo{users: map[uuid.UUID]*domain.User{student.ID: student}}
	balancer := NewBalancer(repo, users, &mockNotifier{}, clockwork.NewFakeClock())

	_, err := balancer.Assign(context.Background(), request.ID, &student.ID)
	assert.ErrorIs(t, err, domain.ErrAdvisorNotFound)
}

func TestAssign_ExplicitAdvisorMissing(t *testing.T) {
	repo := newMockOrientationRepo()
	request := &domain.OrientationRequest{ID: uuid.New()}
	repo.requests[request.ID] = request

	users := &mockUserRepo{users: map[uuid.UUID]*domain.User{}}
	balancer := NewBalancer(repo, users, &mockNotifier{}, clockwork.NewFakeClock())

	missing := uuid.New()
	_, err := balancer.Assign(context.Background(), request.ID, &missing)
	assert.ErrorIs(t, err, domain.ErrAdvisorNotFound)
}

func TestAssign_NoAdvisorAvailable(t *testing.T) {
	repo := newMockOrientationRepo()
	request := &domain.OrientationRequest{ID: uuid.New()}
	repo.requests[request.ID] = request

	users := &mockUserRepo{}
	balancer := NewBalancer(repo, users, &mockNotifier{}, clockwork.NewFakeClock())

	_, err := balancer.Assign(context.Background(), request.ID, nil)
	assert.ErrorIs(t, err, domain.ErrNoAdvisorAvailable)
}

func TestCreateRequest_AutoAssigns(t *testing.T) {
	advisors, byID := advisorSet(1)
	repo := newMockOrientationRepo()
	users := &mockUserRepo{users: byID, advisors: advisors}
	notifier := &mockNotifier{}
	balancer := NewBalancer(repo, users, notifier, clockwork.NewFakeClock())

	request, err := balancer.CreateRequest(context.Background(), uuid.New(), "choosing a track", "context text")
	require.NoError(t, err)

	require.NotNil(t, request.AdvisorID)
	assert.Equal(t, advisors[0].ID, *request.AdvisorID)
	assert.Equal(t, domain.RequestInProgress, request.Status)
	assert.Equal(t, []uuid.UUID{advisors[0].ID}, notifier.notified)
}

func TestCreateRequest_NoAdvisorsLeavesPending(t *testing.T) {
	repo := newMockOrientationRepo()
	balancer := NewBalancer(repo, &mockUserRepo{}, &mockNotifier{}, clockwork.NewFakeClock())

	request, err := balancer.CreateRequest(context.Background(), uuid.New(), "lonely request", "ctx")
	require.NoError(t, err)

	assert.Nil(t, request.AdvisorID)
	assert.Equal(t, domain.RequestPending, request.Status)
}
