package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// --- Enumerations ---

type Role string

const (
	RoleStudent Role = "student"
	RoleAdvisor Role = "advisor"
	RoleSponsor Role = "sponsor"
	RoleAdmin   Role = "admin"
)

type Category string

const (
	CategoryTechnology  Category = "technology"
	CategorySocial      Category = "social"
	CategoryEnvironment Category = "environment"
	CategoryHealth      Category = "health"
	CategoryEducation   Category = "education"
	CategoryOther       Category = "other"
)

type ProjectStatus string

const (
	StatusIdea       ProjectStatus = "idea"
	StatusPrototype  ProjectStatus = "prototype"
	StatusMVP        ProjectStatus = "mvp"
	StatusIncubation ProjectStatus = "incubation"
	StatusCompleted  ProjectStatus = "completed"
)

// ProjectState is the lifecycle state used instead of hard deletion.
// Aggregate queries only consider live projects.
type ProjectState string

const (
	StateLive     ProjectState = "live"
	StateArchived ProjectState = "archived"
)

type SentimentLabel string

const (
	SentimentVeryPositive SentimentLabel = "very_positive"
	SentimentPositive     SentimentLabel = "positive"
	SentimentNeutral      SentimentLabel = "neutral"
	SentimentNegative     SentimentLabel = "negative"
	SentimentVeryNegative SentimentLabel = "very_negative"
)

type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// --- Model types ---

type User struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Role      Role      `db:"role"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

type Project struct {
	ID                uuid.UUID     `db:"id"`
	OwnerID           uuid.UUID     `db:"owner_id"`
	Title             string        `db:"title"`
	Description       string        `db:"description"`
	Category          Category      `db:"category"`
	Objectives        string        `db:"objectives"`
	ExpectedImpact    string        `db:"expected_impact"`
	RequiredResources string        `db:"required_resources"`
	Status            ProjectStatus `db:"status"`
	State             ProjectState  `db:"state"`
	CommunityScore    float64       `db:"community_score"`
	AIScore           float64       `db:"ai_score"`
	FinalScore        float64       `db:"final_score"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

type Vote struct {
	ID             uuid.UUID      `db:"id"`
	ProjectID      uuid.UUID      `db:"project_id"`
	VoterID        uuid.UUID      `db:"voter_id"`
	Rating         int            `db:"rating"`
	Comment        string         `db:"comment"`
	SentimentLabel SentimentLabel `db:"sentiment_label"`
	SentimentScore float64        `db:"sentiment_score"`
	Weight         float64        `db:"weight"`
	PositiveHits   int            `db:"positive_hits"`
	NegativeHits   int            `db:"negative_hits"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// VoteSummary is the per-project cached aggregate of votes. It is recomputed
// from the full vote set inside the same transaction as every vote mutation
// and is never mutated independently.
type VoteSummary struct {
	ProjectID      uuid.UUID `db:"project_id"`
	AverageRating  float64   `db:"average_rating"`
	TotalVotes     int       `db:"total_votes"`
	WeightedScore  float64   `db:"weighted_score"`
	LastComputedAt time.Time `db:"last_computed_at"`
}

// Scores is the full output of one scoring run.
type Scores struct {
	Feasibility    float64
	Innovation     float64
	Impact         float64
	Clarity        float64
	CommunityScore float64
	ExpertScore    float64
	AIScore        float64
	FinalScore     float64
}

// EvaluationResult holds the persisted heuristic sub-scores for a project.
type EvaluationResult struct {
	ProjectID   uuid.UUID `db:"project_id"`
	Feasibility float64   `db:"feasibility"`
	Innovation  float64   `db:"innovation"`
	Impact      float64   `db:"impact"`
	Clarity     float64   `db:"clarity"`
	AIScore     float64   `db:"ai_score"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type Recommendation struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	ProjectID uuid.UUID `db:"project_id"`
	Score     float64   `db:"score"`
	CreatedAt time.Time `db:"created_at"`
}

type OrientationRequest struct {
	ID        uuid.UUID     `db:"id"`
	StudentID uuid.UUID     `db:"student_id"`
	AdvisorID *uuid.UUID    `db:"advisor_id"`
	Topic     string        `db:"topic"`
	Context   string        `db:"context"`
	Status    RequestStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

type SponsorProfile struct {
	UserID       uuid.UUID `db:"user_id"`
	Organization string    `db:"organization"`
	Interests    []string  `db:"interests"`
}

type Notification struct {
	ID          uuid.UUID `db:"id"`
	RecipientID uuid.UUID `db:"recipient_id"`
	Title       string    `db:"title"`
	Message     string    `db:"message"`
	URL         string    `db:"url"`
	CreatedAt   time.Time `db:"created_at"`
}

// PredictionLog is the audit trail of heuristic runs (sentiment, scoring,
// recommendations). Appending one is best-effort and never fails a computation.
type PredictionLog struct {
	ID         uuid.UUID      `db:"id"`
	Kind       string         `db:"kind"`
	Input      map[string]any `db:"input"`
	Output     map[string]any `db:"output"`
	DurationMs int64          `db:"duration_ms"`
	Success    bool           `db:"success"`
	CreatedAt  time.Time      `db:"created_at"`
}

// SentimentUpdate carries a re-derived sentiment for one vote.
type SentimentUpdate struct {
	VoteID       uuid.UUID
	Label        SentimentLabel
	Score        float64
	Weight       float64
	PositiveHits int
	NegativeHits int
}

// --- Repository interfaces ---

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// ListActiveAdvisors returns active advisors ordered by (created_at, id).
	// The order is the load balancer's tie-break and must be stable.
	ListActiveAdvisors(ctx context.Context) ([]User, error)
}

type ProjectRepository interface {
	GetByID(ctx context.Context, projectID uuid.UUID) (*Project, error)
	Create(ctx context.Context, p *Project) error
	TeamSize(ctx context.Context, projectID uuid.UUID) (int, error)
	AddTeamMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveTeamMember(ctx context.Context, projectID, userID uuid.UUID) error
	ClearTeam(ctx context.Context, projectID uuid.UUID) error
	// ListCandidates returns live projects not owned by excludeOwner, ordered
	// by (final_score desc, community_score desc), capped at limit. A non-empty
	// categories slice restricts the result to those category codes.
	ListCandidates(ctx context.Context, excludeOwner uuid.UUID, categories []string, limit int) ([]Project, error)
	ListLiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type VoteRepository interface {
	GetByID(ctx context.Context, voteID uuid.UUID) (*Vote, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]Vote, error)
	// Create inserts the vote and recomputes the project's VoteSummary in one
	// transaction. Returns ErrDuplicateVote when (voter, project) exists.
	Create(ctx context.Context, v *Vote) (*VoteSummary, error)
	// Update persists rating/comment/sentiment changes and recomputes the
	// summary in one transaction.
	Update(ctx context.Context, v *Vote) (*VoteSummary, error)
	// Delete removes the vote and recomputes the summary in one transaction.
	Delete(ctx context.Context, voteID, projectID uuid.UUID) (*VoteSummary, error)
	// UpdateSentiments applies a batch of re-derived sentiments atomically.
	UpdateSentiments(ctx context.Context, updates []SentimentUpdate) error
	GetSummary(ctx context.Context, projectID uuid.UUID) (*VoteSummary, error)
}

// ScoreStore persists the output of a scoring run: the project's three score
// fields and its EvaluationResult, inside one atomic transaction.
type ScoreStore interface {
	EnsureEvaluation(ctx context.Context, projectID uuid.UUID) error
	SaveScores(ctx context.Context, projectID uuid.UUID, s Scores) error
	GetEvaluation(ctx context.Context, projectID uuid.UUID) (*EvaluationResult, error)
}

type RecommendationRepository interface {
	// Replace atomically deletes the user's recommendations and bulk-inserts
	// the new set. Conflicts with a concurrent refresh are ignored.
	Replace(ctx context.Context, userID uuid.UUID, recs []Recommendation) error
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Recommendation, error)
}

type SponsorRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*SponsorProfile, error)
}

type OrientationRepository interface {
	GetByID(ctx context.Context, requestID uuid.UUID) (*OrientationRequest, error)
	Create(ctx context.Context, r *OrientationRequest) error
	SetAssignment(ctx context.Context, requestID, advisorID uuid.UUID, status RequestStatus) error
	// CountOpenByAdvisor returns the number of open requests (pending or
	// in_progress) per advisor. Advisors with no open requests are absent.
	CountOpenByAdvisor(ctx context.Context, advisorIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error)
}

type PredictionLogRepository interface {
	Append(ctx context.Context, l *PredictionLog) error
}

// --- Service interfaces ---

// Notifier is the outbound notification sink. Delivery is fire-and-forget:
// implementations log failures and never propagate them to the caller.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, title, message, url string)
}

// TaskScheduler enqueues a named task for asynchronous, at-least-once
// execution. Implementations fall back to inline synchronous execution when
// the queue is unavailable; Schedule therefore never fails.
type TaskScheduler interface {
	Schedule(ctx context.Context, task string, payload map[string]string)
}
