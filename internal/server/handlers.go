package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/edunova/platform/internal/domain"
	apperrors "github.com/edunova/platform/internal/errors"
)

// mapDomainError translates domain sentinels into structured errors so every
// handler reports failures the same way.
func mapDomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NotFoundError("user not found")
	case errors.Is(err, domain.ErrProjectNotFound):
		return apperrors.NotFoundError("project not found")
	case errors.Is(err, domain.ErrVoteNotFound):
		return apperrors.NotFoundError("vote not found")
	case errors.Is(err, domain.ErrRequestNotFound):
		return apperrors.NotFoundError("orientation request not found")
	case errors.Is(err, domain.ErrSponsorNotFound):
		return apperrors.NotFoundError("sponsor profile not found")
	case errors.Is(err, domain.ErrDuplicateVote):
		return apperrors.ConflictError("user has already voted on this project")
	case errors.Is(err, domain.ErrInvalidRating):
		return apperrors.ValidationError("rating must be between 1 and 5")
	case errors.Is(err, domain.ErrCommentTooShort):
		return apperrors.ValidationError("comment must be at least 10 characters")
	case errors.Is(err, domain.ErrPermissionDenied):
		return apperrors.PermissionError("not allowed to modify this vote")
	case errors.Is(err, domain.ErrAdvisorNotFound):
		return apperrors.ValidationError("advisor not found or not an advisor")
	case errors.Is(err, domain.ErrNoAdvisorAvailable):
		return apperrors.UnavailableError("no advisor available")
	default:
		return apperrors.InternalError("internal server error", err)
	}
}

// --- Projects ---

type createProjectRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	Objectives        string `json:"objectives"`
	ExpectedImpact    string `json:"expected_impact"`
	RequiredResources string `json:"required_resources"`
	Status            string `json:"status"`
}

type projectResponse struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	CommunityScore float64   `json:"community_score"`
	AIScore        float64   `json:"ai_score"`
	FinalScore     float64   `json:"final_score"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	return projectResponse{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Title:          p.Title,
		Description:    p.Description,
		Category:       string(p.Category),
		Status:         string(p.Status),
		CommunityScore: p.CommunityScore,
		AIScore:        p.AIScore,
		FinalScore:     p.FinalScore,
	}
}

var validCategories = map[string]bool{
	string(domain.CategoryTechnology):  true,
	string(domain.CategorySocial):      true,
	string(domain.CategoryEnvironment): true,
	string(domain.CategoryHealth):      true,
	string(domain.CategoryEducation):   true,
	string(domain.CategoryOther):       true,
}

func (s *Server) handleCreateProject(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}
	if !validCategories[req.Category] {
		return apperrors.ValidationError("invalid category").WithContext("category", req.Category)
	}

	project, err := s.app.CreateProject(c.Request().Context(), &domain.Project{
		OwnerID:           userID,
		Title:             req.Title,
		Description:       req.Description,
		Category:          domain.Category(req.Category),
		Objectives:        req.Objectives,
		ExpectedImpact:    req.ExpectedImpact,
		RequiredResources: req.RequiredResources,
		Status:            domain.ProjectStatus(req.Status),
	})
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, toProjectResponse(project))
}

func (s *Server) handleGetProject(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	project, err := s.app.GetProject(c.Request().Context(), projectID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, toProjectResponse(project))
}

func (s *Server) handleGetSummary(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	summary, err := s.app.GetVoteSummary(c.Request().Context(), projectID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"project_id":     summary.ProjectID,
		"average_rating": summary.AverageRating,
		"total_votes":    summary.TotalVotes,
		"weighted_score": summary.WeightedScore,
	})
}

func (s *Server) handleGetEvaluation(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	eval, err := s.app.GetEvaluation(c.Request().Context(), projectID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"project_id":  eval.ProjectID,
		"feasibility": eval.Feasibility,
		"innovation":  eval.Innovation,
		"impact":      eval.Impact,
		"clarity":     eval.Clarity,
		"ai_score":    eval.AIScore,
	})
}

func (s *Server) handleAddTeamMember(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userID")
	if err != nil {
		return err
	}

	if err := s.app.AddTeamMember(c.Request().Context(), projectID, userID); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRemoveTeamMember(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	userID, err := pathUUID(c, "userID")
	if err != nil {
		return err
	}

	if err := s.app.RemoveTeamMember(c.Request().Context(), projectID, userID); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClearTeam(c echo.Context) error {
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.ClearTeam(c.Request().Context(), projectID); err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// --- Votes ---

type castVoteRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type updateVoteRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type voteResponse struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"project_id"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	SentimentLabel string    `json:"sentiment_label"`
	SentimentScore float64   `json:"sentiment_score"`
}

func toVoteResponse(v *domain.Vote) voteResponse {
	return voteResponse{
		ID:             v.ID,
		ProjectID:      v.ProjectID,
		Rating:         v.Rating,
		Comment:        v.Comment,
		SentimentLabel: string(v.SentimentLabel),
		SentimentScore: v.SentimentScore,
	}
}

func (s *Server) handleCastVote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	projectID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req castVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	vote, err := s.app.CastVote(c.Request().Context(), userID, projectID, req.Rating, req.Comment)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, toVoteResponse(vote))
}

func (s *Server) handleUpdateVote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	voteID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req updateVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Rating == nil && req.Comment == nil {
		return apperrors.ValidationError("nothing to update")
	}

	vote, err := s.app.UpdateVote(c.Request().Context(), userID, voteID, req.Rating, req.Comment)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, toVoteResponse(vote))
}

func (s *Server) handleDeleteVote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	voteID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.DeleteVote(c.Request().Context(), userID, voteID); err != nil {
		return mapDomainError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Notifications ---

const defaultNotificationLimit = 50

func (s *Server) handleListNotifications(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	notifications, err := s.app.ListNotifications(c.Request().Context(), userID, defaultNotificationLimit)
	if err != nil {
		return mapDomainError(err)
	}

	out := make([]map[string]any, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, map[string]any{
			"id":         n.ID,
			"title":      n.Title,
			"message":    n.Message,
			"url":        n.URL,
			"created_at": n.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// --- Recommendations ---

type recommendationResponse struct {
	ProjectID uuid.UUID `json:"project_id"`
	Score     float64   `json:"score"`
}

func toRecommendationResponses(recs []domain.Recommendation) []recommendationResponse {
	out := make([]recommendationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, recommendationResponse{ProjectID: rec.ProjectID, Score: rec.Score})
	}
	return out
}

func (s *Server) handleListRecommendations(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	recs, err := s.app.ListRecommendations(c.Request().Context(), userID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, toRecommendationResponses(recs))
}

func (s *Server) handleRefreshRecommendations(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	recs, err := s.app.RefreshRecommendations(c.Request().Context(), userID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, toRecommendationResponses(recs))
}

// --- Orientation ---

type createRequestBody struct {
	Topic   string `json:"topic"`
	Context string `json:"context"`
}

type assignRequestBody struct {
	AdvisorID *uuid.UUID `json:"advisor_id"`
}

type requestResponse struct {
	ID        uuid.UUID  `json:"id"`
	StudentID uuid.UUID  `json:"student_id"`
	AdvisorID *uuid.UUID `json:"advisor_id,omitempty"`
	Topic     string     `json:"topic"`
	Status    string     `json:"status"`
}

func (s *Server) handleCreateOrientationRequest(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req createRequestBody
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Topic == "" {
		return apperrors.ValidationError("topic is required")
	}

	request, err := s.app.CreateOrientationRequest(c.Request().Context(), userID, req.Topic, req.Context)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusCreated, requestResponse{
		ID:        request.ID,
		StudentID: request.StudentID,
		AdvisorID: request.AdvisorID,
		Topic:     request.Topic,
		Status:    string(request.Status),
	})
}

func (s *Server) handleAssignAdvisor(c echo.Context) error {
	requestID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req assignRequestBody
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	advisor, err := s.app.AssignAdvisor(c.Request().Context(), requestID, req.AdvisorID)
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"advisor_id":   advisor.ID,
		"advisor_name": advisor.DisplayName(),
	})
}
