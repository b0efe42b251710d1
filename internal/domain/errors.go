package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrVoteNotFound       = errors.New("vote not found")
	ErrRequestNotFound    = errors.New("orientation request not found")
	ErrDuplicateVote      = errors.New("vote already exists for this voter and project")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrCommentTooShort    = errors.New("comment must contain at least 10 characters")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAdvisorNotFound    = errors.New("advisor not found or has wrong role")
	ErrNoAdvisorAvailable = errors.New("no advisor available")
	ErrSponsorNotFound    = errors.New("sponsor profile not found")
)
