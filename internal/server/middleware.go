package server

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/edunova/platform/internal/errors"
)

// userHeader carries the authenticated caller's ID, set by the gateway.
const userHeader = "X-User-ID"

func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(userHeader)
		if raw == "" {
			return apperrors.ValidationError("missing " + userHeader + " header")
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.ValidationError("invalid " + userHeader + " header").WithContext("value", raw)
		}
		c.Set("userID", userID)
		return next(c)
	}
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid user ID in context", nil)
	}
	return userID, nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid UUID format").WithContext(name, raw)
	}
	return id, nil
}
