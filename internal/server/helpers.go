package server

import (
	"errors"
	"net/url"

	"github.com/Bigbebra2/bazarchik-api/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param, label string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePage extracts a page route parameter. Missing or malformed pages
// default to 1; the services reject non-positive values.
func (s *Server) parsePage(c *fiber.Ctx, param string) int {
	page, _ := c.ParamsInt(param, 1)
	if page < 1 {
		page = 1
	}
	return page
}

// statusFor maps an application error to an HTTP status. The browse
// endpoints report missing resources as 400, matching the API contract;
// notFoundStatus lets ownership checks report 404 instead.
func statusFor(err error, notFoundStatus int) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeNotFound:
		return notFoundStatus
	case models.CodeInternal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

// respondError writes a service error with the browse-endpoint mapping.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusFor(err, fiber.StatusBadRequest), err)
}

// respondOwnedError writes a service error where a miss means the resource
// truly does not exist for this caller, so NOT_FOUND maps to 404.
func respondOwnedError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusFor(err, fiber.StatusNotFound), err)
}

// decodeParam returns a percent-decoded route parameter.
func decodeParam(c *fiber.Ctx, param string) (string, error) {
	return url.PathUnescape(c.Params(param))
}

// currentUser returns the account resolved by AuthRequired.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("currentUser").(*models.User)
	return user
}

// authUserID returns the authenticated user id set by AuthRequired.
func authUserID(c *fiber.Ctx) uint {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	id, _ := c.Locals("userID").(uint)
	return id
}
