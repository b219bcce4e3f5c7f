package server

import (
	"github.com/Bigbebra2/bazarchik-api/internal/models"
	"github.com/Bigbebra2/bazarchik-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/profile/my-profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	view, err := s.profileService.OwnProfile(c.Context(), authUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetProfile handles GET /api/profile/:id
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "user ID")
	if err != nil {
		return nil
	}

	view, err := s.profileService.Profile(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// UploadAvatar handles POST /api/profile/my-profile/upload-ava. The request
// is multipart with exactly one image under the "ava" field.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Multipart form expected"))
	}

	rel, err := s.profileService.UploadAvatar(c.Context(), authUserID(c), form.File["ava"])
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Avatar uploaded",
		"ava_path": rel,
	})
}

// SetProfileData handles PUT /api/profile/my-profile/set-data
func (s *Server) SetProfileData(c *fiber.Ctx) error {
	var patch service.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.profileService.UpdateProfile(c.Context(), authUserID(c), patch); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
	})
}

// DeleteProfile handles DELETE /api/profile/delete-profile. AuthRequired and
// FreshTokenRequired run before this, so the claims are present and fresh.
func (s *Server) DeleteProfile(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*service.TokenClaims)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}

	if err := s.profileService.DeleteAccount(c.Context(), claims); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Account deleted",
	})
}
