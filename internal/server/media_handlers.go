package server

import (
	"github.com/Bigbebra2/bazarchik-api/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetImage serves a stored image by its relative path, e.g.
// GET /api/posts/get-image/uploads/posts/7/post_image1.png. Paths that do
// not resolve inside the upload root return 404.
func (s *Server) GetImage(c *fiber.Ctx) error {
	rel, err := decodeParam(c, "*")
	if err != nil || rel == "" {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Image not found"))
	}

	abs, err := s.mediaService.ResolveServable(rel)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.SendFile(abs)
}
