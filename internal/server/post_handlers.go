package server

import (
	"github.com/Bigbebra2/bazarchik-api/internal/models"
	"github.com/Bigbebra2/bazarchik-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts/create-post. The request is multipart:
// title, price and description fields plus up to four image files.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Multipart form expected"))
	}

	input := service.CreatePostInput{
		Title:       c.FormValue("title"),
		Price:       c.FormValue("price"),
		Description: c.FormValue("description"),
	}
	files := form.File["files"]

	post, err := s.postService.CreatePost(c.Context(), authUserID(c), input, files)
	if err != nil {
		return respondError(c, err)
	}

	images, listErr := s.mediaService.ListImages(post.ImgPath)
	if listErr != nil {
		images = nil
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created",
		"post_id": post.ID,
		"images":  images,
	})
}

// GetPostsPage handles GET /api/posts/page/:page
func (s *Server) GetPostsPage(c *fiber.Ctx) error {
	page := s.parsePage(c, "page")

	posts, err := s.postService.ListPosts(c.Context(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// SearchPosts handles GET /api/posts/search/:query/:page
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	query, err := decodeParam(c, "query")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid search query"))
	}
	page := s.parsePage(c, "page")

	result, err := s.postService.SearchPosts(c.Context(), query, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// EditPost handles PUT /api/posts/edit-post/:id
func (s *Server) EditPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	var patch service.EditPostInput
	if err := c.BodyParser(&patch); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.EditPost(c.Context(), authUserID(c), id, patch)
	if err != nil {
		return respondOwnedError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Post updated",
		"post_id": post.ID,
	})
}

// DeletePost handles DELETE /api/posts/delete/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	result, err := s.postService.DeletePost(c.Context(), authUserID(c), id)
	if err != nil {
		return respondOwnedError(c, err)
	}
	resp := fiber.Map{"deleted_post_id": id}
	if result.RemovedDir != "" {
		resp["removed_directory"] = result.RemovedDir
	}
	return c.JSON(resp)
}
