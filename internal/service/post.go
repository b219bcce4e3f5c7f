package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/Bigbebra2/bazarchik-api/internal/middleware"
	"github.com/Bigbebra2/bazarchik-api/internal/models"
	"github.com/Bigbebra2/bazarchik-api/internal/repository"
	"github.com/Bigbebra2/bazarchik-api/internal/validation"
)

// PostsPerPage is the fixed page size of post listings and search results.
const PostsPerPage = 10

// CreatePostInput carries the form fields of a post creation request.
// Price arrives as a form string alongside the uploaded files.
type CreatePostInput struct {
	Title       string
	Description string
	Price       string
}

// EditPostInput is a partial update; nil fields are left unchanged.
// If any provided field fails validation, nothing is changed.
type EditPostInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

// PostSummary is the listing shape of a post: its main image and the
// seller's location.
type PostSummary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"time"`
	Image       string    `json:"img_path"`
	Location    string    `json:"location"`
}

// PostCreator identifies the author of a post in detail views.
type PostCreator struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Avatar  string `json:"ava_path"`
}

// PostDetail is the full shape of a single post.
type PostDetail struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Price       float64     `json:"price"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"time"`
	Images      []string    `json:"images"`
	Creator     PostCreator `json:"creator"`
}

// SearchResult is a page of matching posts plus the total page count.
type SearchResult struct {
	Posts      []PostSummary `json:"posts"`
	TotalPages int           `json:"total_pages"`
}

// DeletionResult reports what a post deletion actually removed. RemovedDir
// is empty when the post had no image directory to delete.
type DeletionResult struct {
	RemovedDir string
}

// PostService handles the classified-ad lifecycle.
type PostService struct {
	posts repository.PostRepository
	media *MediaService
}

// NewPostService returns a new PostService.
func NewPostService(posts repository.PostRepository, media *MediaService) *PostService {
	return &PostService{posts: posts, media: media}
}

// CreatePost validates the form, creates the post row together with its
// image directory, then stores the uploaded images. When storing the
// images fails the directory is cleared and the post is left without
// images, matching what the client sees on retry.
func (s *PostService) CreatePost(ctx context.Context, creatorID uint, input CreatePostInput, files []*multipart.FileHeader) (*models.Post, error) {
	fields := make(map[string]string)
	if err := validation.ValidateTitle(input.Title); err != nil {
		fields["title"] = err.Error()
	}
	if err := validation.ValidateDescription(input.Description); err != nil {
		fields["description"] = err.Error()
	}
	price, err := validation.ValidatePrice(input.Price)
	if err != nil {
		fields["price"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	post := &models.Post{
		CreatorID:   creatorID,
		Title:       strings.TrimSpace(input.Title),
		Price:       price,
		Description: strings.TrimSpace(input.Description),
	}
	err = s.posts.Create(ctx, post, func(id uint) (string, error) {
		dir := s.media.PostDir(id)
		if err := s.media.EnsureDir(dir); err != nil {
			return "", err
		}
		return dir, nil
	})
	if err != nil {
		return nil, err
	}

	if len(files) > 0 {
		if _, err := s.media.SaveBatch(files, post.ImgPath, "post_image", PostBatchLimits()); err != nil {
			return nil, err
		}
	}
	return post, nil
}

// ListPosts returns the requested page of posts, newest first.
func (s *PostService) ListPosts(ctx context.Context, page int) ([]PostSummary, error) {
	if page < 1 {
		return nil, models.NewValidationError("Page must be a positive number")
	}
	posts, err := s.posts.List(ctx, PostsPerPage, (page-1)*PostsPerPage)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, models.NewNotFoundError("No posts on this page")
	}
	return s.summarize(posts), nil
}

// SearchPosts matches posts whose title contains any word of the query and
// returns one page plus the total page count.
func (s *PostService) SearchPosts(ctx context.Context, query string, page int) (*SearchResult, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return nil, models.NewValidationError("Search query must not be empty")
	}
	if page < 1 {
		return nil, models.NewValidationError("Page must be a positive number")
	}

	posts, total, err := s.posts.Search(ctx, tokens, PostsPerPage, (page-1)*PostsPerPage)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, models.NewNotFoundError("No post on this search")
	}
	totalPages := int((total + PostsPerPage - 1) / PostsPerPage)
	return &SearchResult{
		Posts:      s.summarize(posts),
		TotalPages: totalPages,
	}, nil
}

// GetPost returns the full post, its images and its author.
func (s *PostService) GetPost(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var images []string
	if post.ImgPath != "" {
		images, err = s.media.ListImages(post.ImgPath)
		if err != nil {
			return nil, err
		}
	}

	detail := &PostDetail{
		ID:          post.ID,
		Title:       post.Title,
		Price:       post.Price,
		Description: post.Description,
		CreatedAt:   post.CreatedAt,
		Images:      images,
	}
	if post.Creator != nil {
		detail.Creator.ID = post.Creator.ID
		if post.Creator.Profile != nil {
			detail.Creator.Name = post.Creator.Profile.Name
			detail.Creator.Surname = post.Creator.Profile.Surname
			detail.Creator.Avatar = post.Creator.Profile.ImgPath
		}
	}
	return detail, nil
}

// EditPost applies a partial update to the caller's own post. Fields are
// validated together before any of them is applied.
func (s *PostService) EditPost(ctx context.Context, creatorID, postID uint, input EditPostInput) (*models.Post, error) {
	post, err := s.posts.GetByIDAndCreator(ctx, postID, creatorID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if input.Title != nil {
		if err := validation.ValidateTitle(*input.Title); err != nil {
			fields["title"] = err.Error()
		}
	}
	if input.Description != nil {
		if err := validation.ValidateDescription(*input.Description); err != nil {
			fields["description"] = err.Error()
		}
	}
	if input.Price != nil && *input.Price <= 0 {
		fields["price"] = "Price must be a positive number"
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	if input.Title != nil {
		post.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		post.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		post.Price = *input.Price
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes the caller's own post: its image directory first, then
// the row. A directory that cannot be removed is logged and does not block
// the row deletion.
func (s *PostService) DeletePost(ctx context.Context, creatorID, postID uint) (*DeletionResult, error) {
	post, err := s.posts.GetByIDAndCreator(ctx, postID, creatorID)
	if err != nil {
		return nil, err
	}

	result := &DeletionResult{}
	if post.ImgPath != "" {
		removed, err := s.media.RemoveTree(post.ImgPath)
		if err != nil {
			middleware.Logger.Error("failed to remove post images",
				"post_id", post.ID, "dir", post.ImgPath, "error", err)
		} else if removed {
			result.RemovedDir = post.ImgPath
		}
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostService) summarize(posts []models.Post) []PostSummary {
	summaries := make([]PostSummary, 0, len(posts))
	for _, post := range posts {
		summary := PostSummary{
			ID:          post.ID,
			Title:       post.Title,
			Price:       post.Price,
			Description: post.Description,
			CreatedAt:   post.CreatedAt,
			Image:       s.media.FirstImage(post.ImgPath),
		}
		// A creator without a profile yet simply has no location.
		if post.Creator != nil && post.Creator.Profile != nil {
			summary.Location = post.Creator.Profile.Location
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
