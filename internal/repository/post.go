package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Bigbebra2/bazarchik-api/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	// Create persists the post and invokes prepareDir with the new id
	// inside the same transaction. The returned directory path is stored
	// as the post's image path; a prepareDir error rolls back the row.
	Create(ctx context.Context, post *models.Post, prepareDir func(id uint) (string, error)) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByIDAndCreator(ctx context.Context, id, creatorID uint) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]models.Post, error)
	Search(ctx context.Context, tokens []string, limit, offset int) ([]models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, prepareDir func(id uint) (string, error)) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if prepareDir == nil {
			return nil
		}
		dir, err := prepareDir(post.ID)
		if err != nil {
			return err
		}
		post.ImgPath = dir
		return tx.Model(post).Update("img_path", dir).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Creator.Profile").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post with this id does not exists")
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetByIDAndCreator(ctx context.Context, id, creatorID uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Where("id = ? AND creator_id = ?", id, creatorID).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post with this id does not exists")
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Creator.Profile").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Search matches posts whose title contains any of the tokens,
// case-insensitively. The total match count is returned alongside the page.
func (r *postRepository) Search(ctx context.Context, tokens []string, limit, offset int) ([]models.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{})
	query = query.Where(r.titleMatchClause(tokens))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	err := query.
		Preload("Creator.Profile").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

func (r *postRepository) titleMatchClause(tokens []string) *gorm.DB {
	clause := r.db.Session(&gorm.Session{NewDB: true})
	for i, token := range tokens {
		pattern := "%" + strings.ToLower(token) + "%"
		if i == 0 {
			clause = clause.Where("LOWER(title) LIKE ?", pattern)
		} else {
			clause = clause.Or("LOWER(title) LIKE ?", pattern)
		}
	}
	return clause
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
