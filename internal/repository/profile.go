package repository

import (
	"context"
	"errors"

	"github.com/Bigbebra2/bazarchik-api/internal/cache"
	"github.com/Bigbebra2/bazarchik-api/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

type profileRepository struct {
	db    *gorm.DB
	cache *cache.Store
}

// NewProfileRepository returns a new ProfileRepository implementation.
// Updates invalidate the owning user's cache entry through the given store.
func NewProfileRepository(db *gorm.DB, store *cache.Store) ProfileRepository {
	return &profileRepository{db: db, cache: store}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User does not exists")
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return models.NewInternalError(err)
	}
	r.cache.InvalidateUser(ctx, profile.UserID)
	return nil
}
