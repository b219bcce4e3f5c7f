package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/Bigbebra2/bazarchik-api/internal/cache"
	"github.com/Bigbebra2/bazarchik-api/internal/middleware"
	"github.com/Bigbebra2/bazarchik-api/internal/models"
	"github.com/Bigbebra2/bazarchik-api/internal/repository"
	"github.com/Bigbebra2/bazarchik-api/internal/validation"
)

// ProfilePatch is a partial profile update; nil fields are left unchanged.
type ProfilePatch struct {
	Name        *string `json:"name"`
	Surname     *string `json:"surname"`
	Age         *int    `json:"age"`
	Bio         *string `json:"bio"`
	PhoneNumber *string `json:"phone_number"`
	Location    *string `json:"location"`
}

// ProfileView is the shape of a user's profile, including the owner's
// email and registration time.
type ProfileView struct {
	UserID      uint      `json:"user_id"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	Age         int       `json:"age,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Location    string    `json:"location,omitempty"`
	Avatar      string    `json:"ava_path"`
	Email       string    `json:"email"`
	RegTime     time.Time `json:"reg_time"`
}

// OwnProfileView extends ProfileView with the caller's post ids.
type OwnProfileView struct {
	ProfileView
	PostIDs []uint `json:"posts"`
}

// ProfileService handles profile reads, updates, avatars and account removal.
type ProfileService struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	media     *MediaService
	blocklist *cache.Store
}

// NewProfileService returns a new ProfileService. Account deletion revokes
// the presented token through the given blocklist store.
func NewProfileService(users repository.UserRepository, profiles repository.ProfileRepository, media *MediaService, blocklist *cache.Store) *ProfileService {
	return &ProfileService{users: users, profiles: profiles, media: media, blocklist: blocklist}
}

// OwnProfile returns the caller's profile together with their post ids.
func (s *ProfileService) OwnProfile(ctx context.Context, userID uint) (*OwnProfileView, error) {
	user, err := s.users.GetWithProfileAndPosts(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &OwnProfileView{
		ProfileView: buildProfileView(user),
		PostIDs:     make([]uint, 0, len(user.Posts)),
	}
	for _, post := range user.Posts {
		view.PostIDs = append(view.PostIDs, post.ID)
	}
	return view, nil
}

// Profile returns another user's profile without their post list.
func (s *ProfileService) Profile(ctx context.Context, userID uint) (*ProfileView, error) {
	user, err := s.users.GetWithProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := buildProfileView(user)
	return &view, nil
}

// UploadAvatar replaces the caller's avatar. Exactly one file is expected.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uint, files []*multipart.FileHeader) (string, error) {
	if len(files) != 1 {
		return "", models.NewValidationError("Only 1 image needed")
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}

	rel, err := s.media.SaveAvatar(files[0], userID, profile.ImgPath)
	if err != nil {
		return "", err
	}

	profile.ImgPath = rel
	if err := s.profiles.Update(ctx, profile); err != nil {
		return "", err
	}
	return rel, nil
}

// UpdateProfile applies a partial update to the caller's profile. Fields
// are validated together before any of them is applied.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, patch ProfilePatch) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Name and surname only need to be strings here; the strict spelling
	// rules apply at registration.
	fields := make(map[string]string)
	if patch.Age != nil {
		if err := validation.ValidateAge(*patch.Age); err != nil {
			fields["age"] = err.Error()
		}
	}
	if patch.PhoneNumber != nil {
		if err := validation.ValidatePhoneNumber(*patch.PhoneNumber); err != nil {
			fields["phone_number"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	if patch.Name != nil {
		profile.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Surname != nil {
		profile.Surname = strings.TrimSpace(*patch.Surname)
	}
	if patch.Age != nil {
		profile.Age = *patch.Age
	}
	if patch.Bio != nil {
		profile.Bio = strings.TrimSpace(*patch.Bio)
	}
	if patch.PhoneNumber != nil {
		profile.PhoneNumber = strings.TrimSpace(*patch.PhoneNumber)
	}
	if patch.Location != nil {
		profile.Location = strings.TrimSpace(*patch.Location)
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// DeleteAccount removes the caller's account, posts and stored media, and
// blocklists the presented token. It requires a fresh token, one obtained
// by logging in rather than by refreshing.
func (s *ProfileService) DeleteAccount(ctx context.Context, claims *TokenClaims) error {
	if !claims.Fresh {
		return models.NewUnauthorizedError("Fresh token required")
	}

	user, err := s.users.GetWithProfileAndPosts(ctx, claims.UserID)
	if err != nil {
		return err
	}

	if err := s.blocklist.RevokeToken(ctx, claims.JTI, time.Until(claims.ExpiresAt)); err != nil {
		return models.NewInternalError(err)
	}

	if err := s.users.Delete(ctx, claims.UserID); err != nil {
		return err
	}

	if user.Profile != nil && user.Profile.ImgPath != "" {
		if err := s.media.RemoveFile(user.Profile.ImgPath); err != nil {
			middleware.Logger.Warn("failed to remove avatar on account deletion",
				"user_id", claims.UserID, "error", err)
		}
	}
	for _, post := range user.Posts {
		if post.ImgPath == "" {
			continue
		}
		if _, err := s.media.RemoveTree(post.ImgPath); err != nil {
			middleware.Logger.Warn("failed to remove post images on account deletion",
				"user_id", claims.UserID, "post_id", post.ID, "error", err)
		}
	}
	return nil
}

func buildProfileView(user *models.User) ProfileView {
	view := ProfileView{
		UserID:  user.ID,
		Email:   user.Email,
		RegTime: user.CreatedAt,
	}
	if user.Profile != nil {
		view.Name = user.Profile.Name
		view.Surname = user.Profile.Surname
		view.Age = user.Profile.Age
		view.Bio = user.Profile.Bio
		view.PhoneNumber = user.Profile.PhoneNumber
		view.Location = user.Profile.Location
		view.Avatar = user.Profile.ImgPath
	}
	return view
}
