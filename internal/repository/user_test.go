package repository

import (
	"context"
	"testing"

	"github.com/Bigbebra2/bazarchik-api/internal/cache"
	"github.com/Bigbebra2/bazarchik-api/internal/models"
	"github.com/Bigbebra2/bazarchik-api/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestCreateWithProfileAtomic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	user := &models.User{Email: "anna@example.com", Password: "hash"}
	profile := &models.Profile{Name: "Anna", Surname: "Smith"}
	require.NoError(t, repo.CreateWithProfile(ctx, user, profile))
	assert.NotZero(t, user.ID)
	assert.Equal(t, user.ID, profile.UserID)

	// Same email again: conflict, and no second profile row appears.
	dup := &models.User{Email: "anna@example.com", Password: "hash"}
	err := repo.CreateWithProfile(ctx, dup, &models.Profile{Name: "Anna", Surname: "Smith"})
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.EqualValues(t, 1, profiles)
}

func TestGetByEmailMissingReturnsNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db, nil)

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetByEmailMissingReturnsNilWithMock(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password"}))

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDUsesCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, client := testutil.SetupMiniredis(t)
	repo := NewUserRepository(db, cache.NewStore(client))
	ctx := context.Background()

	seeded := testutil.SeedUser(t, db)

	first, err := repo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.Email, first.Email)

	// Mutate the row directly; a cached read must not observe it.
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", seeded.ID).
		Update("email", "changed@example.com").Error)

	cached, err := repo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.Email, cached.Email)
}

func TestGetByIDNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db, nil)

	_, err := repo.GetByID(context.Background(), 999)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestDeleteRemovesProfileAndPosts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	_, client := testutil.SetupMiniredis(t)
	repo := NewUserRepository(db, cache.NewStore(client))
	ctx := context.Background()

	user := testutil.SeedUser(t, db)
	testutil.SeedPost(t, db, user.ID, "Old bike")
	testutil.SeedPost(t, db, user.ID, "Older bike")

	// Warm the cache so deletion must also invalidate it.
	_, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID))

	var users, profiles, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Zero(t, users)
	assert.Zero(t, profiles)
	assert.Zero(t, posts)

	_, err = repo.GetByID(ctx, user.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestGetWithProfileAndPosts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewUserRepository(db, nil)

	user := testutil.SeedUser(t, db)
	testutil.SeedPost(t, db, user.ID, "Red bike")

	got, err := repo.GetWithProfileAndPosts(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	assert.Equal(t, user.Profile.Name, got.Profile.Name)
	require.Len(t, got.Posts, 1)
	assert.Equal(t, "Red bike", got.Posts[0].Title)
}
