package service

import (
	"context"
	"testing"
	"time"

	"github.com/Bigbebra2/bazarchik-api/internal/cache"
	"github.com/Bigbebra2/bazarchik-api/internal/models"
	"github.com/Bigbebra2/bazarchik-api/internal/repository"
	"github.com/Bigbebra2/bazarchik-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	_, client := testutil.SetupMiniredis(t)
	store := cache.NewStore(client)
	return NewAuthService(repository.NewUserRepository(db, store), store, "test-secret"), db
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:           "Anna",
		Surname:        "Smith",
		Age:            30,
		Email:          "anna@example.com",
		Password:       "pass1234",
		RepeatPassword: "pass1234",
	}
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	svc, db := newAuthService(t)

	user, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "pass1234", user.Password, "password must be stored hashed")

	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&profile).Error)
	assert.Equal(t, "Anna", profile.Name)
	assert.Equal(t, "Smith", profile.Surname)
	assert.Equal(t, 30, profile.Age)
}

func TestRegisterCollectsFieldErrors(t *testing.T) {
	svc, _ := newAuthService(t)

	input := RegisterInput{
		Name:           "A",
		Surname:        "Smith99",
		Email:          "not-an-email",
		Password:       "abc",
		RepeatPassword: "abc",
	}
	_, err := svc.Register(context.Background(), input)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "surname")
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "password")
	assert.Contains(t, appErr.Fields, "age", "age is required at registration")
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	svc, _ := newAuthService(t)

	input := validRegisterInput()
	input.RepeatPassword = "different"
	_, err := svc.Register(context.Background(), input)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "password2")
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegisterInput())
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestLoginIssuesFreshAccessAndRefreshTokens(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	pair, user, err := svc.Login(ctx, "anna@example.com", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	access, err := svc.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, access.UserID)
	assert.Equal(t, TokenTypeAccess, access.Type)
	assert.True(t, access.Fresh)
	assert.NotEmpty(t, access.JTI)

	refresh, err := svc.ParseToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.Type)
	assert.False(t, refresh.Fresh)
	assert.NotEqual(t, access.JTI, refresh.JTI)
	assert.True(t, refresh.ExpiresAt.After(access.ExpiresAt))
}

func TestLoginWrongCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "anna@example.com", "wrong")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)

	_, _, err = svc.Login(ctx, "nobody@example.com", "pass1234")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)
}

func TestRefreshRequiresRefreshToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "anna@example.com", "pass1234")
	require.NoError(t, err)

	accessClaims, err := svc.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, accessClaims)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)

	refreshClaims, err := svc.ParseToken(pair.RefreshToken)
	require.NoError(t, err)
	newAccess, err := svc.Refresh(ctx, refreshClaims)
	require.NoError(t, err)

	claims, err := svc.ParseToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.False(t, claims.Fresh, "refreshed tokens are never fresh")
}

func TestParseTokenRejectsForgedAndGarbageTokens(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "anna@example.com", "pass1234")
	require.NoError(t, err)

	other := NewAuthService(svc.users, svc.blocklist, "other-secret")
	_, err = other.ParseToken(pair.AccessToken)
	assert.Error(t, err)

	_, err = svc.ParseToken("not.a.token")
	assert.Error(t, err)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "anna@example.com", "pass1234")
	require.NoError(t, err)

	claims, err := svc.ParseToken(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.CheckRevoked(ctx, claims.JTI))
	require.NoError(t, svc.RevokeToken(ctx, claims))

	err = svc.CheckRevoked(ctx, claims.JTI)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)
}

func TestCheckRevokedFailsClosedWithoutStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewAuthService(repository.NewUserRepository(db, nil), nil, "test-secret")

	err := svc.CheckRevoked(context.Background(), "some-jti")
	require.Error(t, err, "an unreachable blocklist must reject the token")
}

func TestTokenLifetimes(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, "anna@example.com", "pass1234")
	require.NoError(t, err)

	access, err := svc.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := svc.ParseToken(pair.RefreshToken)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(time.Hour), access.ExpiresAt, time.Minute)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), refresh.ExpiresAt, time.Minute)
}
