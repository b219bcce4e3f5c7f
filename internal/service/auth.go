package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Bigbebra2/bazarchik-api/internal/cache"
	"github.com/Bigbebra2/bazarchik-api/internal/config"
	"github.com/Bigbebra2/bazarchik-api/internal/models"
	"github.com/Bigbebra2/bazarchik-api/internal/repository"
	"github.com/Bigbebra2/bazarchik-api/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "bazarchik-api"
	tokenAudience = "bazarchik-client"

	// TokenTypeAccess marks short-lived tokens accepted by protected routes.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks tokens accepted only by the refresh endpoint.
	TokenTypeRefresh = "refresh"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Age            int    `json:"age"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	RepeatPassword string `json:"password2"`
}

// TokenPair is issued on login: a fresh access token and a refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenClaims is the validated content of a bearer token.
type TokenClaims struct {
	UserID    uint
	JTI       string
	Fresh     bool
	Type      string
	ExpiresAt time.Time
}

// AuthService handles registration, login and token lifecycle.
type AuthService struct {
	users     repository.UserRepository
	blocklist *cache.Store
	secret    []byte
}

// NewAuthService returns a new AuthService. Revocation checks go through
// the given blocklist store.
func NewAuthService(users repository.UserRepository, blocklist *cache.Store, jwtSecret string) *AuthService {
	return &AuthService{users: users, blocklist: blocklist, secret: []byte(jwtSecret)}
}

// Register validates the input, hashes the password and creates the user
// together with an initial profile.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	fields := make(map[string]string)
	if err := validation.ValidateEmail(input.Email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validation.ValidatePersonName("Name", input.Name); err != nil {
		fields["name"] = err.Error()
	}
	if err := validation.ValidatePersonName("Surname", input.Surname); err != nil {
		fields["surname"] = err.Error()
	}
	if err := validation.ValidateAge(input.Age); err != nil {
		fields["age"] = err.Error()
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		fields["password"] = err.Error()
	} else if strings.TrimSpace(input.Password) != strings.TrimSpace(input.RepeatPassword) {
		fields["password2"] = "Passwords do not match"
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(input.Password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:    strings.TrimSpace(input.Email),
		Password: string(hash),
	}
	profile := &models.Profile{
		Name:    strings.TrimSpace(input.Name),
		Surname: strings.TrimSpace(input.Surname),
		Age:     input.Age,
	}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a token pair. The access token
// is fresh, which sensitive operations like account deletion require.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, models.NewUnauthorizedError("Incorrect email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, models.NewUnauthorizedError("Incorrect email or password")
	}

	access, err := s.issueToken(user.ID, TokenTypeAccess, true, config.AccessTokenTTL)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.issueToken(user.ID, TokenTypeRefresh, false, config.RefreshTokenTTL)
	if err != nil {
		return nil, nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

// Refresh exchanges a refresh token's claims for a new non-fresh access token.
func (s *AuthService) Refresh(ctx context.Context, claims *TokenClaims) (string, error) {
	if claims.Type != TokenTypeRefresh {
		return "", models.NewUnauthorizedError("Refresh token required")
	}
	if err := s.CheckRevoked(ctx, claims.JTI); err != nil {
		return "", err
	}
	return s.issueToken(claims.UserID, TokenTypeAccess, false, config.AccessTokenTTL)
}

func (s *AuthService) issueToken(userID uint, tokenType string, fresh bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(userID), 10),
		"jti":   uuid.NewString(),
		"iss":   tokenIssuer,
		"aud":   tokenAudience,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"type":  tokenType,
		"fresh": fresh,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}

// ParseToken validates the signature and registered claims of a bearer
// token and extracts its identity.
func (s *AuthService) ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	tokenType, _ := claims["type"].(string)
	fresh, _ := claims["fresh"].(bool)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	return &TokenClaims{
		UserID:    uint(userID),
		JTI:       jti,
		Fresh:     fresh,
		Type:      tokenType,
		ExpiresAt: exp.Time,
	}, nil
}

// CheckRevoked rejects tokens on the blocklist. When the blocklist cannot
// be reached the token is rejected as well, so revocation holds even
// during a cache outage.
func (s *AuthService) CheckRevoked(ctx context.Context, jti string) error {
	revoked, err := s.blocklist.IsTokenRevoked(ctx, jti)
	if err != nil {
		return models.NewInternalError(err)
	}
	if revoked {
		return models.NewUnauthorizedError("Token has been revoked")
	}
	return nil
}

// RevokeToken blocklists the token until its natural expiry.
func (s *AuthService) RevokeToken(ctx context.Context, claims *TokenClaims) error {
	return s.blocklist.RevokeToken(ctx, claims.JTI, time.Until(claims.ExpiresAt))
}

// ResolveIdentity loads the authenticated user, going through the
// user cache.
func (s *AuthService) ResolveIdentity(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}
