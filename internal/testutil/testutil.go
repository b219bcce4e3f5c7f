// Package testutil provides shared fixtures and helpers for backend tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/Bigbebra2/bazarchik-api/internal/database"
	"github.com/Bigbebra2/bazarchik-api/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory SQLite database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named in-memory DB keeps one schema visible across pooled
	// connections without leaking state between tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", gofakeit.UUID())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupMiniredis starts an in-process Redis and returns a client for it.
// Callers wrap the client in a cache.Store and inject it where needed.
func SetupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
	})
	return mr, client
}

// SeedUser inserts a user with a profile and returns both. The password is
// always "secret11" so login tests can authenticate.
func SeedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret11"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Email:    gofakeit.Email(),
		Password: string(hash),
	}
	require.NoError(t, db.Create(user).Error)

	profile := &models.Profile{
		UserID:  user.ID,
		Name:    gofakeit.FirstName(),
		Surname: gofakeit.LastName(),
	}
	require.NoError(t, db.Create(profile).Error)
	user.Profile = profile
	return user
}

// SeedPost inserts a post for the given creator.
func SeedPost(t *testing.T, db *gorm.DB, creatorID uint, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		CreatorID:   creatorID,
		Title:       title,
		Price:       gofakeit.Price(10, 1000),
		Description: gofakeit.Sentence(8),
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

// MultipartFile describes one file part of a multipart request body.
type MultipartFile struct {
	Field   string
	Name    string
	Content []byte
}

// BuildMultipart assembles a multipart body from form fields and files and
// returns it with its content type.
func BuildMultipart(t *testing.T, fields map[string]string, files []MultipartFile) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		require.NoError(t, err)
		_, err = part.Write(file.Content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// FileHeaders parses a multipart body back into file headers for service
// level tests that bypass HTTP.
func FileHeaders(t *testing.T, body *bytes.Buffer, contentType string, field string) []*multipart.FileHeader {
	t.Helper()
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	reader := multipart.NewReader(bytes.NewReader(body.Bytes()), params["boundary"])
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field]
}
