// Package service contains the business logic of the application.
package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Bigbebra2/bazarchik-api/internal/middleware"
	"github.com/Bigbebra2/bazarchik-api/internal/models"
)

const (
	// PostFileLimit is the maximum size of a single post image.
	PostFileLimit = 2 * 1024 * 1024
	// PostMaxFiles is the maximum number of images per post; extra files
	// in the upload are silently ignored.
	PostMaxFiles = 4
	// PostBatchLimit caps the combined size of all images in one post.
	PostBatchLimit = 8 * 1024 * 1024
	// AvatarFileLimit is the maximum size of a profile avatar.
	AvatarFileLimit = 4 * 1024 * 1024

	uploadsPrefix = "uploads/"
	avatarsDir    = "uploads/avas"
	postsDir      = "uploads/posts"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// BatchLimits bounds a multi-file upload.
type BatchLimits struct {
	MaxFileBytes  int64
	MaxFiles      int
	MaxTotalBytes int64
}

// PostBatchLimits returns the limits applied to post image uploads.
func PostBatchLimits() BatchLimits {
	return BatchLimits{
		MaxFileBytes:  PostFileLimit,
		MaxFiles:      PostMaxFiles,
		MaxTotalBytes: PostBatchLimit,
	}
}

// MediaService stores uploaded images on the local filesystem. All paths it
// accepts and returns are slash-separated and relative, beginning with
// "uploads/"; only those resolve to files under the configured root.
type MediaService struct {
	root string
}

// NewMediaService creates a MediaService rooted at the given uploads
// directory, creating the avatar and post subdirectories if needed.
func NewMediaService(uploadRoot string) (*MediaService, error) {
	root, err := filepath.Abs(uploadRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving upload root: %w", err)
	}
	for _, sub := range []string{"avas", "posts"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating upload directory: %w", err)
		}
	}
	return &MediaService{root: root}, nil
}

// resolve maps a relative "uploads/..." path to an absolute path under the
// root. Paths outside the root, including traversal attempts, are rejected.
func (m *MediaService) resolve(rel string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(rel, "\\", "/"))
	if cleaned != strings.TrimSuffix(uploadsPrefix, "/") && !strings.HasPrefix(cleaned, uploadsPrefix) {
		return "", models.NewNotFoundError("Image not found")
	}
	abs := filepath.Join(m.root, filepath.FromSlash(strings.TrimPrefix(cleaned, uploadsPrefix)))
	inside, err := filepath.Rel(m.root, abs)
	if err != nil || strings.HasPrefix(inside, "..") {
		return "", models.NewNotFoundError("Image not found")
	}
	return abs, nil
}

// ResolveServable returns the absolute path of a stored image, or a
// not-found error when the path escapes the upload root or has no file.
func (m *MediaService) ResolveServable(rel string) (string, error) {
	abs, err := m.resolve(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", models.NewNotFoundError("Image not found")
	}
	return abs, nil
}

// PostDir returns the relative directory for a post's images.
func (m *MediaService) PostDir(postID uint) string {
	return fmt.Sprintf("%s/%d", postsDir, postID)
}

// EnsureDir creates the directory for a relative path.
func (m *MediaService) EnsureDir(rel string) error {
	abs, err := m.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func checkFile(file *multipart.FileHeader, maxBytes int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		middleware.UploadRejections.WithLabelValues("extension").Inc()
		return "", models.NewUnsupportedMediaError(ext)
	}
	if file.Size > maxBytes {
		middleware.UploadRejections.WithLabelValues("file_size").Inc()
		return "", models.NewPayloadTooLargeError("The file is too large")
	}
	return ext, nil
}

func (m *MediaService) writeFile(file *multipart.FileHeader, abs string) error {
	src, err := file.Open()
	if err != nil {
		return models.NewInternalError(err)
	}
	defer src.Close()

	dst, err := os.Create(abs)
	if err != nil {
		return models.NewInternalError(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// SaveBatch stores up to limits.MaxFiles files into dirRel, naming them
// prefix1.ext, prefix2.ext and so on. On any failure the directory is
// cleared so no partial batch survives.
func (m *MediaService) SaveBatch(files []*multipart.FileHeader, dirRel, prefix string, limits BatchLimits) ([]string, error) {
	if len(files) > limits.MaxFiles {
		files = files[:limits.MaxFiles]
	}

	saved, err := m.saveAll(files, dirRel, prefix, limits)
	if err != nil {
		if clearErr := m.ClearDirectory(dirRel); clearErr != nil {
			middleware.Logger.Error("failed to clear upload directory after error",
				"dir", dirRel, "error", clearErr)
		}
		return nil, err
	}
	return saved, nil
}

func (m *MediaService) saveAll(files []*multipart.FileHeader, dirRel, prefix string, limits BatchLimits) ([]string, error) {
	if err := m.EnsureDir(dirRel); err != nil {
		return nil, err
	}

	var total int64
	saved := make([]string, 0, len(files))
	for i, file := range files {
		ext, err := checkFile(file, limits.MaxFileBytes)
		if err != nil {
			return nil, err
		}
		rel := fmt.Sprintf("%s/%s%d%s", dirRel, prefix, i+1, ext)
		abs, err := m.resolve(rel)
		if err != nil {
			return nil, err
		}
		if err := m.writeFile(file, abs); err != nil {
			return nil, err
		}
		saved = append(saved, rel)
		total += file.Size
	}
	if total > limits.MaxTotalBytes {
		middleware.UploadRejections.WithLabelValues("batch_size").Inc()
		return nil, models.NewPayloadTooLargeError("Files are too large")
	}
	return saved, nil
}

// SaveAvatar stores a user's avatar as uploads/avas/<id>_ava.<ext>,
// removing the previous avatar file if one exists.
func (m *MediaService) SaveAvatar(file *multipart.FileHeader, userID uint, prevRel string) (string, error) {
	ext, err := checkFile(file, AvatarFileLimit)
	if err != nil {
		return "", err
	}

	if prevRel != "" {
		if abs, resolveErr := m.resolve(prevRel); resolveErr == nil {
			if removeErr := os.Remove(abs); removeErr != nil && !os.IsNotExist(removeErr) {
				middleware.Logger.Warn("failed to remove previous avatar",
					"path", prevRel, "error", removeErr)
			}
		}
	}

	rel := fmt.Sprintf("%s/%d_ava%s", avatarsDir, userID, ext)
	abs, err := m.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := m.writeFile(file, abs); err != nil {
		return "", err
	}
	return rel, nil
}

// RemoveFile deletes a single stored file. Missing files are not errors.
func (m *MediaService) RemoveFile(rel string) error {
	abs, err := m.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return models.NewInternalError(err)
	}
	return nil
}

// ClearDirectory removes every entry inside dirRel but keeps the directory.
func (m *MediaService) ClearDirectory(dirRel string) error {
	abs, err := m.resolve(dirRel)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return models.NewInternalError(err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(abs, entry.Name())); err != nil {
			return models.NewInternalError(err)
		}
	}
	return nil
}

// RemoveTree deletes a directory and its contents. The boolean reports
// whether anything existed to delete.
func (m *MediaService) RemoveTree(dirRel string) (bool, error) {
	abs, err := m.resolve(dirRel)
	if err != nil {
		return false, err
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		return false, nil
	}
	if err := os.RemoveAll(abs); err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

// ListImages returns the relative paths of image files in dirRel, sorted
// by name.
func (m *MediaService) ListImages(dirRel string) ([]string, error) {
	abs, err := m.resolve(dirRel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !allowedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, dirRel+"/"+entry.Name())
	}
	sort.Strings(paths)
	return paths, nil
}

// FirstImage returns the first image in dirRel, or "" when there is none.
func (m *MediaService) FirstImage(dirRel string) string {
	paths, err := m.ListImages(dirRel)
	if err != nil || len(paths) == 0 {
		return ""
	}
	return paths[0]
}
