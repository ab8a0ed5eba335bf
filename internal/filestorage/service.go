// File: internal/filestorage/service.go
package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"green_planet_backend/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service stores uploaded files on local disk and serves them under /uploads.
type Service struct {
	uploadDir     string
	maxSizeBytes  int64
	publicBaseURL string
	logger        *zap.Logger
}

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// NewService creates the file storage service and ensures the upload
// directory exists.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory %q: %w", cfg.UploadDir, err)
	}
	return &Service{
		uploadDir:     cfg.UploadDir,
		maxSizeBytes:  int64(cfg.MaxUploadSizeMB) * 1024 * 1024,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger.Named("FileStorage"),
	}, nil
}

// SaveImage stores an uploaded image and returns its public URL.
// File names are randomized so uploads can never collide or traverse paths.
func (s *Service) SaveImage(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > s.maxSizeBytes {
		return "", fmt.Errorf("file %q exceeds the maximum upload size", fileHeader.Filename)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExtensions[ext] {
		return "", fmt.Errorf("file type %q is not an accepted image format", ext)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("opening uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dstPath := filepath.Join(s.uploadDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("creating file on disk: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("writing uploaded file: %w", err)
	}

	s.logger.Debug("Stored uploaded image", zap.String("file", name))
	return s.publicBaseURL + "/uploads/" + name, nil
}

// Delete removes a stored file given its public URL. Unknown URLs are ignored.
func (s *Service) Delete(publicURL string) {
	const prefix = "/uploads/"
	idx := strings.LastIndex(publicURL, prefix)
	if idx < 0 {
		return
	}
	name := publicURL[idx+len(prefix):]
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return
	}
	if err := os.Remove(filepath.Join(s.uploadDir, name)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to delete stored file", zap.String("file", name), zap.Error(err))
	}
}
