// Copyright (c) 2026 Vistream. All rights reserved.

// Package upload stages multipart file uploads on local disk.
//
// # Architecture
//
// This package is part of the Infrastructure layer. Incoming multipart files
// are written to a temporary public directory first, then handed to the
// storage package for the durable S3 upload. Staged files are removed by the
// caller via Discard once the upload outcome is known.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/platform/constants"
	"github.com/vistream/vistream/pkg/uuid"
)

// allowedExtensions restricts staged files to image media.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Stager writes multipart form files into a local staging directory.
type Stager struct {
	dir    string
	logger *slog.Logger
}

// NewStager creates the staging directory if needed and returns a Stager.
func NewStager(dir string, logger *slog.Logger) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: failed to create staging dir: %w", err)
	}
	return &Stager{dir: dir, logger: logger}, nil
}

// Save extracts the named file field from an already-parsed multipart form
// and writes it to the staging directory. It returns the local path of the
// staged copy.
//
// # Errors
//   - apperr.BadRequest when the field is missing, empty, or not an image.
func (s *Stager) Save(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", apperr.BadRequest(fmt.Sprintf("%s file is required", field))
		}
		return "", apperr.BadRequest("Invalid multipart form data")
	}
	defer file.Close()

	return s.write(file, header, field)
}

// SaveOptional behaves like Save but returns an empty path, not an error,
// when the field is absent from the form.
func (s *Stager) SaveOptional(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", apperr.BadRequest("Invalid multipart form data")
	}
	defer file.Close()

	return s.write(file, header, field)
}

func (s *Stager) write(file multipart.File, header *multipart.FileHeader, field string) (string, error) {
	if header.Size == 0 {
		return "", apperr.BadRequest(fmt.Sprintf("%s file is empty", field))
	}
	if header.Size > constants.MaxUploadBytes {
		return "", apperr.BadRequest(fmt.Sprintf("%s file exceeds the upload size limit", field))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", apperr.BadRequest(fmt.Sprintf("%s must be an image file", field))
	}

	localPath := filepath.Join(s.dir, uuid.New()+ext)

	dst, err := os.Create(localPath)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("upload: failed to create staging file: %w", err))
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(localPath)
		return "", apperr.Internal(fmt.Errorf("upload: failed to write staging file: %w", err))
	}

	return localPath, nil
}

// Discard removes a staged file, logging rather than failing on errors.
// An empty path is a no-op so callers can discard unconditionally.
func (s *Stager) Discard(localPath string) {
	if localPath == "" {
		return
	}
	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("staged_file_cleanup_failed",
			slog.String("path", localPath),
			slog.Any("error", err),
		)
	}
}
