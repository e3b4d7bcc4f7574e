package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/noteghar/noteghar/internal/model"
	"github.com/noteghar/noteghar/internal/storage"
	"github.com/noteghar/noteghar/internal/validation"
)

// Upload is a note file as received from the client.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// StoredFile describes where an upload ended up.
type StoredFile struct {
	Name        string
	Ext         string
	Size        int64
	StoragePath string
}

type FileService struct {
	storage     storage.Storage
	constraints validation.FileConstraints
}

func NewFileService(storage storage.Storage, maxUploadBytes int64) *FileService {
	return &FileService{
		storage:     storage,
		constraints: validation.NoteConstraints.WithMaxSize(maxUploadBytes),
	}
}

// Validate checks the upload against the note file policy
func (s *FileService) Validate(upload Upload) error {
	return validation.ValidateUpload(upload.Filename, upload.Size, s.constraints)
}

// Save validates the upload and writes it under a generated name
func (s *FileService) Save(ctx context.Context, upload Upload) (*StoredFile, error) {
	err := s.Validate(upload)
	if err != nil {
		return nil, err
	}

	ext := validation.Extension(upload.Filename)
	storagePath := path.Join("notes", fmt.Sprintf("%s.%s", uuid.New().String(), ext))

	err = s.storage.Save(ctx, storagePath, upload.Body, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	return &StoredFile{
		Name:        path.Base(upload.Filename),
		Ext:         ext,
		Size:        upload.Size,
		StoragePath: storagePath,
	}, nil
}

// URL returns a short-lived download link for a note file
func (s *FileService) URL(ctx context.Context, note *model.Note) (string, error) {
	return s.storage.PresignedURL(ctx, note.StoragePath, note.FileName)
}

// Remove deletes a stored file. Failures are logged; the file may already be gone.
func (s *FileService) Remove(ctx context.Context, storagePath string) {
	err := s.storage.Delete(ctx, storagePath)
	if err != nil {
		slog.Warn("failed to delete file from storage", "storage_path", storagePath, "error", err)
	}
}
