// Package documents handles identity document uploads & their review.
package documents

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/server/logger"
	"github.com/Daskott/raksha/server/models"
	"github.com/google/uuid"
)

// MAX_FILE_SIZE is the largest document file accepted, in bytes
const (
	MAX_FILE_SIZE = 5 * 1024 * 1024

	// FILE_NAME_PREFIX starts the name of every stored document file
	FILE_NAME_PREFIX = "document-"
)

var (
	logg = logger.NewLogger()

	allowedExtensions = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".pdf": true}

	allowedContentTypes = map[string]bool{
		"image/jpeg":      true,
		"image/jpg":       true,
		"image/png":       true,
		"application/pdf": true,
	}
)

type Store interface {
	HasApprovedDocument(ctx context.Context, userID uint, documentType string) (bool, error)
	CreateDocument(ctx context.Context, document *models.Document) error
	DocumentsForUser(ctx context.Context, userID uint) ([]models.Document, error)
	FindUserDocument(ctx context.Context, userID, documentID uint) (*models.Document, error)
	FindDocument(ctx context.Context, documentID uint) (*models.Document, error)
	SetDocumentStatus(ctx context.Context, document *models.Document, status string) error
	RefreshVerificationStatus(ctx context.Context, userID uint, requiredTypes []string) (string, error)
}

// FileStore keeps the uploaded files. Refs returned by Save are stored as the document's file path.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

type Upload struct {
	DocumentType   string
	DocumentNumber string
	FileName       string
	ContentType    string
	// Size is the size reported by the client, or a negative value if unknown
	Size int64
	File io.Reader
}

type Service struct {
	store         Store
	files         FileStore
	requiredTypes []string
}

func NewService(store Store, files FileStore, requiredTypes []string) *Service {
	return &Service{store: store, files: files, requiredTypes: requiredTypes}
}

// Upload stores the file & creates a pending document for it. The file is
// removed again if anything fails after it was written.
func (s *Service) Upload(ctx context.Context, userID uint, upload Upload) (*models.Document, error) {
	if upload.File == nil {
		return nil, apperr.New(apperr.Validation, "document file is required")
	}

	if !IsAllowedFile(upload.FileName, upload.ContentType) {
		return nil, apperr.New(apperr.Validation, "only JPEG, JPG, PNG and PDF files are allowed")
	}

	if upload.Size > MAX_FILE_SIZE {
		return nil, fileTooLargeError()
	}

	documentType := strings.TrimSpace(upload.DocumentType)
	documentNumber := strings.TrimSpace(upload.DocumentNumber)
	if documentType == "" || documentNumber == "" {
		return nil, apperr.New(apperr.Validation, "document type and number are required")
	}

	approved, err := s.store.HasApprovedDocument(ctx, userID, documentType)
	if err != nil {
		return nil, err
	}
	if approved {
		return nil, apperr.New(apperr.Conflict, "you already have an approved document of this type")
	}

	ext := strings.ToLower(filepath.Ext(upload.FileName))
	limitedFile := &io.LimitedReader{R: upload.File, N: MAX_FILE_SIZE + 1}

	filePath, err := s.files.Save(ctx, fmt.Sprintf("%v%v%v", FILE_NAME_PREFIX, uuid.New(), ext), limitedFile)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Persistence, "failed to store document file")
	}

	if limitedFile.N <= 0 {
		s.removeFile(ctx, filePath)
		return nil, fileTooLargeError()
	}

	document := &models.Document{
		UserID:         userID,
		DocumentType:   documentType,
		DocumentNumber: documentNumber,
		FileName:       filepath.Base(upload.FileName),
		FilePath:       filePath,
	}

	err = s.store.CreateDocument(ctx, document)
	if err != nil {
		s.removeFile(ctx, filePath)
		return nil, err
	}

	logg.Infof("Document %v (%v) uploaded for user %v", document.ID, documentType, userID)
	return document, nil
}

func (s *Service) List(ctx context.Context, userID uint) ([]models.Document, error) {
	return s.store.DocumentsForUser(ctx, userID)
}

// Open returns the user's document & a reader for its file. A missing record
// or a missing file are both reported as not found.
func (s *Service) Open(ctx context.Context, userID, documentID uint) (*models.Document, io.ReadCloser, error) {
	document, err := s.store.FindUserDocument(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.files.Open(ctx, document.FilePath)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil, nil, apperr.Wrap(err, apperr.NotFound, "document file not found")
		}
		return nil, nil, apperr.Wrap(err, apperr.Persistence, "failed to open document file")
	}

	return document, rc, nil
}

// Review sets the document's verification status & recomputes whether its
// owner is fully verified.
func (s *Service) Review(ctx context.Context, documentID uint, status string) (*models.Document, error) {
	if status != models.APPROVED_DOCUMENT && status != models.REJECTED_DOCUMENT {
		return nil, apperr.Errorf(apperr.Validation, "status must be either '%v' or '%v'",
			models.APPROVED_DOCUMENT, models.REJECTED_DOCUMENT)
	}

	document, err := s.store.FindDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	err = s.store.SetDocumentStatus(ctx, document, status)
	if err != nil {
		return nil, err
	}

	userStatus, err := s.store.RefreshVerificationStatus(ctx, document.UserID, s.requiredTypes)
	if err != nil {
		return nil, err
	}

	logg.Infof("Document %v %v, user %v is now %v", document.ID, status, document.UserID, userStatus)
	return document, nil
}

// IsAllowedFile is true when both the file extension & content type are jpeg, jpg, png or pdf
func IsAllowedFile(fileName, contentType string) bool {
	if !allowedExtensions[strings.ToLower(filepath.Ext(fileName))] {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return allowedContentTypes[strings.ToLower(mediaType)]
}

// ContentType is the content type used when serving a document's file
func ContentType(fileName string) string {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func (s *Service) removeFile(ctx context.Context, filePath string) {
	if err := s.files.Delete(ctx, filePath); err != nil {
		logg.Errorf("failed to remove document file %v: %v", filePath, err)
	}
}

func fileTooLargeError() error {
	return apperr.Errorf(apperr.Validation, "file exceeds the %vMB limit", MAX_FILE_SIZE/(1024*1024))
}
