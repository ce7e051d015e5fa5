package models

import (
	"context"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Store adapts the db functions in this package for the safety services,
// tagging every error as either 'not found' or a persistence failure.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) FindUserWithContacts(ctx context.Context, userID uint) (*User, error) {
	user, err := FindUserWithContacts(ctx, userID)
	return user, tagStoreError(err, "user not found", "failed to fetch user")
}

func (s *Store) AddEmergencyContact(ctx context.Context, user *User, contact *EmergencyContact) error {
	return tagStoreError(user.AddEmergencyContact(ctx, contact), "user not found", "failed to add emergency contact")
}

func (s *Store) SaveEmergencyContact(ctx context.Context, user *User, contact *EmergencyContact) error {
	return tagStoreError(user.SaveEmergencyContact(ctx, contact), "contact not found", "failed to update emergency contact")
}

func (s *Store) RemoveEmergencyContact(ctx context.Context, user *User, contactID uint) error {
	return tagStoreError(user.RemoveEmergencyContact(ctx, contactID), "contact not found", "failed to delete emergency contact")
}

func (s *Store) CreateSOSAlert(ctx context.Context, alert *SOSAlert) error {
	return tagStoreError(CreateSOSAlert(ctx, alert), "", "failed to save SOS alert")
}

func (s *Store) SOSAlertsForUser(ctx context.Context, userID uint, limit int) ([]SOSAlert, error) {
	alerts, err := SOSAlertsForUser(ctx, userID, limit)
	return alerts, tagStoreError(err, "", "failed to fetch SOS history")
}

func (s *Store) HasApprovedDocument(ctx context.Context, userID uint, documentType string) (bool, error) {
	approved, err := HasApprovedDocument(ctx, userID, documentType)
	return approved, tagStoreError(err, "", "failed to check existing documents")
}

func (s *Store) CreateDocument(ctx context.Context, document *Document) error {
	return tagStoreError(CreateDocument(ctx, document), "", "failed to save document")
}

func (s *Store) DocumentsForUser(ctx context.Context, userID uint) ([]Document, error) {
	documents, err := DocumentsForUser(ctx, userID)
	return documents, tagStoreError(err, "", "failed to fetch documents")
}

func (s *Store) FindUserDocument(ctx context.Context, userID, documentID uint) (*Document, error) {
	document, err := FindUserDocument(ctx, userID, documentID)
	return document, tagStoreError(err, "document not found", "failed to fetch document")
}

func (s *Store) FindDocument(ctx context.Context, documentID uint) (*Document, error) {
	document, err := FindDocument(ctx, documentID)
	return document, tagStoreError(err, "document not found", "failed to fetch document")
}

func (s *Store) SetDocumentStatus(ctx context.Context, document *Document, status string) error {
	return tagStoreError(document.SetVerificationStatus(ctx, status), "document not found", "failed to update document")
}

func (s *Store) RefreshVerificationStatus(ctx context.Context, userID uint, requiredTypes []string) (string, error) {
	status, err := RefreshVerificationStatus(ctx, userID, requiredTypes)
	return status, tagStoreError(err, "user not found", "failed to update verification status")
}

func tagStoreError(err error, notFoundMsg, failureMsg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) && notFoundMsg != "" {
		return apperr.Wrap(err, apperr.NotFound, notFoundMsg)
	}

	return apperr.Wrap(err, apperr.Persistence, failureMsg)
}
