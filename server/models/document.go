package models

import (
	"context"

	"gorm.io/gorm"
)

const (
	PENDING_DOCUMENT  = "pending"
	APPROVED_DOCUMENT = "approved"
	REJECTED_DOCUMENT = "rejected"

	DEFAULT_EXTRACTED_TEXT = "Document uploaded - manual verification required"
)

type Document struct {
	BaseModel
	UserID             uint   `json:"user_id" gorm:"not null;index"`
	DocumentType       string `json:"document_type" gorm:"not null"`
	DocumentNumber     string `json:"document_number" gorm:"not null"`
	FileName           string `json:"file_name"`
	FilePath           string `json:"-" gorm:"not null"`
	VerificationStatus string `json:"verification_status" gorm:"not null;default:pending"`
	ExtractedText      string `json:"extracted_text"`
}

func CreateDocument(ctx context.Context, document *Document) error {
	if document.VerificationStatus == "" {
		document.VerificationStatus = PENDING_DOCUMENT
	}

	if document.ExtractedText == "" {
		document.ExtractedText = DEFAULT_EXTRACTED_TEXT
	}

	return db.WithContext(ctx).Create(document).Error
}

func HasApprovedDocument(ctx context.Context, userID uint, documentType string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&Document{}).
		Where("user_id = ? AND document_type = ? AND verification_status = ?", userID, documentType, APPROVED_DOCUMENT).
		Count(&count).Error

	return count > 0, err
}

// DocumentsForUser returns the user's documents, newest first
func DocumentsForUser(ctx context.Context, userID uint) ([]Document, error) {
	documents := []Document{}
	err := db.WithContext(ctx).Scopes(newestFirst).Find(&documents, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	return documents, nil
}

func FindDocument(ctx context.Context, id uint) (*Document, error) {
	document := Document{}
	err := db.WithContext(ctx).First(&document, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &document, nil
}

func FindUserDocument(ctx context.Context, userID, id uint) (*Document, error) {
	document := Document{}
	err := db.WithContext(ctx).First(&document, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}

	return &document, nil
}

func (document *Document) SetVerificationStatus(ctx context.Context, status string) error {
	err := db.WithContext(ctx).Model(document).Update("verification_status", status).Error
	if err != nil {
		return err
	}

	document.VerificationStatus = status
	return nil
}

func AllDocuments(ctx context.Context) ([]Document, error) {
	documents := []Document{}
	err := db.WithContext(ctx).Find(&documents).Error
	return documents, err
}

func CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&Document{}).Count(&count).Error
	return count, err
}

func DeleteAllDocuments(ctx context.Context) (int64, error) {
	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Document{})
	return res.RowsAffected, res.Error
}
