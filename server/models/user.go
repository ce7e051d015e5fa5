package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/Daskott/raksha/server/auth"
	"github.com/Daskott/raksha/server/phone"
	"gorm.io/gorm"
)

const (
	UNVERIFIED_USER = "unverified"
	VERIFIED_USER   = "verified"
)

var allFieldsExceptPassword = []string{"id",
	"first_name",
	"last_name",
	"phone_number",
	"email",
	"role_id",
	"verification_status",
	"created_at",
	"updated_at",
}

type User struct {
	BaseModel
	FirstName          string             `json:"first_name" validate:"required"`
	LastName           string             `json:"last_name" validate:"required"`
	PhoneNumber        string             `json:"phone_number" validate:"required" gorm:"not null;unique"`
	Email              string             `json:"email" validate:"required,email" gorm:"not null;unique"`
	Password           string             `json:"password,omitempty" validate:"required,password" gorm:"not null"`
	RoleID             uint               `json:"role_id" gorm:"null"`
	VerificationStatus string             `json:"verification_status" gorm:"not null;default:unverified"`
	EmergencyContacts  []EmergencyContact `json:"emergency_contacts,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Documents          []Document         `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	SOSAlerts          []SOSAlert         `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (user *User) FullName() string {
	if user.LastName == "" {
		return user.FirstName
	}

	return fmt.Sprintf("%v %v", user.FirstName, user.LastName)
}

// IsFullyVerified is true once all the required identity documents are approved
func (user *User) IsFullyVerified() bool {
	return user.VerificationStatus == VERIFIED_USER
}

func (user *User) IsAdmin(ctx context.Context) (bool, error) {
	if user.RoleID == 0 {
		return false, nil
	}

	adminRole, err := FindRole(ctx, ADMIN_USER_ROLE)
	if err != nil {
		return false, err
	}

	return adminRole.ID == user.RoleID, nil
}

// RefreshVerificationStatus marks the user as verified when every document type
// in requiredTypes has an approved document, otherwise unverified.
func RefreshVerificationStatus(ctx context.Context, userID uint, requiredTypes []string) (string, error) {
	var approvedTypes int64
	err := db.WithContext(ctx).Model(&Document{}).
		Where("user_id = ? AND verification_status = ? AND document_type IN ?", userID, APPROVED_DOCUMENT, requiredTypes).
		Distinct("document_type").Count(&approvedTypes).Error
	if err != nil {
		return "", err
	}

	status := UNVERIFIED_USER
	if len(requiredTypes) > 0 && approvedTypes >= int64(len(uniqueStrings(requiredTypes))) {
		status = VERIFIED_USER
	}

	err = db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("verification_status", status).Error
	if err != nil {
		return "", err
	}

	return status, nil
}

func FindUserBy(ctx context.Context, field string, value interface{}) (*User, error) {
	user := User{}
	err := db.WithContext(ctx).Select(allFieldsExceptPassword).First(&user, fmt.Sprintf("%v = ?", field), value).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindUserWithContacts loads the user & their emergency contacts in insertion order
func FindUserWithContacts(ctx context.Context, userID interface{}) (*User, error) {
	user := User{}
	err := db.WithContext(ctx).
		Preload("EmergencyContacts", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Select(allFieldsExceptPassword).First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func FindUserPassword(ctx context.Context, email string) (uint, string, error) {
	user := &User{}
	err := db.WithContext(ctx).Select("id", "password").First(user, "email = ?", email).Error
	if err != nil {
		return 0, "", err
	}

	return user.ID, user.Password, nil
}

// CreateUser hashes the user's password & stores the user with a canonical phone number
func CreateUser(ctx context.Context, user *User) error {
	passwordHash, err := auth.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = passwordHash
	user.PhoneNumber = phone.Normalize(user.PhoneNumber)
	user.VerificationStatus = UNVERIFIED_USER

	if user.RoleID == 0 {
		role, err := FindRole(ctx, BASIC_USER_ROLE)
		if err != nil {
			return err
		}
		user.RoleID = role.ID
	}

	err = db.WithContext(ctx).Create(user).Error
	user.Password = ""

	return err
}

func AtLeastOneUserExists(ctx context.Context) (bool, error) {
	err := db.WithContext(ctx).First(&User{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&User{}).Count(&count).Error
	return count, err
}

// DeleteAllUsers removes every user along with their emergency contacts
func DeleteAllUsers(ctx context.Context) (int64, error) {
	err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&EmergencyContact{}).Error
	if err != nil {
		return 0, err
	}

	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&User{})
	return res.RowsAffected, res.Error
}

func uniqueStrings(values []string) []string {
	seen := map[string]bool{}
	unique := []string{}
	for _, value := range values {
		if !seen[value] {
			seen[value] = true
			unique = append(unique, value)
		}
	}

	return unique
}
