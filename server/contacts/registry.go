// Package contacts manages the emergency contacts owned by a user.
//
// Every operation loads the user with their contacts, checks the change in
// memory & then writes it back. There is no locking, so two concurrent
// changes for the same user may overwrite each other.
package contacts

import (
	"context"
	"fmt"
	"strings"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/server/logger"
	"github.com/Daskott/raksha/server/models"
	"github.com/Daskott/raksha/server/phone"
)

var logg = logger.NewLogger()

type Store interface {
	FindUserWithContacts(ctx context.Context, userID uint) (*models.User, error)
	AddEmergencyContact(ctx context.Context, user *models.User, contact *models.EmergencyContact) error
	SaveEmergencyContact(ctx context.Context, user *models.User, contact *models.EmergencyContact) error
	RemoveEmergencyContact(ctx context.Context, user *models.User, contactID uint) error
}

type AddRequest struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Relationship string `json:"relationship" validate:"required"`
	Priority     *int   `json:"priority"`
}

// UpdateRequest only changes the fields that are set
type UpdateRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	Relationship *string `json:"relationship"`
	Priority     *int    `json:"priority"`
}

type Registry struct {
	store Store
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

func (r *Registry) List(ctx context.Context, userID uint) ([]models.EmergencyContact, error) {
	user, err := r.store.FindUserWithContacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.EmergencyContacts == nil {
		return []models.EmergencyContact{}, nil
	}

	return user.EmergencyContacts, nil
}

func (r *Registry) Add(ctx context.Context, userID uint, req AddRequest) (*models.EmergencyContact, error) {
	name := strings.TrimSpace(req.Name)
	rawPhone := strings.TrimSpace(req.Phone)
	relationship := strings.TrimSpace(req.Relationship)

	if name == "" || rawPhone == "" || relationship == "" {
		return nil, apperr.New(apperr.Validation, "name, phone, and relationship are required")
	}

	formattedPhone := phone.Normalize(rawPhone)

	user, err := r.store.FindUserWithContacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(user.EmergencyContacts) >= models.MAX_EMERGENCY_CONTACTS {
		return nil, apperr.New(apperr.Conflict,
			fmt.Sprintf("maximum %v emergency contacts allowed", models.MAX_EMERGENCY_CONTACTS))
	}

	if user.HasContactWithPhone(formattedPhone, 0) {
		return nil, apperr.New(apperr.Conflict, "this phone number is already added as an emergency contact")
	}

	priority := models.MIN_CONTACT_PRIORITY
	if req.Priority != nil {
		priority = models.ClampPriority(*req.Priority)
	}

	contact := &models.EmergencyContact{
		Name:         name,
		Phone:        formattedPhone,
		Relationship: relationship,
		Priority:     priority,
	}

	err = r.store.AddEmergencyContact(ctx, user, contact)
	if err != nil {
		return nil, err
	}

	logg.Infof("Added emergency contact %v for user %v, total contacts: %v", contact.ID, userID, len(user.EmergencyContacts))
	return contact, nil
}

func (r *Registry) Update(ctx context.Context, userID, contactID uint, req UpdateRequest) (*models.EmergencyContact, error) {
	user, err := r.store.FindUserWithContacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	contact := user.EmergencyContactByID(contactID)
	if contact == nil {
		return nil, apperr.New(apperr.NotFound, "contact not found")
	}

	if value, ok := nonEmpty(req.Name); ok {
		contact.Name = value
	}

	if value, ok := nonEmpty(req.Phone); ok {
		formattedPhone := phone.Normalize(value)
		if user.HasContactWithPhone(formattedPhone, contact.ID) {
			return nil, apperr.New(apperr.Conflict, "this phone number is already added as an emergency contact")
		}
		contact.Phone = formattedPhone
	}

	if value, ok := nonEmpty(req.Relationship); ok {
		contact.Relationship = value
	}

	if req.Priority != nil {
		contact.Priority = models.ClampPriority(*req.Priority)
	}

	err = r.store.SaveEmergencyContact(ctx, user, contact)
	if err != nil {
		return nil, err
	}

	return contact, nil
}

func (r *Registry) Delete(ctx context.Context, userID, contactID uint) error {
	user, err := r.store.FindUserWithContacts(ctx, userID)
	if err != nil {
		return err
	}

	if user.EmergencyContactByID(contactID) == nil {
		return apperr.New(apperr.NotFound, "contact not found")
	}

	return r.store.RemoveEmergencyContact(ctx, user, contactID)
}

func nonEmpty(value *string) (string, bool) {
	if value == nil {
		return "", false
	}

	trimmed := strings.TrimSpace(*value)
	return trimmed, trimmed != ""
}
