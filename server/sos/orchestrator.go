// Package sos turns a user's SOS request into SMS notifications for their
// emergency contacts & the authority number, and records the outcome.
package sos

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/server/logger"
	"github.com/Daskott/raksha/server/metrics"
	"github.com/Daskott/raksha/server/models"
	"github.com/Daskott/raksha/server/notify"
	"github.com/Daskott/raksha/server/phone"
)

const (
	AUTHORITY_NAME = "Police"
	MAPS_URL       = "https://maps.google.com/maps?q=%v,%v"
)

var logg = logger.NewLogger()

type Store interface {
	FindUserWithContacts(ctx context.Context, userID uint) (*models.User, error)
	CreateSOSAlert(ctx context.Context, alert *models.SOSAlert) error
	SOSAlertsForUser(ctx context.Context, userID uint, limit int) ([]models.SOSAlert, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, message string, recipients []notify.Recipient) []notify.Result
}

type Request struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
	AlertType string   `json:"alert_type"`
}

// Summary is what the caller gets back; per recipient details stay in the alert record
type Summary struct {
	ID               uint            `json:"id"`
	AlertType        string          `json:"alert_type"`
	Location         models.Location `json:"location"`
	ContactsNotified int             `json:"contacts_notified"`
	PoliceNotified   bool            `json:"police_notified"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Orchestrator struct {
	store               Store
	contactDispatcher   Dispatcher
	authorityDispatcher Dispatcher
	authorityNumber     string
	metrics             *metrics.SafetyMetrics
}

// NewOrchestrator uses contactDispatcher for emergency contacts &
// authorityDispatcher for the single authority number.
func NewOrchestrator(store Store, contactDispatcher, authorityDispatcher Dispatcher, authorityNumber string) *Orchestrator {
	return &Orchestrator{
		store:               store,
		contactDispatcher:   contactDispatcher,
		authorityDispatcher: authorityDispatcher,
		authorityNumber:     phone.Normalize(authorityNumber),
	}
}

func (o *Orchestrator) WithMetrics(m *metrics.SafetyMetrics) *Orchestrator {
	o.metrics = m
	return o
}

// Send runs a single SOS request to completion. Failed notifications are
// recorded in the alert, only validation, lookup & persistence failures are returned.
func (o *Orchestrator) Send(ctx context.Context, userID uint, req Request) (*Summary, error) {
	err := validate(req)
	if err != nil {
		o.metrics.ObserveSOSAlert("rejected")
		return nil, err
	}

	user, err := o.store.FindUserWithContacts(ctx, userID)
	if err != nil {
		o.metrics.ObserveSOSAlert("rejected")
		return nil, err
	}

	logg.Infof("SOS from user %v, emergency contacts: %v", user.ID, len(user.EmergencyContacts))

	if !user.IsFullyVerified() {
		o.metrics.ObserveSOSAlert("rejected")
		return nil, apperr.New(apperr.Forbidden, "only verified users can send SOS alerts")
	}

	// Once accepted, an alert is sent & saved even if the client disconnects
	ctx = context.WithoutCancel(ctx)

	alert := &models.SOSAlert{
		UserID: user.ID,
		Location: models.Location{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Address:   defaultString(req.Address, models.DEFAULT_ALERT_ADDRESS),
		},
		AlertType:                defaultString(req.AlertType, models.DEFAULT_ALERT_TYPE),
		PoliceNotificationStatus: models.NOTIFICATION_PENDING,
	}

	message := BuildMessage(user, *req.Latitude, *req.Longitude)

	contactResults := o.contactDispatcher.Dispatch(ctx, message, contactRecipients(user.EmergencyContacts))
	alert.ContactsNotified = notifications(contactResults)

	authorityResults := o.authorityDispatcher.Dispatch(ctx, message,
		[]notify.Recipient{{Name: AUTHORITY_NAME, Phone: o.authorityNumber}})
	if len(authorityResults) > 0 && authorityResults[0].Status == notify.SENT {
		alert.PoliceNotified = true
		alert.PoliceNotificationStatus = models.NOTIFICATION_SENT
	} else {
		alert.PoliceNotificationStatus = models.NOTIFICATION_FAILED
		logg.Errorf("Failed to notify %v at %v for user %v", AUTHORITY_NAME, o.authorityNumber, user.ID)
	}

	err = o.store.CreateSOSAlert(ctx, alert)
	if err != nil {
		o.metrics.ObserveSOSAlert("persistence_failed")
		logg.Errorw("SOS alert could not be saved, notification results follow",
			"user_id", user.ID,
			"location", alert.Location,
			"contacts_notified", alert.ContactsNotified,
			"police_notification_status", alert.PoliceNotificationStatus,
			"error", err,
		)

		if apperr.KindOf(err) == apperr.Unknown {
			err = apperr.Wrap(err, apperr.Persistence, "failed to save SOS alert")
		}
		return nil, err
	}

	o.metrics.ObserveSOSAlert("persisted")

	return &Summary{
		ID:               alert.ID,
		AlertType:        alert.AlertType,
		Location:         alert.Location,
		ContactsNotified: len(alert.ContactsNotified),
		PoliceNotified:   alert.PoliceNotified,
		CreatedAt:        alert.CreatedAt,
	}, nil
}

// History returns the user's latest alerts, newest first
func (o *Orchestrator) History(ctx context.Context, userID uint) ([]models.SOSAlert, error) {
	return o.store.SOSAlertsForUser(ctx, userID, models.SOS_HISTORY_LIMIT)
}

// BuildMessage is the text sent to every recipient of an SOS alert
func BuildMessage(user *models.User, latitude, longitude float64) string {
	mapsLink := fmt.Sprintf(MAPS_URL, formatCoordinate(latitude), formatCoordinate(longitude))
	return fmt.Sprintf("SOS! I need help.\nName: %v\nPhone: %v\nLocation: %v",
		user.FullName(), phone.Normalize(user.PhoneNumber), mapsLink)
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func validate(req Request) error {
	if req.Latitude == nil || req.Longitude == nil {
		return apperr.New(apperr.Validation, "location coordinates are required")
	}

	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		return apperr.New(apperr.Validation, "location coordinates are out of range")
	}

	return nil
}

func contactRecipients(contacts []models.EmergencyContact) []notify.Recipient {
	recipients := make([]notify.Recipient, 0, len(contacts))
	for _, contact := range contacts {
		recipients = append(recipients, notify.Recipient{Name: contact.Name, Phone: contact.Phone})
	}

	return recipients
}

func notifications(results []notify.Result) []models.ContactNotification {
	notified := make([]models.ContactNotification, 0, len(results))
	for _, result := range results {
		notified = append(notified, models.ContactNotification{
			Name:               result.Name,
			Phone:              result.Phone,
			NotificationStatus: string(result.Status),
			SentAt:             result.SentAt,
		})
	}

	return notified
}

// formatCoordinate never uses exponent notation, so small values stay valid in a maps link
func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}
