package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	DEFAULT_ALERT_TYPE    = "emergency"
	DEFAULT_ALERT_ADDRESS = "Location not specified"
	SOS_HISTORY_LIMIT     = 20

	NOTIFICATION_SENT    = "sent"
	NOTIFICATION_FAILED  = "failed"
	NOTIFICATION_PENDING = "pending"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// SOSAlert is the audit record of one SOS request. It is never updated after creation.
type SOSAlert struct {
	BaseModel
	UserID                   uint                  `json:"user_id" gorm:"not null;index"`
	Location                 Location              `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	AlertType                string                `json:"alert_type" gorm:"not null;default:emergency"`
	ContactsNotified         []ContactNotification `json:"contacts_notified" gorm:"foreignKey:SOSAlertID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PoliceNotified           bool                  `json:"police_notified"`
	PoliceNotificationStatus string                `json:"police_notification_status" gorm:"not null;default:pending"`
}

func (SOSAlert) TableName() string {
	return "sos_alerts"
}

type ContactNotification struct {
	ID                 uint      `json:"-" gorm:"primarykey"`
	SOSAlertID         uint      `json:"-" gorm:"not null;index"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone"`
	NotificationStatus string    `json:"notification_status"`
	SentAt             time.Time `json:"sent_at"`
}

func CreateSOSAlert(ctx context.Context, alert *SOSAlert) error {
	return db.WithContext(ctx).Create(alert).Error
}

// SOSAlertsForUser returns the latest 'limit' alerts for the user, newest first
func SOSAlertsForUser(ctx context.Context, userID uint, limit int) ([]SOSAlert, error) {
	alerts := []SOSAlert{}
	err := db.WithContext(ctx).
		Preload("ContactsNotified", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Scopes(newestFirst, paginate(1, limit)).
		Find(&alerts, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	return alerts, nil
}

func CountSOSAlerts(ctx context.Context) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&SOSAlert{}).Count(&count).Error
	return count, err
}

func DeleteAllSOSAlerts(ctx context.Context) (int64, error) {
	err := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ContactNotification{}).Error
	if err != nil {
		return 0, err
	}

	res := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&SOSAlert{})
	return res.RowsAffected, res.Error
}
