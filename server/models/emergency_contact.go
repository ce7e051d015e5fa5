package models

import "context"

const (
	MAX_EMERGENCY_CONTACTS = 5
	MIN_CONTACT_PRIORITY   = 1
	MAX_CONTACT_PRIORITY   = 3
)

type EmergencyContact struct {
	BaseModel
	Name         string `json:"name"`
	Phone        string `json:"phone" gorm:"not null"`
	Relationship string `json:"relationship"`
	Priority     int    `json:"priority" gorm:"default:1"`
	UserID       uint   `json:"user_id" gorm:"not null;index"`
}

// HasContactWithPhone reports whether another contact (i.e. not exceptID) already uses phone
func (user *User) HasContactWithPhone(phone string, exceptID uint) bool {
	for _, contact := range user.EmergencyContacts {
		if contact.Phone == phone && contact.ID != exceptID {
			return true
		}
	}

	return false
}

// EmergencyContactByID returns a pointer into the user's loaded contacts
func (user *User) EmergencyContactByID(id uint) *EmergencyContact {
	for i := range user.EmergencyContacts {
		if user.EmergencyContacts[i].ID == id {
			return &user.EmergencyContacts[i]
		}
	}

	return nil
}

func (user *User) AddEmergencyContact(ctx context.Context, contact *EmergencyContact) error {
	contact.UserID = user.ID
	err := db.WithContext(ctx).Create(contact).Error
	if err != nil {
		return err
	}

	user.EmergencyContacts = append(user.EmergencyContacts, *contact)
	return nil
}

func (user *User) SaveEmergencyContact(ctx context.Context, contact *EmergencyContact) error {
	contact.UserID = user.ID
	return db.WithContext(ctx).Save(contact).Error
}

// RemoveEmergencyContact deletes the contact from the db & the user's loaded contacts
func (user *User) RemoveEmergencyContact(ctx context.Context, id uint) error {
	err := db.WithContext(ctx).Where("user_id = ?", user.ID).Delete(&EmergencyContact{}, id).Error
	if err != nil {
		return err
	}

	contacts := user.EmergencyContacts[:0]
	for _, contact := range user.EmergencyContacts {
		if contact.ID != id {
			contacts = append(contacts, contact)
		}
	}
	user.EmergencyContacts = contacts

	return nil
}

// ClampPriority forces priority into the allowed range
func ClampPriority(priority int) int {
	if priority < MIN_CONTACT_PRIORITY {
		return MIN_CONTACT_PRIORITY
	}

	if priority > MAX_CONTACT_PRIORITY {
		return MAX_CONTACT_PRIORITY
	}

	return priority
}
