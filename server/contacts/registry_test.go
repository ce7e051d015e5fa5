package contacts

import (
	"context"
	"fmt"
	"testing"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/server/models"
	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	users  map[uint]*models.User
	nextID uint
	writes int
}

func newFakeStore(userIDs ...uint) *fakeStore {
	store := &fakeStore{users: map[uint]*models.User{}, nextID: 100}
	for _, id := range userIDs {
		user := &models.User{FirstName: "tony"}
		user.ID = id
		store.users[id] = user
	}
	return store
}

func (f *fakeStore) FindUserWithContacts(ctx context.Context, userID uint) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}

	// Hand out a copy, like loading from the db would
	loaded := *user
	loaded.EmergencyContacts = append([]models.EmergencyContact{}, user.EmergencyContacts...)
	return &loaded, nil
}

func (f *fakeStore) AddEmergencyContact(ctx context.Context, user *models.User, contact *models.EmergencyContact) error {
	f.writes++
	f.nextID++
	contact.ID = f.nextID
	contact.UserID = user.ID
	user.EmergencyContacts = append(user.EmergencyContacts, *contact)
	f.users[user.ID].EmergencyContacts = append([]models.EmergencyContact{}, user.EmergencyContacts...)
	return nil
}

func (f *fakeStore) SaveEmergencyContact(ctx context.Context, user *models.User, contact *models.EmergencyContact) error {
	f.writes++
	f.users[user.ID].EmergencyContacts = append([]models.EmergencyContact{}, user.EmergencyContacts...)
	return nil
}

func (f *fakeStore) RemoveEmergencyContact(ctx context.Context, user *models.User, contactID uint) error {
	f.writes++
	kept := []models.EmergencyContact{}
	for _, contact := range user.EmergencyContacts {
		if contact.ID != contactID {
			kept = append(kept, contact)
		}
	}
	user.EmergencyContacts = kept
	f.users[user.ID].EmergencyContacts = kept
	return nil
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}

func TestAddContact(t *testing.T) {
	registry := NewRegistry(newFakeStore(1))

	contact, err := registry.Add(context.Background(), 1, AddRequest{
		Name:         "  Pepper ",
		Phone:        " 98765 43210 ",
		Relationship: "spouse",
	})

	assert.Nil(t, err)
	assert.Equal(t, "Pepper", contact.Name)
	assert.Equal(t, "+919876543210", contact.Phone)
	assert.Equal(t, 1, contact.Priority, "priority should default to 1")
}

func TestAddContactClampsPriority(t *testing.T) {
	registry := NewRegistry(newFakeStore(1))

	testCases := []struct {
		priority int
		expected int
	}{
		{-3, 1},
		{0, 1},
		{2, 2},
		{7, 3},
	}

	for i, tcase := range testCases {
		contact, err := registry.Add(context.Background(), 1, AddRequest{
			Name:         "contact",
			Phone:        fmt.Sprintf("987654321%v", i),
			Relationship: "friend",
			Priority:     intPtr(tcase.priority),
		})
		assert.Nil(t, err)
		assert.Equal(t, tcase.expected, contact.Priority)
	}
}

func TestAddContactRequiresFields(t *testing.T) {
	store := newFakeStore(1)
	registry := NewRegistry(store)

	_, err := registry.Add(context.Background(), 1, AddRequest{Name: "Pepper", Phone: "  ", Relationship: "spouse"})
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Zero(t, store.writes)
}

func TestAddContactUnknownUser(t *testing.T) {
	_, err := NewRegistry(newFakeStore()).Add(context.Background(), 9, AddRequest{Name: "a", Phone: "9876543210", Relationship: "b"})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestAddSixthContactIsRejected(t *testing.T) {
	store := newFakeStore(1)
	registry := NewRegistry(store)

	for i := 0; i < models.MAX_EMERGENCY_CONTACTS; i++ {
		_, err := registry.Add(context.Background(), 1, AddRequest{
			Name:         fmt.Sprintf("contact-%v", i),
			Phone:        fmt.Sprintf("987654321%v", i),
			Relationship: "friend",
		})
		assert.Nil(t, err)
	}

	_, err := registry.Add(context.Background(), 1, AddRequest{Name: "six", Phone: "9876543219", Relationship: "friend"})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	contacts, err := registry.List(context.Background(), 1)
	assert.Nil(t, err)
	assert.Len(t, contacts, models.MAX_EMERGENCY_CONTACTS)
}

func TestAddDuplicateNormalizedPhoneIsRejected(t *testing.T) {
	registry := NewRegistry(newFakeStore(1))

	_, err := registry.Add(context.Background(), 1, AddRequest{Name: "Pepper", Phone: "9876543210", Relationship: "spouse"})
	assert.Nil(t, err)

	_, err = registry.Add(context.Background(), 1, AddRequest{Name: "Happy", Phone: "+919876543210", Relationship: "friend"})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	_, err = registry.Add(context.Background(), 1, AddRequest{Name: "Happy", Phone: "91 98765 43210", Relationship: "friend"})
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestUpdateContactIsPartial(t *testing.T) {
	registry := NewRegistry(newFakeStore(1))

	contact, err := registry.Add(context.Background(), 1, AddRequest{Name: "Pepper", Phone: "9876543210", Relationship: "spouse", Priority: intPtr(2)})
	assert.Nil(t, err)

	updated, err := registry.Update(context.Background(), 1, contact.ID, UpdateRequest{Phone: strPtr("14165550123"), Priority: intPtr(10)})
	assert.Nil(t, err)
	assert.Equal(t, "Pepper", updated.Name)
	assert.Equal(t, "spouse", updated.Relationship)
	assert.Equal(t, "+14165550123", updated.Phone)
	assert.Equal(t, 3, updated.Priority)

	contacts, err := registry.List(context.Background(), 1)
	assert.Nil(t, err)
	assert.Equal(t, "+14165550123", contacts[0].Phone)
}

func TestUpdateContactToExistingPhoneIsRejected(t *testing.T) {
	registry := NewRegistry(newFakeStore(1))

	_, err := registry.Add(context.Background(), 1, AddRequest{Name: "Pepper", Phone: "9876543210", Relationship: "spouse"})
	assert.Nil(t, err)
	happy, err := registry.Add(context.Background(), 1, AddRequest{Name: "Happy", Phone: "9876543211", Relationship: "friend"})
	assert.Nil(t, err)

	_, err = registry.Update(context.Background(), 1, happy.ID, UpdateRequest{Phone: strPtr("9876543210")})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	// Re-saving a contact's own number is fine
	_, err = registry.Update(context.Background(), 1, happy.ID, UpdateRequest{Phone: strPtr("9876543211")})
	assert.Nil(t, err)
}

func TestUpdateMissingContact(t *testing.T) {
	_, err := NewRegistry(newFakeStore(1)).Update(context.Background(), 1, 404, UpdateRequest{Name: strPtr("x")})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDeleteContact(t *testing.T) {
	registry := NewRegistry(newFakeStore(1))

	first, err := registry.Add(context.Background(), 1, AddRequest{Name: "Pepper", Phone: "9876543210", Relationship: "spouse"})
	assert.Nil(t, err)
	_, err = registry.Add(context.Background(), 1, AddRequest{Name: "Happy", Phone: "9876543211", Relationship: "friend"})
	assert.Nil(t, err)

	assert.Nil(t, registry.Delete(context.Background(), 1, first.ID))

	contacts, err := registry.List(context.Background(), 1)
	assert.Nil(t, err)
	assert.Len(t, contacts, 1)
	assert.Equal(t, "Happy", contacts[0].Name)

	err = registry.Delete(context.Background(), 1, first.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestListEmpty(t *testing.T) {
	contacts, err := NewRegistry(newFakeStore(1)).List(context.Background(), 1)
	assert.Nil(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}
