package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/Daskott/raksha/server/models"
	"github.com/stretchr/testify/assert"
)

type fileRemoverStub struct {
	stored  []string
	deleted []string
}

func (f *fileRemoverStub) List(ctx context.Context) ([]string, error) {
	return f.stored, nil
}

func (f *fileRemoverStub) Delete(ctx context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	return nil
}

func TestRunPurge(t *testing.T) {
	models.InitializeTestDb()
	ctx := context.Background()
	files := &fileRemoverStub{stored: []string{"/uploads/document-id.png", "/uploads/document-orphan.png"}}

	out := new(bytes.Buffer)
	err := runPurge(ctx, out, files, false)
	assert.Nil(t, err)
	assert.Contains(t, out.String(), "No user data found to clear.")

	user := &models.User{FirstName: "Jane", Email: "jane@raksha.test", PhoneNumber: "9876543210", Password: "password"}
	assert.Nil(t, models.CreateUser(ctx, user))
	assert.Nil(t, models.CreateDocument(ctx, &models.Document{
		UserID: user.ID, DocumentType: "aadhaar", DocumentNumber: "1", FileName: "id.png", FilePath: "/uploads/document-id.png"}))

	out.Reset()
	err = runPurge(ctx, out, files, false)
	assert.NotNil(t, err, "expected purge to require confirmation")
	assert.Contains(t, out.String(), "Users: 1")
	assert.Empty(t, files.deleted)

	count, _ := models.CountUsers(ctx)
	assert.Equal(t, int64(1), count)

	out.Reset()
	err = runPurge(ctx, out, files, true)
	assert.Nil(t, err)
	assert.Contains(t, out.String(), "1 users removed")
	assert.Contains(t, out.String(), "1 orphaned files removed")
	assert.Equal(t, []string{"/uploads/document-id.png", "/uploads/document-orphan.png"}, files.deleted)

	count, _ = models.CountUsers(ctx)
	assert.Zero(t, count)
}

func TestPurgeCmdRequiresServerConfig(t *testing.T) {
	savedConfigFile, savedDev := serverConfigFile, isDevEnv
	defer func() {
		serverConfigFile, isDevEnv = savedConfigFile, savedDev
	}()

	serverConfigFile, isDevEnv = "", false

	_, err := serverConfig()
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "--sconfig")
}
