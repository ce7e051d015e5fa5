package documents

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/server/filestore"
	"github.com/Daskott/raksha/server/models"
	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	documents   []*models.Document
	createErr   error
	userStatus  map[uint]string
	refreshArgs [][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{userStatus: map[uint]string{}}
}

func (f *fakeStore) HasApprovedDocument(ctx context.Context, userID uint, documentType string) (bool, error) {
	for _, document := range f.documents {
		if document.UserID == userID && document.DocumentType == documentType && document.VerificationStatus == models.APPROVED_DOCUMENT {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateDocument(ctx context.Context, document *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	document.ID = uint(len(f.documents) + 1)
	document.VerificationStatus = models.PENDING_DOCUMENT
	document.ExtractedText = models.DEFAULT_EXTRACTED_TEXT
	f.documents = append(f.documents, document)
	return nil
}

func (f *fakeStore) DocumentsForUser(ctx context.Context, userID uint) ([]models.Document, error) {
	documents := []models.Document{}
	for i := len(f.documents) - 1; i >= 0; i-- {
		if f.documents[i].UserID == userID {
			documents = append(documents, *f.documents[i])
		}
	}
	return documents, nil
}

func (f *fakeStore) FindUserDocument(ctx context.Context, userID, documentID uint) (*models.Document, error) {
	document, err := f.FindDocument(ctx, documentID)
	if err != nil || document.UserID != userID {
		return nil, apperr.New(apperr.NotFound, "document not found")
	}
	return document, nil
}

func (f *fakeStore) FindDocument(ctx context.Context, documentID uint) (*models.Document, error) {
	for _, document := range f.documents {
		if document.ID == documentID {
			return document, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "document not found")
}

func (f *fakeStore) SetDocumentStatus(ctx context.Context, document *models.Document, status string) error {
	document.VerificationStatus = status
	return nil
}

func (f *fakeStore) RefreshVerificationStatus(ctx context.Context, userID uint, requiredTypes []string) (string, error) {
	f.refreshArgs = append(f.refreshArgs, requiredTypes)

	approved := 0
	for _, requiredType := range requiredTypes {
		if ok, _ := f.HasApprovedDocument(ctx, userID, requiredType); ok {
			approved++
		}
	}

	status := models.UNVERIFIED_USER
	if approved == len(requiredTypes) {
		status = models.VERIFIED_USER
	}
	f.userStatus[userID] = status
	return status, nil
}

func newTestService(t *testing.T, store *fakeStore) (*Service, string) {
	t.Helper()

	dir := t.TempDir()
	files, err := filestore.NewLocal(dir)
	if err != nil {
		t.Fatalf("could not create file store: %v", err)
	}

	return NewService(store, files, []string{"aadhaar"}), dir
}

func filesIn(t *testing.T, dir string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("could not read dir: %v", err)
	}
	return len(entries)
}

func pngUpload(content string) Upload {
	return Upload{
		DocumentType:   "aadhaar",
		DocumentNumber: "1234 5678 9012",
		FileName:       "front.PNG",
		ContentType:    "image/png",
		Size:           int64(len(content)),
		File:           strings.NewReader(content),
	}
}

func TestUpload(t *testing.T) {
	store := newFakeStore()
	service, dir := newTestService(t, store)

	document, err := service.Upload(context.Background(), 1, pngUpload("png-bytes"))

	assert.Nil(t, err)
	assert.Equal(t, "aadhaar", document.DocumentType)
	assert.Equal(t, "front.PNG", document.FileName)
	assert.Equal(t, models.PENDING_DOCUMENT, document.VerificationStatus)
	assert.True(t, strings.HasSuffix(document.FilePath, ".png"))
	assert.Equal(t, 1, filesIn(t, dir))

	content, err := ioutil.ReadFile(document.FilePath)
	assert.Nil(t, err)
	assert.Equal(t, "png-bytes", string(content))
}

func TestUploadRejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		desc   string
		modify func(*Upload)
	}{
		{"missing file", func(u *Upload) { u.File = nil }},
		{"disallowed extension", func(u *Upload) { u.FileName = "front.gif" }},
		{"disallowed content type", func(u *Upload) { u.ContentType = "image/gif" }},
		{"allowed content type with disallowed extension", func(u *Upload) { u.FileName = "scan.exe"; u.ContentType = "application/pdf" }},
		{"reported size too large", func(u *Upload) { u.Size = MAX_FILE_SIZE + 1 }},
		{"missing document type", func(u *Upload) { u.DocumentType = " " }},
		{"missing document number", func(u *Upload) { u.DocumentNumber = "" }},
	}

	for _, tcase := range testCases {
		t.Run(tcase.desc, func(t *testing.T) {
			store := newFakeStore()
			service, dir := newTestService(t, store)

			upload := pngUpload("png-bytes")
			tcase.modify(&upload)

			_, err := service.Upload(context.Background(), 1, upload)
			assert.True(t, apperr.Is(err, apperr.Validation), err)
			assert.Empty(t, store.documents, "no record should be created")
			assert.Zero(t, filesIn(t, dir), "no file should be left behind")
		})
	}
}

func TestUploadOversizedStreamLeavesNoFile(t *testing.T) {
	store := newFakeStore()
	service, dir := newTestService(t, store)

	upload := pngUpload("")
	upload.Size = -1
	upload.File = bytes.NewReader(make([]byte, MAX_FILE_SIZE+10))

	_, err := service.Upload(context.Background(), 1, upload)

	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Empty(t, store.documents)
	assert.Zero(t, filesIn(t, dir))
}

func TestUploadExactlyMaxSize(t *testing.T) {
	store := newFakeStore()
	service, _ := newTestService(t, store)

	upload := pngUpload("")
	upload.Size = MAX_FILE_SIZE
	upload.File = bytes.NewReader(make([]byte, MAX_FILE_SIZE))

	_, err := service.Upload(context.Background(), 1, upload)
	assert.Nil(t, err)
}

func TestUploadStoreFailureRemovesFile(t *testing.T) {
	store := newFakeStore()
	store.createErr = apperr.Wrap(errors.New("database is locked"), apperr.Persistence, "failed to save document")
	service, dir := newTestService(t, store)

	_, err := service.Upload(context.Background(), 1, pngUpload("png-bytes"))

	assert.True(t, apperr.Is(err, apperr.Persistence))
	assert.Zero(t, filesIn(t, dir))
}

func TestUploadBlockedByApprovedDocument(t *testing.T) {
	store := newFakeStore()
	service, dir := newTestService(t, store)

	document, err := service.Upload(context.Background(), 1, pngUpload("first"))
	assert.Nil(t, err)

	// A pending document doesn't block a new upload
	_, err = service.Upload(context.Background(), 1, pngUpload("second"))
	assert.Nil(t, err)

	_, err = service.Review(context.Background(), document.ID, models.APPROVED_DOCUMENT)
	assert.Nil(t, err)

	_, err = service.Upload(context.Background(), 1, pngUpload("third"))
	assert.True(t, apperr.Is(err, apperr.Conflict))
	assert.Equal(t, 2, filesIn(t, dir))
}

func TestListNewestFirst(t *testing.T) {
	store := newFakeStore()
	service, _ := newTestService(t, store)

	first, err := service.Upload(context.Background(), 1, pngUpload("first"))
	assert.Nil(t, err)
	second, err := service.Upload(context.Background(), 1, pngUpload("second"))
	assert.Nil(t, err)
	_, err = service.Upload(context.Background(), 2, pngUpload("other user"))
	assert.Nil(t, err)

	documents, err := service.List(context.Background(), 1)
	assert.Nil(t, err)
	assert.Len(t, documents, 2)
	assert.Equal(t, second.ID, documents[0].ID)
	assert.Equal(t, first.ID, documents[1].ID)
}

func TestOpen(t *testing.T) {
	store := newFakeStore()
	service, _ := newTestService(t, store)

	document, err := service.Upload(context.Background(), 1, pngUpload("png-bytes"))
	assert.Nil(t, err)

	_, rc, err := service.Open(context.Background(), 1, document.ID)
	assert.Nil(t, err)
	content, _ := ioutil.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png-bytes", string(content))

	_, _, err = service.Open(context.Background(), 2, document.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound), "other users can't view the document")

	_, _, err = service.Open(context.Background(), 1, 999)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	assert.Nil(t, os.Remove(document.FilePath))
	_, _, err = service.Open(context.Background(), 1, document.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound), "missing file should be not found")
}

func TestReview(t *testing.T) {
	store := newFakeStore()
	service, _ := newTestService(t, store)

	document, err := service.Upload(context.Background(), 1, pngUpload("png-bytes"))
	assert.Nil(t, err)

	_, err = service.Review(context.Background(), document.ID, "maybe")
	assert.True(t, apperr.Is(err, apperr.Validation))

	_, err = service.Review(context.Background(), 999, models.APPROVED_DOCUMENT)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	reviewed, err := service.Review(context.Background(), document.ID, models.APPROVED_DOCUMENT)
	assert.Nil(t, err)
	assert.Equal(t, models.APPROVED_DOCUMENT, reviewed.VerificationStatus)
	assert.Equal(t, models.VERIFIED_USER, store.userStatus[1])
	assert.Equal(t, []string{"aadhaar"}, store.refreshArgs[0])

	_, err = service.Review(context.Background(), document.ID, models.REJECTED_DOCUMENT)
	assert.Nil(t, err)
	assert.Equal(t, models.UNVERIFIED_USER, store.userStatus[1])
}

func TestIsAllowedFile(t *testing.T) {
	assert.True(t, IsAllowedFile("id.jpeg", "image/jpeg"))
	assert.True(t, IsAllowedFile("id.JPG", "image/jpeg"))
	assert.True(t, IsAllowedFile("id.pdf", "application/pdf; charset=binary"))
	assert.False(t, IsAllowedFile("id.pdf", ""))
	assert.False(t, IsAllowedFile("id", "image/png"))
	assert.False(t, IsAllowedFile("id.svg", "image/svg+xml"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("scan.PDF"))
	assert.Equal(t, "application/octet-stream", ContentType("scan"))
}
