package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/server/auth"
	"github.com/Daskott/raksha/server/auth/key"
	"github.com/Daskott/raksha/server/contacts"
	"github.com/Daskott/raksha/server/documents"
	"github.com/Daskott/raksha/server/models"
	"github.com/Daskott/raksha/server/sos"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// MAX_UPLOAD_MEMORY is how much of a multipart upload is kept in memory, the rest goes to temp files
const MAX_UPLOAD_MEMORY = 1 << 20

func createUser(rw http.ResponseWriter, r *http.Request) {
	data := createUserRequest{}
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid request body"}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	user := models.User{
		FirstName:   data.FirstName,
		LastName:    data.LastName,
		PhoneNumber: data.PhoneNumber,
		Email:       data.Email,
		Password:    data.Password,
	}

	_, err = models.FindUserBy(r.Context(), "email", user.Email)
	if err == nil {
		writeError(rw, apperr.New(apperr.Conflict, "a user with this email already exists"))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(rw, apperr.Wrap(err, apperr.Persistence, "failed to create user"))
		return
	}

	// The very first user is the admin who reviews documents
	usersExist, err := models.AtLeastOneUserExists(r.Context())
	if err != nil {
		writeError(rw, apperr.Wrap(err, apperr.Persistence, "failed to create user"))
		return
	}
	if !usersExist {
		adminRole, err := models.FindRole(r.Context(), models.ADMIN_USER_ROLE)
		if err != nil {
			writeError(rw, apperr.Wrap(err, apperr.Persistence, "failed to create user"))
			return
		}
		user.RoleID = adminRole.ID
	}

	err = models.CreateUser(r.Context(), &user)
	if err != nil {
		writeError(rw, apperr.Wrap(err, apperr.Persistence, "failed to create user"))
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: user}, http.StatusCreated)
}

func logIn(rw http.ResponseWriter, r *http.Request) {
	data := loginRequest{}
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid request body"}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	userID, passwordHash, err := models.FindUserPassword(r.Context(), data.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(rw, apperr.Wrap(err, apperr.Persistence, "failed to log in"))
		return
	}

	if !auth.CheckPasswordHash(data.Password, passwordHash) {
		writeResponse(rw, ResponsePayload{Errors: []string{"email/password is invalid"}}, http.StatusUnauthorized)
		return
	}

	user, err := models.FindUserBy(r.Context(), "id", userID)
	if err != nil {
		writeError(rw, apperr.Wrap(err, apperr.Persistence, "failed to log in"))
		return
	}

	isAdmin, err := user.IsAdmin(r.Context())
	if err != nil {
		writeError(rw, apperr.Wrap(err, apperr.Persistence, "failed to log in"))
		return
	}

	token, err := auth.EncodeJWT(auth.NewTokenClaims(user.ID, user.FirstName, user.LastName, isAdmin), authKeyPair)
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: map[string]string{"token": token}}, http.StatusOK)
}

func jwks(rw http.ResponseWriter, r *http.Request) {
	jwk, err := authKeyPair.JWK()
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: key.ExportJWKAsJWKS(jwk)}, http.StatusOK)
}

func health(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, ResponsePayload{
		Success: true,
		Data:    map[string]interface{}{"status": "ok", "smsSimulated": smsSimulated},
	}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// SOS
// --------------------------------------------------------------------------------//

func sendSOS(rw http.ResponseWriter, r *http.Request) {
	data := sos.Request{}
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid request body"}}, http.StatusBadRequest)
		return
	}

	summary, err := sosOrchestrator.Send(r.Context(), requestUserID(r), data)
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: summary}, http.StatusOK)
}

func sosHistory(rw http.ResponseWriter, r *http.Request) {
	alerts, err := sosOrchestrator.History(r.Context(), requestUserID(r))
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: alerts}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// Emergency contacts
// --------------------------------------------------------------------------------//

func listContacts(rw http.ResponseWriter, r *http.Request) {
	emergencyContacts, err := contactRegistry.List(r.Context(), requestUserID(r))
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: emergencyContacts}, http.StatusOK)
}

func addContact(rw http.ResponseWriter, r *http.Request) {
	data := contacts.AddRequest{}
	err := json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid request body"}}, http.StatusBadRequest)
		return
	}

	contact, err := contactRegistry.Add(r.Context(), requestUserID(r), data)
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: contact}, http.StatusCreated)
}

func updateContact(rw http.ResponseWriter, r *http.Request) {
	contactID, err := idFromPath(r, "cid")
	if err != nil {
		writeError(rw, err)
		return
	}

	data := contacts.UpdateRequest{}
	err = json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid request body"}}, http.StatusBadRequest)
		return
	}

	contact, err := contactRegistry.Update(r.Context(), requestUserID(r), contactID, data)
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: contact}, http.StatusOK)
}

func deleteContact(rw http.ResponseWriter, r *http.Request) {
	contactID, err := idFromPath(r, "cid")
	if err != nil {
		writeError(rw, err)
		return
	}

	err = contactRegistry.Delete(r.Context(), requestUserID(r), contactID)
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true}, http.StatusOK)
}

// ---------------------------------------------------------------------------------//
// Documents
// --------------------------------------------------------------------------------//

func uploadDocument(rw http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(rw, r.Body, documents.MAX_FILE_SIZE+MAX_UPLOAD_MEMORY)

	err := r.ParseMultipartForm(MAX_UPLOAD_MEMORY)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(rw, apperr.Errorf(apperr.Validation, "file exceeds the %vMB limit", documents.MAX_FILE_SIZE/(1024*1024)))
			return
		}
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid multipart form"}}, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	upload := documents.Upload{
		DocumentType:   r.FormValue("document_type"),
		DocumentNumber: r.FormValue("document_number"),
		Size:           -1,
	}

	file, header, err := r.FormFile("document")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid document file"}}, http.StatusBadRequest)
		return
	}

	if file != nil {
		defer file.Close()
		upload.File = file
		upload.FileName = header.Filename
		upload.ContentType = header.Header.Get("Content-Type")
		upload.Size = header.Size
	}

	document, err := documentService.Upload(r.Context(), requestUserID(r), upload)
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: documentResponse{
		ID:                 document.ID,
		DocumentType:       document.DocumentType,
		DocumentNumber:     document.DocumentNumber,
		FileName:           document.FileName,
		VerificationStatus: document.VerificationStatus,
		ExtractedText:      document.ExtractedText,
		CreatedAt:          document.CreatedAt,
	}}, http.StatusCreated)
}

func listDocuments(rw http.ResponseWriter, r *http.Request) {
	userDocuments, err := documentService.List(r.Context(), requestUserID(r))
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: userDocuments}, http.StatusOK)
}

func viewDocumentFile(rw http.ResponseWriter, r *http.Request) {
	documentID, err := idFromPath(r, "did")
	if err != nil {
		writeError(rw, err)
		return
	}

	document, file, err := documentService.Open(r.Context(), requestUserID(r), documentID)
	if err != nil {
		writeError(rw, err)
		return
	}
	defer file.Close()

	rw.Header().Set("Content-Type", documents.ContentType(document.FileName))
	rw.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", document.FileName))
	rw.WriteHeader(http.StatusOK)

	if _, err = io.Copy(rw, file); err != nil {
		logg.Errorf("failed to stream document %v: %v", document.ID, err)
	}
}

func reviewDocument(rw http.ResponseWriter, r *http.Request) {
	documentID, err := idFromPath(r, "did")
	if err != nil {
		writeError(rw, err)
		return
	}

	data := reviewRequest{}
	err = json.NewDecoder(r.Body).Decode(&data)
	if err != nil {
		writeResponse(rw, ResponsePayload{Errors: []string{"invalid request body"}}, http.StatusBadRequest)
		return
	}

	errs := validate.Struct(data)
	if errs != nil {
		writeResponse(rw, ResponsePayload{Errors: strings.Split(errs.Error(), "\n")}, http.StatusBadRequest)
		return
	}

	document, err := documentService.Review(r.Context(), documentID, data.Status)
	if err != nil {
		writeError(rw, err)
		return
	}

	writeResponse(rw, ResponsePayload{Success: true, Data: document}, http.StatusOK)
}

func idFromPath(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Errorf(apperr.Validation, "invalid %v", name)
	}

	return uint(id), nil
}
