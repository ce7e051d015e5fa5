package server

import (
	"time"

	"github.com/Daskott/raksha/server/auth"
)

type ResponsePayload struct {
	Errors  []string    `json:"errors"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type DecodedJWT struct {
	Claims   *auth.RakshaTokenClaims
	UserID   uint
	ErrorMsg string
}

type RequestContextKey string

const (
	DECODED_JWT_KEY     RequestContextKey = "decodedJWT"
	REQUEST_USER_ID_KEY RequestContextKey = "requestUserID"
)

// createUserRequest holds the only fields a client may set when registering
type createUserRequest struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type reviewRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// documentResponse is what's echoed back after an upload
type documentResponse struct {
	ID                 uint      `json:"id"`
	DocumentType       string    `json:"document_type"`
	DocumentNumber     string    `json:"document_number"`
	FileName           string    `json:"file_name"`
	VerificationStatus string    `json:"verification_status"`
	ExtractedText      string    `json:"extracted_text"`
	CreatedAt          time.Time `json:"created_at"`
}
