package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("disk full")

	testCases := []struct {
		err      error
		expected Kind
	}{
		{New(Validation, "name is required"), Validation},
		{Wrap(base, Persistence, "failed to save alert"), Persistence},
		{fmt.Errorf("outer: %w", New(Forbidden, "nope")), Forbidden},
		{errors.Wrap(New(NotFound, "user not found"), "sos"), NotFound},
		{base, Unknown},
	}

	for _, tcase := range testCases {
		assert.Equal(t, tcase.expected, KindOf(tcase.err), tcase.err.Error())
	}
}

func TestWrapKeepsCause(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(base, Transport, "sms failed")

	assert.True(t, errors.Is(err, base))
	assert.Equal(t, "sms failed: connection reset", err.Error())
	assert.Nil(t, Wrap(nil, Transport, "sms failed"))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, Conflict.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, NotFound.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, Forbidden.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Persistence.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Unknown.HTTPStatus())
}

func TestPublicMessage(t *testing.T) {
	persistenceErr := Wrap(errors.New("database is locked"), Persistence, "failed to save alert")

	assert.Equal(t, "failed to save alert", PublicMessage(persistenceErr, false))
	assert.Equal(t, "failed to save alert: database is locked", PublicMessage(persistenceErr, true))
	assert.Equal(t, "user not found", PublicMessage(New(NotFound, "user not found"), false))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("boom"), false))
	assert.Equal(t, "boom", PublicMessage(errors.New("boom"), true))
}
