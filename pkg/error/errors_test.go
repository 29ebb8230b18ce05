package error

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrors_ImplementGenericError(t *testing.T) {
	cases := []struct {
		err    GenericError
		code   string
		status int
	}{
		{NotFoundError("bot not found"), "NOT_FOUND_ERROR", http.StatusNotFound},
		{ValidationError("reason too long"), "VALIDATION_ERROR", http.StatusBadRequest},
		{InternalServerError("boom"), "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
		{ForbiddenError("nope"), "FORBIDDEN", http.StatusForbidden},
		{ServiceUnavailableError("offline"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.ErrCode())
		assert.Equal(t, tc.status, tc.err.StatusCode())
	}
}

func TestTypedErrors_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("restart: %w", NotFoundError("bot ravena not found"))

	var target NotFoundError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "bot ravena not found", target.Error())
}
