package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stash/internal/account"
	"stash/internal/auth"
	"stash/internal/resource"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWriter(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", fieldError("content", "This field is required."), http.StatusBadRequest, `{"content":["This field is required."]}`},
		{"field error", &account.FieldError{Field: "quota", Message: "bad"}, http.StatusBadRequest, `{"quota":["bad"]}`},
		{"email taken", fmt.Errorf("wrap: %w", account.ErrEmailTaken), http.StatusBadRequest, `{"email":["user with this email already exists."]}`},
		{"credentials", auth.ErrInvalidCredentials, http.StatusBadRequest, `{"non_field_errors":["Unable to log in with provided credentials."]}`},
		{"unauthenticated", auth.ErrUnauthenticated, http.StatusUnauthorized, `{"detail":"Invalid token."}`},
		{"forbidden", errForbidden, http.StatusForbidden, `{"detail":"You do not have permission to perform this action."}`},
		{"user not found", account.ErrNotFound, http.StatusNotFound, `{"detail":"Not found."}`},
		{"resource not found", resource.ErrNotFound, http.StatusNotFound, `{"detail":"Not found."}`},
		{"quota", resource.ErrQuotaExceeded, http.StatusNotAcceptable, `{"status":"Resources quota exceeded"}`},
		{"internal", errors.New("pq: relation does not exist"), http.StatusInternalServerError, `{"detail":"Internal server error."}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			rec := httptest.NewRecorder()

			errorWriter{Log: logger}.write(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())

			if tt.status == http.StatusInternalServerError {
				require.Len(t, hook.Entries, 1)
				assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
				assert.NotContains(t, rec.Body.String(), "pq:")
			} else {
				assert.Empty(t, hook.Entries)
			}
		})
	}
}

func TestFromValidator(t *testing.T) {
	v := newValidator()

	err := fromValidator(v.Struct(tokenReq{}))
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"This field is required."}, verr["username"])
	assert.Equal(t, []string{"This field is required."}, verr["password"])

	err = fromValidator(v.Struct(createResourceReq{Content: " \t "}))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"This field may not be blank."}, verr["content"])
	assert.NoError(t, v.Struct(createResourceReq{Content: "x"}))

	other := errors.New("boom")
	assert.Equal(t, other, fromValidator(other))
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{"b": {"two"}, "a": {"one"}}
	assert.Equal(t, "validation error: a: one; b: two", err.Error())
}
