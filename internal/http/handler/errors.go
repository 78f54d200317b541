package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"stash/internal/account"
	"stash/internal/auth"
	"stash/internal/resource"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ValidationError carries field-level messages and is rendered as
// {"field": ["message", ...]}.
type ValidationError map[string][]string

func (e ValidationError) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e[k], " "))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) ValidationError {
	return ValidationError{field: {msg}}
}

func nonFieldError(msg string) ValidationError {
	return fieldError("non_field_errors", msg)
}

var validationMessages = map[string]string{
	"required": "This field is required.",
	"notblank": "This field may not be blank.",
	"email":    "Enter a valid email address.",
	"max":      "Ensure this field has no more than %s characters.",
}

// fromValidator converts validator/v10 errors into a ValidationError keyed
// by json field names.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := ValidationError{}
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Tag()]
		if !ok {
			msg = "Invalid value."
		}
		if strings.Contains(msg, "%s") {
			msg = strings.Replace(msg, "%s", fe.Param(), 1)
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}

type errorWriter struct {
	Log logrus.FieldLogger
}

// write maps err onto a status code and JSON body. Unknown errors become 500
// and are logged; their text never reaches the client.
func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	var verr ValidationError
	var ferr *account.FieldError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr)
	case errors.As(err, &ferr):
		writeJSON(w, http.StatusBadRequest, ValidationError{ferr.Field: {ferr.Message}})
	case errors.Is(err, account.ErrEmailTaken):
		writeJSON(w, http.StatusBadRequest, fieldError("email", "user with this email already exists."))
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, nonFieldError("Unable to log in with provided credentials."))
	case errors.Is(err, auth.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Token")
		writeDetail(w, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, errForbidden):
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, account.ErrNotFound), errors.Is(err, resource.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, resource.ErrQuotaExceeded):
		writeJSON(w, http.StatusNotAcceptable, map[string]string{"status": "Resources quota exceeded"})
	default:
		e.Log.WithFields(logrus.Fields{
			"request_id": chimw.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).WithError(err).Error("request failed")
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
	}
}

var errForbidden = errors.New("forbidden")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
