package auth

import (
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorResponse is the JSON body every failed request gets.
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// MessageResponse is the JSON body for operations that only confirm an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// JwtResponse is the JSON body for signin and refresh.
type JwtResponse struct {
	Token    string   `json:"token"`
	Type     string   `json:"type"`
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func newJwtResponse(token string, identity Identity) JwtResponse {
	return JwtResponse{
		Token:    token,
		Type:     "Bearer",
		ID:       identity.ID(),
		Username: identity.Username(),
		Email:    identity.Email(),
		Roles:    identity.Roles(),
	}
}

// HTTPErrorHandler maps errors to the JSON error body. Validation errors
// carry a per-field map, everything else resolves to a status code from the
// error category.
func HTTPErrorHandler(logger Logger) func(router.Context, error) error {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c router.Context, err error) error {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return writeError(c, http.StatusBadRequest, "validation failed", FormatValidationErrorToMap(verrs))
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}

		status := statusFromError(richErr)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed category=%s text_code=%s: %s %s",
				richErr.Category, richErr.TextCode, richErr.Message,
				print.MaybePrettyJSON(richErr.Metadata),
			)
			return writeError(c, status, "An unexpected server error occurred", nil)
		}

		logger.Debug("request rejected category=%s text_code=%s: %s",
			richErr.Category, richErr.TextCode, richErr.Message)
		return writeError(c, status, richErr.Message, nil)
	}
}

func writeError(c router.Context, status int, message string, fields map[string]string) error {
	return c.JSON(status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Errors:    fields,
	})
}

func statusFromError(err *errors.Error) int {
	if err.Code >= http.StatusBadRequest {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for the response body.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		out["payload"] = err.Error()
		return out
	}

	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}

	return out
}

// BearerFromHeader pulls the raw token out of an Authorization header using
// the configured scheme. Empty string when the header is missing or the
// scheme does not match.
func BearerFromHeader(c router.Context, scheme string) string {
	if scheme == "" {
		scheme = "Bearer"
	}

	header := c.GetString("Authorization", "")
	if header == "" {
		return ""
	}

	prefix := scheme + " "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
