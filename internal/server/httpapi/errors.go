package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/logging"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeInternal        = "INTERNAL"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify maps a service error to status, code and a client-safe message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeUnauthenticated, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, CodeUnauthenticated, common.ErrInvalidToken.Error()
	case errors.Is(err, common.ErrSessionNotActive):
		return http.StatusUnauthorized, CodeUnauthenticated, common.ErrSessionNotActive.Error()
	case errors.Is(err, common.ErrUserNotFound):
		return http.StatusUnauthorized, CodeUnauthenticated, common.ErrUserNotFound.Error()
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated, common.ErrUnauthenticated.Error()
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, CodeForbidden, common.ErrForbidden.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, CodeNotFound, common.ErrorNotFound.Error()
	case errors.Is(err, common.ErrDuplicateLogin):
		return http.StatusBadRequest, CodeBadUserInput, common.ErrDuplicateLogin.Error()
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, CodeBadUserInput, err.Error()
	default:
		return http.StatusInternalServerError, CodeInternal, common.ErrorInternal.Error()
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error) {
	status, code, msg := classify(err)
	if status == http.StatusInternalServerError {
		log.Error(ctx, "request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: CodeBadUserInput})
}
