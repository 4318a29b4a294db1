package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/logging"
)

const authFailed = "authentication failed"

type errorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps an error kind to a status code and a message safe to show
// the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorBiometricRejected):
		return http.StatusBadRequest, "no usable face found in image"
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrorAmbiguousMatch),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, authFailed
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(ctx context.Context, log logging.Logger, w http.ResponseWriter, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", "error", err)
	} else {
		log.Debug(ctx, "request rejected", "status", code, "error", err)
	}
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeDetail(w, code, msg)
}

func writeDetail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Detail: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
