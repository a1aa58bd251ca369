package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/guardian/internal/common"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInviteCode):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidPin):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrNotConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, common.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it as a JSON body. Internal failures are
// not echoed to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		msg = common.ErrorInternal.Error()
	case http.StatusServiceUnavailable:
		h.logger.Error(r.Context(), "storage unavailable", "path", r.URL.Path, "error", err.Error())
		msg = common.ErrStorageUnavailable.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", common.ErrValidation)
		}
		return fmt.Errorf("%w: malformed request body: %v", common.ErrValidation, err)
	}
	return nil
}
