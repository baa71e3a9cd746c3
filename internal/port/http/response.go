package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/rental-service/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/rental-service/internal/platform/logger"
)

const internalErrorMessage = "internal server error"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

// writeError maps a domain error to its status code. Internal failures are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorf("Internal error: %v", err)
		message = internalErrorMessage
	}
	writeJSON(w, log, status, errorResponse{Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInternal):
		return http.StatusInternalServerError
	case errors.Is(err, entity.ErrInvalidRequest), errors.Is(err, entity.ErrNotApproved):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, entity.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: request body must be valid JSON", entity.ErrInvalidRequest)
	}
	return nil
}
