package handler

import (
	"crypto/md5"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pokertable/internal/middleware"
	"pokertable/pkg/errors"
	"pokertable/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps err onto the standard error body. Internal failures are
// logged with their cause; the cause never reaches the client.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr := errors.As(err)
	requestID := middleware.GetRequestID(r.Context())

	entry := log.WithFields(map[string]interface{}{
		"request_id": requestID,
		"method":     r.Method,
		"path":       r.URL.Path,
		"error_type": string(appErr.Type),
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.Debug(appErr.Message)
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.RequestID = requestID
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

// decodeJSON reads a JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewValidationError("Request body is required", nil)
		}
		return errors.NewValidationError("Invalid request body", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return nil
}

// idParam parses a positive integer URL parameter
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("Invalid %s", name), map[string]interface{}{
			name: raw,
		})
	}
	return id, nil
}

func generateETag(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf(`"%x"`, hash)
}

// nonNil keeps empty lists encoded as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
