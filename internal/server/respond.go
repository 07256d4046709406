package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/internal/storage"
	"github.com/benjaminschreck/go-docsection/pkg/docx"
	"github.com/benjaminschreck/go-docsection/pkg/section"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, errorResponse{Error: message})
}

// statusFor maps a failure to an HTTP status and a client message.
// Internal errors are reported generically; their detail goes to the log.
func statusFor(err error) (int, string) {
	var reqErr *requestError
	var anchorErr *section.AnchorError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.message
	case errors.As(err, &anchorErr):
		return http.StatusBadRequest, anchorErr.Error()
	case section.IsEmptyItemList(err):
		return http.StatusBadRequest, missingPayload
	case errors.Is(err, section.ErrUnknownPreset):
		return http.StatusBadRequest, "unknown preset"
	case section.IsInputError(err):
		return http.StatusBadRequest, "invalid request"
	case docx.IsDocumentError(err), errors.Is(err, docx.ErrNoBody):
		return http.StatusBadRequest, "invalid document"
	case errors.Is(err, ErrUploadNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, ErrChunkOrder):
		return http.StatusConflict, "chunk out of order"
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "upload too large"
	case errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest, "invalid file name"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// fail logs err on the request logger and writes the mapped response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	logger := zerolog.Ctx(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Msg("Request failed")
	respondError(w, status, message)
}
