package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Togather-Foundation/localevents/internal/api/problem"
)

var errBodyTooLarge = errors.New("request body too large")

type messageResponse struct {
	Msg string `json:"msg"`
}

type rsvpResponse struct {
	Msg        string `json:"msg"`
	RSVPsCount int    `json:"rsvpsCount"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads a single JSON object into dst. An empty body decodes to
// the zero value.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return nil
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return nil
}

// writeDecodeError reports a body that could not be read as JSON.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	if errors.Is(err, errBodyTooLarge) {
		problem.Write(w, r, http.StatusRequestEntityTooLarge, "Request body too large", err, env)
		return
	}
	problem.Write(w, r, http.StatusBadRequest, "Invalid JSON body", err, env)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.PathValue(key))
}
