package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json; charset=utf-8"

// ServerErrorMessage is the only message clients see for 5xx responses.
const ServerErrorMessage = "Server error"

// Body is the error envelope used by every endpoint: {"msg": "..."}.
// Detail is only populated in development and test environments.
type Body struct {
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

// Write logs err and renders the error envelope. 5xx responses always carry
// ServerErrorMessage regardless of msg.
func Write(w http.ResponseWriter, r *http.Request, status int, msg string, err error, env string) {
	body := Body{Msg: msg}
	if status >= 500 {
		body.Msg = ServerErrorMessage
		if err != nil && (env == "development" || env == "test") {
			body.Detail = err.Error()
		}
	}
	if body.Msg == "" {
		body.Msg = http.StatusText(status)
	}

	if r != nil && err != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(msg)
	}

	WriteBody(w, status, body)
}

func WriteBody(w http.ResponseWriter, status int, body Body) {
	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"msg":"Server error"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
