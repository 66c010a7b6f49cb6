package handler

import (
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	apperr "github.com/linkshala/linkshala-api/pkg/errors"
	"github.com/rs/zerolog/hlog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps request bodies; bulk imports are the largest.
const maxBodyBytes = 4 << 20

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// writeError maps typed errors to their status. Anything else is logged
// and reported as a 500 without leaking the cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !apperr.As(err, &appErr) {
		appErr = apperr.Internal(err, "internal server error")
	}
	if appErr.Code == apperr.CodeInternal {
		hlog.FromRequest(r).Error().Err(appErr.Unwrap()).Msg(appErr.Message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(envelope{Error: appErr.Message, Details: appErr.Details})
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Validation("could not read request body")
	}
	if len(body) == 0 {
		return apperr.Validation("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}
