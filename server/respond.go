package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"musiclib/core/apperr"
	"musiclib/logger"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("[HTTP] encode response failed", logger.ErrorField(err))
	}
}

func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrInvalid:
		return http.StatusBadRequest
	case apperr.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps service errors to status codes. Unclassified errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("[HTTP] request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		msg = "Internal server error"
	}
	writeJSON(w, status, ErrorResponse{StatusCode: status, Error: http.StatusText(status), Message: msg})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 5<<20))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Invalid("invalid request body: %v", err)
	}
	return nil
}

// pathVar returns a percent-decoded route variable. The router matches on
// the encoded path so names may contain "/".
func pathVar(r *http.Request, name string) (string, error) {
	raw := mux.Vars(r)[name]
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", apperr.Invalid("malformed path segment %q", raw)
	}
	return v, nil
}

// queryPositiveInt parses an optional integer query parameter that must be
// at least 1. Absent yields 0.
func queryPositiveInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Invalid("%s must be a positive integer", key)
	}
	return n, nil
}

func queryRating(r *http.Request) (*int, error) {
	raw := r.URL.Query().Get("rating")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || (n != 0 && n != 1) {
		return nil, apperr.Invalid("rating must be 0 or 1")
	}
	return &n, nil
}
