package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"musiclib/core/apperr"
	"musiclib/core/auth"
	"musiclib/logger"

	"github.com/google/uuid"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	requestIDKey
)

// corsMiddleware 添加 CORS 头
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger 记录每个请求，并分配请求ID
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		// websocket 升级需要原始 ResponseWriter
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, reqID)))
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, reqID)))

		logger.Info("[HTTP] request",
			logger.String("requestId", reqID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("duration", time.Since(start)))
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>". ok is
// false when no header was sent.
func bearerToken(r *http.Request) (token string, ok bool, err error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, apperr.Unauthorized("Invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

func (h *APIHandler) authenticate(r *http.Request, required bool) (*http.Request, error) {
	token, present, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	if !present {
		if required {
			return nil, apperr.Unauthorized("Authorization header is required")
		}
		return r, nil
	}
	claims, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return r.WithContext(context.WithValue(r.Context(), claimsKey, claims)), nil
}

// AuthMiddleware rejects requests without a valid bearer token.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authed, err := h.authenticate(r, true)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, authed)
	}
}

// OptionalAuthMiddleware lets anonymous requests through but still rejects
// a bad token.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authed, err := h.authenticate(r, false)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, authed)
	}
}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID()
	}
	return ""
}
