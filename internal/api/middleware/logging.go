package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader echoes the per-request ID back to the caller.
const RequestIDHeader = "X-Request-ID"

// WebhookInfo carries webhook details from the handler to the request log.
type WebhookInfo struct {
	MessageID string
	Dup       *bool
	Result    string
}

type webhookInfoKey struct{}

// WebhookInfoFrom returns the request's WebhookInfo, or nil outside the
// Logger middleware.
func WebhookInfoFrom(ctx context.Context) *WebhookInfo {
	info, _ := ctx.Value(webhookInfoKey{}).(*WebhookInfo)
	return info
}

// RequestID assigns a fresh UUID to every request. It is stored where
// chi's middleware.GetReqID finds it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger returns a request logging middleware using zerolog. Responses
// below 400 log at info, the rest at error.
func Logger(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &WebhookInfo{}

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				event := logger.Info()
				if status >= http.StatusBadRequest {
					event = logger.Error()
				}

				event = event.
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Float64("latency_ms", float64(time.Since(start).Microseconds())/1000)

				if info.MessageID != "" {
					event = event.Str("message_id", info.MessageID)
				}
				if info.Dup != nil {
					event = event.Bool("dup", *info.Dup)
				}
				if info.Result != "" {
					event = event.Str("result", info.Result)
				}

				event.Msg("request completed")
			}()

			ctx := context.WithValue(r.Context(), webhookInfoKey{}, info)
			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}

// Recoverer turns a handler panic into a JSON 500 and logs the panic
// value with the request ID.
func Recoverer(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error().
					Str("request_id", middleware.GetReqID(r.Context())).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("handler panic")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal server error"}`))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
