package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/httpio"
	"github.com/user/landing-go/logging"
)

// RequestLogger logs one line per request and makes a request-scoped logger,
// tagged with the chi request id, available through logging.FromContext.
// It must run after middleware.RequestID.
func RequestLogger(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With("request_id", middleware.GetReqID(r.Context()))
			ctx := logging.WithContext(r.Context(), reqLogger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				reqLogger.Info(ctx, "request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"remote_addr", r.RemoteAddr,
				)
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}

// Recoverer turns a panicking handler into a 500 with the usual error body.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			logging.FromContext(r.Context()).Error(r.Context(), "panic recovered", "panic", rvr, "stack", string(debug.Stack()))
			httpio.WriteError(w, r, apperror.NewInternalError("internal server error", fmt.Errorf("panic: %v", rvr)))
		}()
		next.ServeHTTP(w, r)
	})
}
