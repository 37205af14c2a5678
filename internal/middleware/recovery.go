package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"linkvault/internal/httputil"
)

// Recovery keeps a panicking handler from taking the server down. The
// browser gets a 500 problem response unless the handler had already
// started its reply, in which case the partial response stands.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				logger.Error("handler panicked",
					"panic", fmt.Sprint(v),
					slog.Group("request", "method", r.Method, "path", r.URL.Path),
					"response_started", rec.status != 0,
					"trace", string(debug.Stack()),
				)
				if rec.status == 0 {
					httputil.RespondError(rec, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
