package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/tutormatematica/tutorchat/internal/apperror"
)

// Recoverer is a middleware that recovers from panics.
// It logs the panic and returns the generic 500 error envelope.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				if os.Getenv("APP_ENV") == "development" {
					debug.PrintStack()
				}

				apperror.Write(w, apperror.NewInternal(fmt.Errorf("panic: %v", rvr)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
