package middleware // import "feedviewer.app/v1/internal/http/middleware"

import (
	"bytes"
	"log/slog"
	"net/http"
	"runtime/debug"

	"feedviewer.app/v1/internal/logging"
)

// WithPanic recovers panics of widget handlers, logs them with the stack and
// responds with 500 without the panic reason.
func WithPanic(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			//nolint:errorlint // we are checking exactly ErrAbortHandler
			if err == http.ErrAbortHandler {
				// the response is aborted on purpose, nothing to log
				panic(err)
			}
			logPanic(r, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func logPanic(r *http.Request, err any) {
	log := logging.FromContext(r.Context()).With(
		slog.String("request_uri", r.URL.RequestURI()))
	log.Error("request aborted with panic", slog.Any("reason", err))

	for line := range bytes.Lines(debug.Stack()) {
		line = bytes.Replace(line, []byte("\t"), []byte("  "), 1)
		log.Error("panic: " + string(bytes.TrimRight(line, "\n")))
	}
}
