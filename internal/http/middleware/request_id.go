package middleware // import "feedviewer.app/v1/internal/http/middleware"

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"feedviewer.app/v1/internal/logging"
)

type ctxRequestId struct{}

var requestIdKey ctxRequestId = struct{}{}

var nextRequestId atomic.Uint64

func genRequestId() uint64 { return nextRequestId.Add(1) }

// RequestId numbers every request and adds the number to the context logger
// and the X-Request-Id response header.
func RequestId(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		id := genRequestId()
		s := strconv.FormatUint(id, 10)
		w.Header().Set("X-Request-Id", s)

		ctx := context.WithValue(r.Context(), requestIdKey, s)
		ctx = logging.WithLogger(ctx,
			logging.FromContext(ctx).With(slog.Uint64("rid", id)))
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}

func RequestIdFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIdKey).(string); ok {
		return id
	}
	return ""
}
