package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/battlearena/internal/api/apierr"
	"github.com/mcoot/battlearena/internal/middleware"
)

// Chain returns the API middleware stack: panic recovery outermost, then
// request logging, both tagged with the api component
func Chain(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "api"))
	recovery := middleware.Recovery(logger, writeInternalError)
	logging := middleware.Logging(logger)

	return func(next http.Handler) http.Handler {
		return recovery(logging(next))
	}
}

func writeInternalError(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
