package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithRequest returns a logger with request context fields attached.
// Use this for all logging within a single API request.
func WithRequest(requestID, route, userID string) *slog.Logger {
	return slog.With(
		"request_id", requestID,
		"route", route,
		"user_id", userID,
	)
}

// WithAction returns a logger scoped to a single dispatched AI action.
func WithAction(logger *slog.Logger, actionType string, index int) *slog.Logger {
	return logger.With(
		"action_type", actionType,
		"action_index", index,
	)
}
