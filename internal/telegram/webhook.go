package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Telegram echoes the secret registered with setWebhook in this header on
// every delivery.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler processes one decoded update.
type UpdateHandler func(ctx context.Context, u Update)

// NewWebhookHandler returns the HTTP handler Telegram delivers updates to.
// Requests without the registered secret token are rejected; malformed
// bodies are acknowledged with 200 so Telegram does not redeliver them
// forever.
func NewWebhookHandler(secretToken string, handle UpdateHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secretToken != "" {
			got := r.Header.Get(secretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secretToken)) != 1 {
				slog.Warn("Webhook request with bad secret token", "ip", r.RemoteAddr)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		var update Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			slog.Warn("Failed to decode webhook update", "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		handle(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	}
}
