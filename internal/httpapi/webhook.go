package httpapi

import (
	"io"
	"net/http"

	"pixvip/api/internal/logger"
)

// Webhook always acknowledges; the outcome only shows up in logs and metrics.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Método não suportado"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.Errorf("[WEBHOOK] erro ao ler corpo: %v", err)
		respondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	outcome := h.svc.HandleWebhook(r.Context(), r.Header, body)
	logger.Debugf("[WEBHOOK] resultado: %s", outcome)
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
