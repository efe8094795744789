package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"pixvip/api/internal/logger"
	"pixvip/api/internal/vip"
)

type validateTokenRequest struct {
	Token           string `json:"token"`
	DiscordUserID   string `json:"discord_user_id"`
	DiscordUsername string `json:"discord_username"`
}

type validateTokenResponse struct {
	Valid            bool   `json:"valid"`
	Reason           string `json:"reason,omitempty"`
	TokenID          string `json:"tokenId,omitempty"`
	ClientEmail      string `json:"clientEmail,omitempty"`
	PixTransactionID string `json:"pixTransactionId,omitempty"`
	Message          string `json:"message"`
}

// ValidateToken redeems a VIP token for the Discord bot.
func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, validateTokenResponse{
			Reason:  "METHOD_NOT_ALLOWED",
			Message: "Use POST para validar o token.",
		})
		return
	}

	// Unreadable bodies answer like any other unexpected failure.
	var req validateTokenRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logger.Warnf("[TOKEN] corpo inválido na validação de token: %v", err)
		respondJSON(w, http.StatusOK, validateTokenResponse{
			Reason:  vip.ReasonInternalError,
			Message: "Erro interno ao validar o token.",
		})
		return
	}

	res := h.svc.RedeemToken(r.Context(), vip.RedeemInput{
		Token:           req.Token,
		DiscordUserID:   req.DiscordUserID,
		DiscordUsername: req.DiscordUsername,
	})

	status := http.StatusOK
	if res.Reason == vip.ReasonMissingToken {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, validateTokenResponse{
		Valid:            res.Valid,
		Reason:           res.Reason,
		TokenID:          res.TokenID,
		ClientEmail:      res.ClientEmail,
		PixTransactionID: res.TransactionID,
		Message:          res.Message,
	})
}
