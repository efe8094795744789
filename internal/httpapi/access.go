package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pixvip/api/internal/logger"
	"pixvip/api/internal/vip"
)

type vipAccessRequest struct {
	ExternalID string `json:"externalId"`
}

type vipAccessResponse struct {
	Status      string  `json:"status"`
	IsPaid      bool    `json:"isPaid"`
	Token       *string `json:"token"`
	DiscordLink string  `json:"discordLink"`
}

// VipAccess is polled by the payment page until a token shows up.
func (h *Handler) VipAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED")
		return
	}

	var req vipAccessRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	st, err := h.svc.AccessStatus(r.Context(), req.ExternalID)
	switch {
	case errors.Is(err, vip.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST")
		return
	case errors.Is(err, vip.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND")
		return
	case err != nil:
		logger.Errorf("[ACCESS] erro ao buscar transação %s: %v", req.ExternalID, err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	respondJSON(w, http.StatusOK, vipAccessResponse{
		Status:      st.Status,
		IsPaid:      st.IsPaid,
		Token:       st.Token,
		DiscordLink: st.DiscordLink,
	})
}
