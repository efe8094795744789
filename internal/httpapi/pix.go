package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pixvip/api/internal/gateway"
	"pixvip/api/internal/logger"
	"pixvip/api/internal/vip"
)

type createPixRequest struct {
	Amount      interface{} `json:"amount"`
	Description string      `json:"description"`
	Client      struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		CPF      string `json:"cpf"`
		Document string `json:"document"`
		Phone    string `json:"phone"`
	} `json:"client"`
	Split *struct {
		Percentage interface{} `json:"percentage"`
		UserID     string      `json:"user_id"`
	} `json:"split"`
}

type pixPayload struct {
	Code        string `json:"code"`
	ImageBase64 string `json:"imageBase64"`
}

type createPixResponse struct {
	Identifier    string      `json:"identifier"`
	ExternalID    string      `json:"externalId"`
	PixCode       string      `json:"pix_code"`
	PixCodeBase64 string      `json:"pix_code_base64"`
	Pix           pixPayload  `json:"pix"`
	Status        string      `json:"status"`
	Amount        json.Number `json:"amount"`
	Reference     string      `json:"reference"`
}

// CreatePix creates a PIX charge. Business failures are answered with 200 and
// an {error, message} body; only validation and method errors use other
// status codes.
func (h *Handler) CreatePix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Método não suportado"})
		return
	}

	var req createPixRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "VALIDATION_ERROR",
			"message": "corpo inválido",
		})
		return
	}

	document := req.Client.CPF
	if document == "" {
		document = req.Client.Document
	}

	in := vip.ChargeInput{
		Amount:      req.Amount,
		Description: req.Description,
		Name:        req.Client.Name,
		Email:       req.Client.Email,
		Document:    document,
		Phone:       req.Client.Phone,
	}
	if req.Split != nil {
		in.Split = &vip.SplitInput{Percentage: req.Split.Percentage, UserID: req.Split.UserID}
	}

	res, err := h.svc.CreateCharge(r.Context(), in)
	if err != nil {
		var verr *vip.ValidationError
		var gwErr *gateway.Error
		switch {
		case errors.As(err, &verr):
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "VALIDATION_ERROR",
				"message": verr.Message,
			})
		case errors.As(err, &gwErr):
			body := map[string]interface{}{
				"error":   gwErr.Code,
				"message": gwErr.Message,
			}
			if gwErr.Details != "" {
				body["details"] = gwErr.Details
			}
			if gwErr.StatusCode != 0 {
				body["statusCode"] = gwErr.StatusCode
			}
			respondJSON(w, http.StatusOK, body)
		default:
			logger.Errorf("[PIX] erro inesperado ao criar cobrança: %v", err)
			respondJSON(w, http.StatusOK, map[string]string{
				"error":   "INTERNAL_ERROR",
				"message": "Erro interno",
			})
		}
		return
	}

	respondJSON(w, http.StatusOK, createPixResponse{
		Identifier:    res.Identifier,
		ExternalID:    res.Identifier,
		PixCode:       res.PixCode,
		PixCodeBase64: res.PixCodeBase64,
		Pix:           pixPayload{Code: res.PixCode, ImageBase64: res.PixCodeBase64},
		Status:        res.Status,
		Amount:        json.Number(res.Amount.StringFixed(2)),
		Reference:     res.Reference,
	})
}
