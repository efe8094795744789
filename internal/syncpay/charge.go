package syncpay

import (
	"context"
	"encoding/json"
	"net/http"

	"pixvip/api/internal/gateway"
	"pixvip/api/internal/logger"
)

const defaultStatus = "WAITING_FOR_APPROVAL"

type cashInClient struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type cashInSplit struct {
	Percentage json.Number `json:"percentage"`
	UserID     string      `json:"user_id"`
}

type cashInRequest struct {
	Amount      json.Number  `json:"amount"`
	Description string       `json:"description"`
	WebhookURL  string       `json:"webhook_url"`
	ExternalID  string       `json:"external_id,omitempty"`
	Client      cashInClient `json:"client"`
	Split       *cashInSplit `json:"split,omitempty"`
}

// CreateCharge creates a PIX cash-in. The response carries the copy-paste code
// under either pix_code or paymentCode and the transaction id under either
// identifier or idTransaction, depending on API version.
func (c *Client) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := cashInRequest{
		Amount:      json.Number(req.Amount.StringFixed(2)),
		Description: req.Description,
		WebhookURL:  req.CallbackURL,
		ExternalID:  req.Reference,
		Client: cashInClient{
			Name:  req.Customer.Name,
			CPF:   req.Customer.Document,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
	}

	if req.Split != nil {
		payload.Split = &cashInSplit{
			Percentage: json.Number(req.Split.Percentage.String()),
			UserID:     req.Split.UserID,
		}
	}

	logger.Debugf("[SYNC] enviando cash-in: reference=%s amount=%s", req.Reference, payload.Amount)

	status, body, err := c.doRequest(ctx, http.MethodPost, cashInPath, token, payload)
	if err != nil {
		return nil, &gateway.Error{Code: gateway.CodeGatewayError, Message: "Não foi possível criar o Pix na Sync", Err: err}
	}
	if status < 200 || status > 299 {
		logger.Errorf("[SYNC] erro HTTP ao criar cash-in: status=%d body=%s", status, string(body))
		return nil, &gateway.Error{
			Code:       gateway.CodeGatewayError,
			Message:    "Não foi possível criar o Pix na Sync",
			Details:    string(body),
			StatusCode: status,
		}
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &gateway.Error{Code: gateway.CodeInvalidResponse, Message: "Resposta inválida da Sync ao criar o Pix", Details: string(body), Err: err}
	}

	code := gateway.FirstString(data, "pix_code", "paymentCode")
	id := gateway.FirstString(data, "identifier", "idTransaction")
	if code == "" || id == "" {
		return nil, &gateway.Error{
			Code:    gateway.CodeInvalidResponse,
			Message: "Sync não retornou os dados do Pix (pix_code/paymentCode ou identifier/idTransaction)",
			Details: string(body),
		}
	}

	st := gateway.NormalizeStatus(gateway.FirstString(data, "status_transaction", "status"))
	if st == "" {
		st = defaultStatus
	}

	return &gateway.Charge{
		ExternalID:        id,
		Status:            st,
		PaymentCode:       code,
		PaymentCodeBase64: gateway.FirstString(data, "paymentCodeBase64", "pix_code_base64"),
		Raw:               body,
	}, nil
}
