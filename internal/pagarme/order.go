package pagarme

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"pixvip/api/internal/gateway"
	"pixvip/api/internal/logger"
)

type customer struct {
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	Document     string                `json:"document"`
	DocumentType string                `json:"document_type"`
	Type         string                `json:"type"`
	Phones       map[string]*PhoneData `json:"phones,omitempty"`
}

type orderItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Amount      int64  `json:"amount"` // centavos
}

type splitOptions struct {
	ChargeProcessingFee bool `json:"charge_processing_fee"`
	ChargeRemainderFee  bool `json:"charge_remainder_fee"`
	Liable              bool `json:"liable"`
}

type splitRule struct {
	Amount      int64        `json:"amount"` // centavos
	RecipientID string       `json:"recipient_id"`
	Type        string       `json:"type"`
	Options     splitOptions `json:"options"`
}

type pixPayment struct {
	PaymentMethod string                 `json:"payment_method"`
	Pix           map[string]interface{} `json:"pix"`
	Split         []splitRule            `json:"split,omitempty"`
}

type orderRequest struct {
	Code     string            `json:"code"`
	Customer customer          `json:"customer"`
	Items    []orderItem       `json:"items"`
	Payments []pixPayment      `json:"payments"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type orderResponse struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Status  string `json:"status"`
	Charges []struct {
		ID              string `json:"id"`
		Status          string `json:"status"`
		LastTransaction struct {
			QRCode    string `json:"qr_code"`
			QRCodeURL string `json:"qr_code_url"`
		} `json:"last_transaction"`
	} `json:"charges"`
}

// CreateCharge creates an order with a single PIX payment. Our reference is
// sent as the order code, which Pagar.me echoes in every webhook, so it
// becomes the external id.
func (c *Client) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	cust := customer{
		Name:         req.Customer.Name,
		Email:        req.Customer.Email,
		Document:     req.Customer.Document,
		DocumentType: AllowedDocumentType,
		Type:         AllowedCustomerType,
	}
	if p := SplitPhone(req.Customer.Phone); p != nil {
		cust.Phones = map[string]*PhoneData{"mobile_phone": p}
	}

	body := orderRequest{
		Code:     req.Reference,
		Customer: cust,
		Items: []orderItem{{
			Code:        ItemCode,
			Description: req.Description,
			Quantity:    1,
			Amount:      gateway.Cents(req.Amount),
		}},
		Payments: []pixPayment{{
			PaymentMethod: AllowedPaymentMethod,
			Pix:           map[string]interface{}{"expires_in": PixExpirationSeconds},
		}},
		Metadata: map[string]string{"callback_url": req.CallbackURL},
	}

	if req.Split != nil {
		rules, err := c.splitRules(req)
		if err != nil {
			return nil, err
		}
		body.Payments[0].Split = rules
	}

	logger.Debugf("[PAGARME] criando pedido PIX: code=%s amount=%d", req.Reference, body.Items[0].Amount)

	status, raw, err := c.doRequest(ctx, http.MethodPost, "/orders", body)
	if err != nil {
		return nil, &gateway.Error{Code: gateway.CodeGatewayError, Message: "Não foi possível criar o pedido PIX no Pagar.me", Err: err}
	}
	if status < 200 || status > 299 {
		logger.Errorf("[PAGARME] erro HTTP ao criar pedido: status=%d body=%s", status, string(raw))
		return nil, &gateway.Error{
			Code:       gateway.CodeGatewayError,
			Message:    "Não foi possível criar o pedido PIX no Pagar.me",
			Details:    string(raw),
			StatusCode: status,
		}
	}

	var resp orderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &gateway.Error{Code: gateway.CodeInvalidResponse, Message: "Resposta inválida do Pagar.me", Details: string(raw), Err: err}
	}
	if len(resp.Charges) == 0 || resp.Charges[0].LastTransaction.QRCode == "" {
		return nil, &gateway.Error{Code: gateway.CodeInvalidResponse, Message: "Pagar.me não retornou o QR code do PIX", Details: string(raw)}
	}

	externalID := resp.Code
	if externalID == "" {
		externalID = req.Reference
	}
	return &gateway.Charge{
		ExternalID:  externalID,
		Status:      gateway.NormalizeStatus(resp.Status),
		PaymentCode: resp.Charges[0].LastTransaction.QRCode,
		Raw:         raw,
	}, nil
}

// splitRules gives the partner a flat share and the platform the rest,
// including rounding. Fees and chargebacks stay with the platform.
func (c *Client) splitRules(req gateway.ChargeRequest) ([]splitRule, error) {
	if c.recipientID == "" {
		return nil, &gateway.Error{Code: gateway.CodeGatewayError, Message: "PAGARME_RECIPIENT_ID não configurado para pagamentos com split"}
	}
	total := gateway.Cents(req.Amount)
	partner := req.Split.PartnerCents(req.Amount)
	if partner <= 0 || partner > total {
		return nil, &gateway.Error{Code: gateway.CodeGatewayError, Message: fmt.Sprintf("split inválido: %d de %d centavos", partner, total)}
	}

	rules := []splitRule{{
		Amount:      partner,
		RecipientID: req.Split.UserID,
		Type:        "flat",
	}}
	if platform := total - partner; platform > 0 {
		rules = append(rules, splitRule{
			Amount:      platform,
			RecipientID: c.recipientID,
			Type:        "flat",
			Options:     splitOptions{ChargeProcessingFee: true, ChargeRemainderFee: true, Liable: true},
		})
	} else {
		rules[0].Options = splitOptions{ChargeProcessingFee: true, ChargeRemainderFee: true, Liable: true}
	}
	return rules, nil
}
