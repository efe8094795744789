package pagarme

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"pixvip/api/internal/gateway"
)

// WebhookEvent is the Pagar.me envelope.
type WebhookEvent struct {
	ID   string                 `json:"id"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// VerifyWebhook checks X-Hub-Signature when a secret is configured.
func (c *Client) VerifyWebhook(header http.Header, body []byte) error {
	if c.webhookSecret == "" {
		return nil
	}
	if !gateway.VerifyHMAC(body, header.Get(SignatureHeader), c.webhookSecret) {
		return gateway.ErrInvalidSignature
	}
	return nil
}

// ParseWebhook maps order.* and charge.* events. Order events carry our code
// directly; charge events carry it under data.order. Amounts are centavos.
func (c *Client) ParseWebhook(body []byte) (*gateway.WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode pagarme webhook: %w", err)
	}
	data := evt.Data
	if data == nil {
		return &gateway.WebhookEvent{Raw: body}, nil
	}

	code, _ := data["code"].(string)
	if strings.HasPrefix(evt.Type, "charge.") {
		if method, ok := data["payment_method"].(string); ok {
			if err := ValidatePaymentMethod(method); err != nil {
				return nil, fmt.Errorf("cobrança %s ignorada: %w", evt.ID, err)
			}
		}
		if order, ok := data["order"].(map[string]interface{}); ok {
			code, _ = order["code"].(string)
		}
	}

	status, _ := data["status"].(string)
	if status == "" {
		// "order.paid" → "paid"
		if _, suffix, ok := strings.Cut(evt.Type, "."); ok {
			status = suffix
		}
	}

	ev := &gateway.WebhookEvent{
		ExternalID: strings.TrimSpace(code),
		Status:     gateway.NormalizeStatus(status),
		Raw:        body,
	}
	if cents, ok := data["amount"].(float64); ok {
		ev.Amount = decimal.New(int64(cents), -2)
		ev.HasAmount = true
	}
	return ev, nil
}
