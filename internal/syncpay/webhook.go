package syncpay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"pixvip/api/internal/gateway"
)

// VerifyWebhook checks the HMAC header when a secret is configured.
func (c *Client) VerifyWebhook(header http.Header, body []byte) error {
	if c.webhookSecret == "" {
		return nil
	}
	if !gateway.VerifyHMAC(body, header.Get(SignatureHeader), c.webhookSecret) {
		return gateway.ErrInvalidSignature
	}
	return nil
}

// ParseWebhook accepts both the flat payload ({idTransaction, status, amount})
// and the enveloped one ({event, data:{…}}). Unknown fields are ignored.
func (c *Client) ParseWebhook(body []byte) (*gateway.WebhookEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode sync webhook: %w", err)
	}
	if inner, ok := m["data"].(map[string]interface{}); ok {
		m = inner
	}

	ev := &gateway.WebhookEvent{
		ExternalID: gateway.FirstString(m, "idTransaction", "externalId", "identifier", "id"),
		Status:     gateway.NormalizeStatus(gateway.FirstString(m, "status", "status_transaction")),
		Raw:        body,
	}
	ev.Amount, ev.HasAmount = gateway.ParseAmount(m["amount"])
	return ev, nil
}
