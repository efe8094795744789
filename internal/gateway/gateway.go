// Package gateway defines the capabilities the VIP flow needs from a PIX
// payment provider, independent of any particular provider's contract.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// Gateway creates PIX charges and interprets the provider's webhooks.
type Gateway interface {
	Name() string
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	// VerifyWebhook returns ErrInvalidSignature when the provider signs its
	// callbacks and the signature does not match. Providers that do not sign
	// return nil.
	VerifyWebhook(header http.Header, body []byte) error
	ParseWebhook(body []byte) (*WebhookEvent, error)
}

// Customer is the payer as sent to the provider. Document and Phone are
// digits only.
type Customer struct {
	Name     string
	Email    string
	Document string
	Phone    string
}

type ChargeRequest struct {
	Reference   string // our idempotent id, echoed back by some providers
	Amount      decimal.Decimal
	Description string
	CallbackURL string
	Customer    Customer
	Split       *Split // nil when the whole amount stays with the platform
}

// Split sends Percentage of the charge to another account on the provider
// (Sync's user_id, Pagar.me's recipient id).
type Split struct {
	Percentage decimal.Decimal
	UserID     string
}

// PartnerCents is the share of amount owed to the split account, rounded
// down so the platform keeps the remainder.
func (s *Split) PartnerCents(amount decimal.Decimal) int64 {
	return s.Percentage.Mul(decimal.NewFromInt(Cents(amount))).Div(decimal.NewFromInt(100)).Floor().IntPart()
}

// Charge is the normalized provider answer.
type Charge struct {
	ExternalID        string // id the provider will send in webhooks
	Status            string
	PaymentCode       string // PIX copia-e-cola
	PaymentCodeBase64 string // QR image, may be empty
	Raw               []byte
}

// WebhookEvent is a provider callback reduced to what reconciliation needs.
type WebhookEvent struct {
	ExternalID string
	Amount     decimal.Decimal
	HasAmount  bool
	Status     string // uppercased
	Raw        []byte
}

var paidStatuses = map[string]struct{}{
	"PAID":      {},
	"APPROVED":  {},
	"COMPLETED": {},
}

// NormalizeStatus uppercases and trims a provider status.
func NormalizeStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsPaid reports whether a provider status means the money arrived.
func IsPaid(status string) bool {
	_, ok := paidStatuses[NormalizeStatus(status)]
	return ok
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// Cents converts a BRL amount to integer centavos, rounding half away from zero.
// Amounts outside the int64 range saturate instead of wrapping.
func Cents(amount decimal.Decimal) int64 {
	c := amount.Mul(decimal.NewFromInt(100)).Round(0)
	switch {
	case c.GreaterThan(maxCents):
		return math.MaxInt64
	case c.LessThan(minCents):
		return math.MinInt64
	}
	return c.IntPart()
}

// FromCents is the inverse of Cents.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// FirstString returns the first non-empty string value among keys, so
// provider field aliases can be read uniformly.
func FirstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return decimal.NewFromFloat(v).String()
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// Describe is used in log lines.
func Describe(c *Charge) string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("external_id=%s status=%s", c.ExternalID, c.Status)
}

// ParseAmount reads a JSON-decoded number or numeric string.
func ParseAmount(v interface{}) (decimal.Decimal, bool) {
	switch a := v.(type) {
	case float64:
		return decimal.NewFromFloat(a), true
	case int:
		return decimal.NewFromInt(int64(a)), true
	case int64:
		return decimal.NewFromInt(a), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(a))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(a.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
