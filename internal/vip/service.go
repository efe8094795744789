// Package vip implements the PIX → VIP access reconciliation flow: charge
// creation, webhook processing, status polling and single-use token
// redemption. It is transport-agnostic; internal/httpapi adapts it to HTTP.
package vip

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"pixvip/api/internal/gateway"
	"pixvip/api/internal/metrics"
	"pixvip/api/internal/repository"
)

var (
	ErrTransactionNotFound = errors.New("transação não encontrada")
	ErrInvalidRequest      = errors.New("requisição inválida")
)

// Store is the persistence the flow needs; *repository.Store implements it.
type Store interface {
	CreateTransaction(ctx context.Context, t *repository.Transaction) error
	TransactionByExternalID(ctx context.Context, externalID string) (*repository.Transaction, error)
	UpdateStatus(ctx context.Context, id, oldStatus, newStatus, rawWebhook string, paidAt *time.Time) error
	RecordEvent(ctx context.Context, transactionID, oldStatus, newStatus, reason, detail string) error
	GrantAccess(ctx context.Context, transactionID, clientEmail, token string) (bool, error)
	TokenByTransactionID(ctx context.Context, transactionID string) (*repository.AccessToken, error)
	RedeemToken(ctx context.Context, token, discordUserID, discordUsername string) (*repository.AccessToken, error)
}

// Options are the business settings of the flow.
type Options struct {
	MinAmount     decimal.Decimal
	MaxAmount     decimal.Decimal // zero means no upper bound
	DefaultAmount decimal.Decimal
	CallbackURL   string
	DiscordLink   string
	Description   string
}

// DefaultOptions mirrors the production settings: R$ 50 minimum, R$ 150 when
// the client does not send an amount, R$ 100.000 maximum.
func DefaultOptions() Options {
	return Options{
		MinAmount:     decimal.NewFromInt(50),
		MaxAmount:     decimal.NewFromInt(100000),
		DefaultAmount: decimal.NewFromInt(150),
		Description:   "Pagamento via PIX",
	}
}

type Service struct {
	store   Store
	gw      gateway.Gateway
	opts    Options
	metrics *metrics.Metrics

	now      func() time.Time
	newToken func() string
	newRef   func() string
}

func NewService(store Store, gw gateway.Gateway, opts Options, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		gw:       gw,
		opts:     opts,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		newToken: uuid.NewString,
		newRef:   newReference,
	}
}

func newReference() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}

func (s *Service) DiscordLink() string {
	return s.opts.DiscordLink
}

// ValidationError is a payer-facing input problem. Nothing was sent to the
// gateway and nothing was persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func tokenPrefix(tok string) string {
	if len(tok) <= 8 {
		return tok
	}
	return tok[:8]
}
