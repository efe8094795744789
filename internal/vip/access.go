package vip

import (
	"context"
	"errors"
	"strings"

	"pixvip/api/internal/gateway"
	"pixvip/api/internal/logger"
	"pixvip/api/internal/repository"
)

// AccessStatus is what the payer's page polls for.
type AccessStatus struct {
	Status      string
	IsPaid      bool
	Token       *string
	DiscordLink string
}

// AccessStatus reports the stored status of a transaction. A paid
// transaction may still have no token if the webhook is mid-flight; callers
// poll again.
func (s *Service) AccessStatus(ctx context.Context, externalID string) (*AccessStatus, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrInvalidRequest
	}

	tx, err := s.store.TransactionByExternalID(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	status := gateway.NormalizeStatus(tx.Status)
	res := &AccessStatus{
		Status:      status,
		IsPaid:      gateway.IsPaid(status),
		DiscordLink: s.opts.DiscordLink,
	}
	if !res.IsPaid {
		return res, nil
	}

	tok, err := s.store.TokenByTransactionID(ctx, tx.ID)
	switch {
	case err == nil:
		res.Token = &tok.Token
	case errors.Is(err, repository.ErrNotFound):
	default:
		logger.Errorf("[ACCESS] erro ao buscar token VIP de %s: %v", externalID, err)
	}
	return res, nil
}
