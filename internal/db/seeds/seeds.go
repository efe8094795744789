package seeds

import (
	"context"
	"fmt"
	"time"

	"pixvip/api/internal/db"
	"pixvip/api/internal/repository"
)

// Demo tokens, stable so the bot can be tested against a seeded database.
const (
	TokenUnused   = "seed-token-unused-0001"
	TokenRedeemed = "seed-token-used-0002"
)

// Run clears the VIP tables and inserts fresh demo data.
// Safe to run multiple times (resets to seed state).
func Run(ctx context.Context, d *db.DB) error {
	if err := clear(ctx, d); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := insert(ctx, repository.NewStore(d)); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func clear(ctx context.Context, d *db.DB) error {
	tables := []string{"transaction_events", "vip_tokens", "vip_access", "pix_transactions"}
	for _, t := range tables {
		if _, err := d.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("delete %s: %w", t, err)
		}
	}
	return nil
}

func insert(ctx context.Context, s *repository.Store) error {
	txs := []struct {
		externalID string
		name       string
		email      string
		cpf        string
		status     string
		token      string
	}{
		{"seed-pending-1", "João Silva", "joao@email.com", "52998224725", "WAITING_FOR_APPROVAL", ""},
		{"seed-paid-1", "Maria Santos", "maria@email.com", "12345678909", "PAID", TokenUnused},
		{"seed-paid-2", "Ana Souza", "ana@email.com", "52998224725", "APPROVED", TokenRedeemed},
	}

	for _, sd := range txs {
		tx := &repository.Transaction{
			ExternalID:     sd.externalID,
			Reference:      "ref-" + sd.externalID,
			Gateway:        "seed",
			AmountCents:    15000,
			Status:         "WAITING_FOR_APPROVAL",
			Description:    "Pagamento via PIX",
			ClientName:     sd.name,
			ClientEmail:    sd.email,
			ClientDocument: sd.cpf,
			PaymentCode:    "00020126580014br.gov.bcb.pix-" + sd.externalID,
		}
		if err := s.CreateTransaction(ctx, tx); err != nil {
			return fmt.Errorf("insert transaction %s: %w", sd.externalID, err)
		}
		if sd.token == "" {
			continue
		}

		paidAt := time.Now().UTC()
		if err := s.UpdateStatus(ctx, tx.ID, tx.Status, sd.status, `{"seed":true}`, &paidAt); err != nil {
			return fmt.Errorf("update %s: %w", sd.externalID, err)
		}
		if _, err := s.GrantAccess(ctx, tx.ID, sd.email, sd.token); err != nil {
			return fmt.Errorf("grant %s: %w", sd.externalID, err)
		}
	}

	if _, err := s.RedeemToken(ctx, TokenRedeemed, "seed-discord-user", "seed#0001"); err != nil {
		return fmt.Errorf("redeem seed token: %w", err)
	}
	return nil
}
