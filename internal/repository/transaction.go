package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transaction is one PIX payment attempt.
type Transaction struct {
	ID                string
	ExternalID        string
	Reference         string
	Gateway           string
	AmountCents       int64
	Currency          string
	Status            string
	Description       string
	ClientName        string
	ClientEmail       string
	ClientDocument    string
	ClientPhone       string
	PaymentCode       string
	PaymentCodeBase64 string
	SplitUserID       string // empty when the charge was not split
	SplitPercentage   string
	RawWebhook        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PaidAt            *time.Time
}

const transactionColumns = `id, external_id, reference, gateway, amount_cents, currency, status, description,
	client_name, client_email, client_document, client_phone, payment_code, payment_code_base64,
	split_user_id, split_percentage, raw_webhook, created_at, updated_at, paid_at`

// CreateTransaction inserts a new transaction and its charge_created event.
// A second insert for the same external id returns ErrDuplicateID and leaves
// the first row untouched.
func (s *Store) CreateTransaction(ctx context.Context, t *Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Currency == "" {
		t.Currency = "BRL"
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO pix_transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (external_id) DO NOTHING`),
			t.ID, t.ExternalID, t.Reference, t.Gateway, t.AmountCents, t.Currency, t.Status, t.Description,
			t.ClientName, t.ClientEmail, t.ClientDocument, nullString(t.ClientPhone), t.PaymentCode, t.PaymentCodeBase64,
			nullString(t.SplitUserID), nullString(t.SplitPercentage), nullString(t.RawWebhook), formatTime(now), formatTime(now), nullTime(t.PaidAt),
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if ra == 0 {
			return ErrDuplicateID
		}
		return s.recordEventTx(ctx, tx, t.ID, "", t.Status, ReasonChargeCreated, "")
	})
}

// TransactionByExternalID returns ErrNotFound when no row matches.
func (s *Store) TransactionByExternalID(ctx context.Context, externalID string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+transactionColumns+` FROM pix_transactions WHERE external_id = ?`), externalID)
	return scanTransaction(row)
}

func (s *Store) TransactionByID(ctx context.Context, id string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+transactionColumns+` FROM pix_transactions WHERE id = ?`), id)
	return scanTransaction(row)
}

// UpdateStatus stores a gateway status change with its raw payload and
// records the transition. paidAt nil clears paid_at.
func (s *Store) UpdateStatus(ctx context.Context, id, oldStatus, newStatus, rawWebhook string, paidAt *time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE pix_transactions
			SET status = ?, raw_webhook = ?, paid_at = ?, updated_at = ?
			WHERE id = ?`),
			newStatus, nullString(rawWebhook), nullTime(paidAt), formatTime(s.now()), id,
		)
		if err != nil {
			return fmt.Errorf("update transaction status: %w", err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if ra != 1 {
			return ErrNotFound
		}
		return s.recordEventTx(ctx, tx, id, oldStatus, newStatus, ReasonWebhookStatus, "")
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*Transaction, error) {
	var (
		t                    Transaction
		phone, raw, paidAt   sql.NullString
		splitUser, splitPct  sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&t.ID, &t.ExternalID, &t.Reference, &t.Gateway, &t.AmountCents, &t.Currency, &t.Status, &t.Description,
		&t.ClientName, &t.ClientEmail, &t.ClientDocument, &phone, &t.PaymentCode, &t.PaymentCodeBase64,
		&splitUser, &splitPct, &raw, &createdAt, &updatedAt, &paidAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.ClientPhone = phone.String
	t.SplitUserID = splitUser.String
	t.SplitPercentage = splitPct.String
	t.RawWebhook = raw.String
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.PaidAt = parseNullTime(paidAt)
	return &t, nil
}
