package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ReasonChargeCreated  = "charge_created"
	ReasonWebhookStatus  = "webhook_status"
	ReasonAmountMismatch = "amount_mismatch"
	ReasonAccessGranted  = "access_granted"
)

// TransactionEvent is one row of the append-only audit trail.
type TransactionEvent struct {
	ID            string
	TransactionID string
	OldStatus     string
	NewStatus     string
	Reason        string
	Detail        string
	CreatedAt     time.Time
}

// RecordEvent appends an audit row outside of any larger transaction.
func (s *Store) RecordEvent(ctx context.Context, transactionID, oldStatus, newStatus, reason, detail string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.recordEventTx(ctx, tx, transactionID, oldStatus, newStatus, reason, detail)
	})
}

func (s *Store) recordEventTx(ctx context.Context, tx *sql.Tx, transactionID, oldStatus, newStatus, reason, detail string) error {
	_, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO transaction_events (id, transaction_id, old_status, new_status, reason, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		uuid.New().String(), transactionID, oldStatus, newStatus, reason, detail, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("record transaction event: %w", err)
	}
	return nil
}

// EventsByTransactionID lists audit rows oldest first.
func (s *Store) EventsByTransactionID(ctx context.Context, transactionID string) ([]TransactionEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, transaction_id, old_status, new_status, reason, detail, created_at
		FROM transaction_events WHERE transaction_id = ?
		ORDER BY created_at, id`), transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []TransactionEvent
	for rows.Next() {
		var (
			e         TransactionEvent
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.OldStatus, &e.NewStatus, &e.Reason, &e.Detail, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(createdAt)
		list = append(list, e)
	}
	return list, rows.Err()
}
