package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	AccessTypeVIPDiscord = "VIP_DISCORD"

	TokenUnused = "unused"
	TokenUsed   = "used"
)

// AccessGrant records that a transaction unlocked the community.
type AccessGrant struct {
	ID            string
	TransactionID string
	ClientEmail   string
	AccessType    string
	CreatedAt     time.Time
}

// AccessToken is the single-use credential handed to the payer.
type AccessToken struct {
	ID                 string
	TransactionID      string
	ClientEmail        string
	Token              string
	Status             string
	UsedAt             *time.Time
	RedeemedByUserID   string
	RedeemedByUsername string
	CreatedAt          time.Time
}

const tokenColumns = `id, transaction_id, client_email, token, status, used_at, redeemed_by_user_id, redeemed_by_username, created_at`

// GrantAccess inserts the grant and its token in one transaction. The grant
// insert is conditional on the transaction's unique constraint, so concurrent
// webhook deliveries race on the database and only one of them returns
// granted=true. The token is only minted by that winner.
func (s *Store) GrantAccess(ctx context.Context, transactionID, clientEmail, token string) (bool, error) {
	granted := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(s.now())
		res, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO vip_access (id, transaction_id, client_email, access_type, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (transaction_id) DO NOTHING`),
			uuid.New().String(), transactionID, clientEmail, AccessTypeVIPDiscord, now,
		)
		if err != nil {
			return fmt.Errorf("insert access grant: %w", err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if ra == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO vip_tokens (id, transaction_id, client_email, token, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`),
			uuid.New().String(), transactionID, clientEmail, token, TokenUnused, now,
		); err != nil {
			return fmt.Errorf("insert access token: %w", err)
		}
		if err := s.recordEventTx(ctx, tx, transactionID, "", "", ReasonAccessGranted, AccessTypeVIPDiscord); err != nil {
			return err
		}
		granted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return granted, nil
}

func (s *Store) AccessByTransactionID(ctx context.Context, transactionID string) (*AccessGrant, error) {
	var (
		g         AccessGrant
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT id, transaction_id, client_email, access_type, created_at
		FROM vip_access WHERE transaction_id = ?`), transactionID).
		Scan(&g.ID, &g.TransactionID, &g.ClientEmail, &g.AccessType, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.CreatedAt = parseTime(createdAt)
	return &g, nil
}

// CountAccessByTransactionID is used by tests and the CLI to check the
// one-grant invariant.
func (s *Store) CountAccessByTransactionID(ctx context.Context, transactionID string) (grants, tokens int, err error) {
	if err = s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM vip_access WHERE transaction_id = ?`), transactionID).Scan(&grants); err != nil {
		return
	}
	err = s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM vip_tokens WHERE transaction_id = ?`), transactionID).Scan(&tokens)
	return
}

func (s *Store) TokenByTransactionID(ctx context.Context, transactionID string) (*AccessToken, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+tokenColumns+` FROM vip_tokens WHERE transaction_id = ?`), transactionID)
	return scanToken(row)
}

func (s *Store) TokenByValue(ctx context.Context, token string) (*AccessToken, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+tokenColumns+` FROM vip_tokens WHERE token = ?`), token)
	return scanToken(row)
}

// RedeemToken flips a token from unused to used. The conditional update is
// the only writer of the used state, so of two concurrent calls exactly one
// sees a row affected. Returns ErrNotFound or ErrTokenUsed otherwise.
func (s *Store) RedeemToken(ctx context.Context, token, discordUserID, discordUsername string) (*AccessToken, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		UPDATE vip_tokens
		SET status = ?, used_at = ?, redeemed_by_user_id = ?, redeemed_by_username = ?
		WHERE token = ? AND status = ?`),
		TokenUsed, formatTime(s.now()), nullString(discordUserID), nullString(discordUsername), token, TokenUnused,
	)
	if err != nil {
		return nil, fmt.Errorf("redeem token: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	t, err := s.TokenByValue(ctx, token)
	if err != nil {
		return nil, err
	}
	if ra == 0 {
		return t, ErrTokenUsed
	}
	return t, nil
}

func scanToken(row rowScanner) (*AccessToken, error) {
	var (
		t                  AccessToken
		usedAt, uid, uname sql.NullString
		createdAt          string
	)
	err := row.Scan(&t.ID, &t.TransactionID, &t.ClientEmail, &t.Token, &t.Status, &usedAt, &uid, &uname, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.UsedAt = parseNullTime(usedAt)
	t.RedeemedByUserID = uid.String
	t.RedeemedByUsername = uname.String
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}
