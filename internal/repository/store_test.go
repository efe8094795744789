package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixvip/api/internal/db"
)

func newStoreForTest(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, db.Migrate(d))
	return NewStore(d)
}

func seedTransaction(t *testing.T, s *Store, externalID string) *Transaction {
	t.Helper()
	tx := &Transaction{
		ExternalID:     externalID,
		Reference:      "ref-" + externalID,
		Gateway:        "sync",
		AmountCents:    15000,
		Status:         "WAITING_FOR_APPROVAL",
		Description:    "Pagamento via PIX",
		ClientName:     "Maria Santos",
		ClientEmail:    "maria@email.com",
		ClientDocument: "52998224725",
		PaymentCode:    "00020126580014br.gov.bcb.pix",
	}
	require.NoError(t, s.CreateTransaction(context.Background(), tx))
	return tx
}

func TestCreateAndFetchTransaction(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	created := seedTransaction(t, s, "tx-100")

	got, err := s.TransactionByExternalID(ctx, "tx-100")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(15000), got.AmountCents)
	assert.Equal(t, "BRL", got.Currency)
	assert.Equal(t, "", got.ClientPhone)
	assert.Nil(t, got.PaidAt)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.TransactionByExternalID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTransactionDuplicateExternalID(t *testing.T) {
	s := newStoreForTest(t)
	seedTransaction(t, s, "tx-dup")

	err := s.CreateTransaction(context.Background(), &Transaction{
		ExternalID:  "tx-dup",
		Reference:   "other",
		Gateway:     "sync",
		AmountCents: 1,
		Status:      "PENDING",
		PaymentCode: "x",
	})
	assert.ErrorIs(t, err, ErrDuplicateID)

	got, err := s.TransactionByExternalID(context.Background(), "tx-dup")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), got.AmountCents)
}

func TestUpdateStatusSetsAndClearsPaidAt(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	tx := seedTransaction(t, s, "tx-200")

	paidAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateStatus(ctx, tx.ID, tx.Status, "PAID", `{"status":"paid"}`, &paidAt))

	got, err := s.TransactionByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", got.Status)
	assert.JSONEq(t, `{"status":"paid"}`, got.RawWebhook)
	require.NotNil(t, got.PaidAt)
	assert.True(t, paidAt.Equal(*got.PaidAt))

	require.NoError(t, s.UpdateStatus(ctx, tx.ID, "PAID", "REFUNDED", `{}`, nil))
	got, err = s.TransactionByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PaidAt)

	events, err := s.EventsByTransactionID(ctx, tx.ID)
	require.NoError(t, err)
	var reasons []string
	for _, e := range events {
		reasons = append(reasons, e.Reason)
	}
	assert.ElementsMatch(t, []string{ReasonChargeCreated, ReasonWebhookStatus, ReasonWebhookStatus}, reasons)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "nope", "", "PAID", "", nil), ErrNotFound)
}

func TestGrantAccessOnlyOnce(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	tx := seedTransaction(t, s, "tx-300")

	granted, err := s.GrantAccess(ctx, tx.ID, tx.ClientEmail, "token-a")
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = s.GrantAccess(ctx, tx.ID, tx.ClientEmail, "token-b")
	require.NoError(t, err)
	assert.False(t, granted)

	grants, tokens, err := s.CountAccessByTransactionID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, grants)
	assert.Equal(t, 1, tokens)

	tok, err := s.TokenByTransactionID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "token-a", tok.Token)
	assert.Equal(t, TokenUnused, tok.Status)

	g, err := s.AccessByTransactionID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, AccessTypeVIPDiscord, g.AccessType)
}

func TestGrantAccessConcurrent(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	tx := seedTransaction(t, s, "tx-350")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.GrantAccess(ctx, tx.ID, tx.ClientEmail, "tok-"+string(rune('a'+i)))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	grants, tokens, err := s.CountAccessByTransactionID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, grants)
	assert.Equal(t, 1, tokens)
}

func TestRedeemToken(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	tx := seedTransaction(t, s, "tx-400")
	_, err := s.GrantAccess(ctx, tx.ID, tx.ClientEmail, "token-400")
	require.NoError(t, err)

	tok, err := s.RedeemToken(ctx, "token-400", "123456789", "maria#0001")
	require.NoError(t, err)
	assert.Equal(t, TokenUsed, tok.Status)
	assert.NotNil(t, tok.UsedAt)
	assert.Equal(t, "123456789", tok.RedeemedByUserID)
	assert.Equal(t, tx.ID, tok.TransactionID)

	_, err = s.RedeemToken(ctx, "token-400", "", "")
	assert.ErrorIs(t, err, ErrTokenUsed)

	_, err = s.RedeemToken(ctx, "unknown", "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemTokenConcurrent(t *testing.T) {
	s := newStoreForTest(t)
	ctx := context.Background()
	tx := seedTransaction(t, s, "tx-450")
	_, err := s.GrantAccess(ctx, tx.ID, tx.ClientEmail, "token-450")
	require.NoError(t, err)

	results := make(chan error, 10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RedeemToken(ctx, "token-450", "", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok, used := 0, 0
	for err := range results {
		switch err {
		case nil:
			ok++
		case ErrTokenUsed:
			used++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, used)
}

func TestRedeemTokenRecordsRedeemer(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	s := newStoreForTest(t).WithClock(func() time.Time { return at })
	ctx := context.Background()
	tx := seedTransaction(t, s, "tx-clock")

	_, err := s.GrantAccess(ctx, tx.ID, tx.ClientEmail, "tok-clock")
	require.NoError(t, err)

	tok, err := s.RedeemToken(ctx, "tok-clock", "1234", "maria#0001")
	require.NoError(t, err)
	require.NotNil(t, tok.UsedAt)
	assert.True(t, tok.UsedAt.Equal(at))
	assert.Equal(t, "1234", tok.RedeemedByUserID)
	assert.Equal(t, "maria#0001", tok.RedeemedByUsername)
	assert.True(t, tok.CreatedAt.Equal(at))
}

func TestEventsOrderedWithinOneSecond(t *testing.T) {
	base := time.Date(2026, 10, 16, 2, 51, 5, 0, time.UTC)
	// CreateTransaction reads the clock twice (row and its event).
	clock := []time.Time{
		base,
		base,
		base.Add(100 * time.Millisecond),
		base.Add(120 * time.Millisecond),
	}
	step := 0
	s := newStoreForTest(t).WithClock(func() time.Time {
		now := clock[step]
		if step < len(clock)-1 {
			step++
		}
		return now
	})
	ctx := context.Background()
	tx := seedTransaction(t, s, "tx-order")

	require.NoError(t, s.RecordEvent(ctx, tx.ID, tx.Status, "PAID", ReasonWebhookStatus, ""))
	require.NoError(t, s.RecordEvent(ctx, tx.ID, "PAID", "PAID", ReasonAccessGranted, ""))

	events, err := s.EventsByTransactionID(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, ReasonChargeCreated, events[0].Reason)
	assert.Equal(t, ReasonWebhookStatus, events[1].Reason)
	assert.Equal(t, ReasonAccessGranted, events[2].Reason)
	assert.True(t, events[1].CreatedAt.Equal(clock[2]))
}
