package syncpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixvip/api/internal/gateway"
)

type fakeSync struct {
	authCalls   atomic.Int32
	cashInCalls atomic.Int32
	expiresIn   int64

	mu       sync.Mutex
	lastBody map[string]interface{}
	lastAuth string

	cashInStatus int
	cashInBody   string

	// When set, auth requests signal authStarted and block until authGate closes.
	authStarted chan struct{}
	authGate    chan struct{}
}

func (f *fakeSync) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(authPath, func(w http.ResponseWriter, r *http.Request) {
		f.authCalls.Add(1)
		if f.authGate != nil {
			f.authStarted <- struct{}{}
			<-f.authGate
		}
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["client_id"] != "id" || body["client_secret"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "bearer-xyz", "expires_in": f.expiresIn})
	})
	mux.HandleFunc(cashInPath, func(w http.ResponseWriter, r *http.Request) {
		f.cashInCalls.Add(1)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.lastBody = body
		f.lastAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		if f.cashInStatus != 0 {
			w.WriteHeader(f.cashInStatus)
		}
		w.Write([]byte(f.cashInBody))
	})
	return mux
}

func newClientForTest(t *testing.T, f *fakeSync) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "id", "secret", "whsec", nil).WithHTTPClient(srv.Client())
}

func chargeRequest() gateway.ChargeRequest {
	return gateway.ChargeRequest{
		Reference:   "01J00000000000000000000000",
		Amount:      decimal.NewFromInt(150),
		Description: "Pagamento via PIX",
		CallbackURL: "https://vip.example.com/v1/webhook",
		Customer: gateway.Customer{
			Name:     "Maria Santos",
			Email:    "maria@email.com",
			Document: "52998224725",
			Phone:    "21988887777",
		},
	}
}

func TestCreateChargeSuccess(t *testing.T) {
	f := &fakeSync{expiresIn: 3600, cashInBody: `{"message":"ok","paymentCode":"000201PIX","idTransaction":"sync-1","paymentCodeBase64":"iVBOR","extra":{"x":1}}`}
	c := newClientForTest(t, f)

	ch, err := c.CreateCharge(context.Background(), chargeRequest())
	require.NoError(t, err)
	assert.Equal(t, "sync-1", ch.ExternalID)
	assert.Equal(t, "000201PIX", ch.PaymentCode)
	assert.Equal(t, "iVBOR", ch.PaymentCodeBase64)
	assert.Equal(t, "WAITING_FOR_APPROVAL", ch.Status)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, "Bearer bearer-xyz", f.lastAuth)
	assert.Equal(t, float64(150), f.lastBody["amount"])
	assert.Equal(t, "https://vip.example.com/v1/webhook", f.lastBody["webhook_url"])
	assert.Equal(t, "01J00000000000000000000000", f.lastBody["external_id"])
	client := f.lastBody["client"].(map[string]interface{})
	assert.Equal(t, "52998224725", client["cpf"])
	assert.Equal(t, "maria@email.com", client["email"])
}

func TestCreateChargeForwardsSplit(t *testing.T) {
	f := &fakeSync{expiresIn: 3600, cashInBody: `{"pix_code":"c","identifier":"i"}`}
	c := newClientForTest(t, f)

	req := chargeRequest()
	req.Split = &gateway.Split{Percentage: decimal.RequireFromString("12.5"), UserID: "partner-7"}
	_, err := c.CreateCharge(context.Background(), req)
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	split, ok := f.lastBody["split"].(map[string]interface{})
	require.True(t, ok, "split missing from %v", f.lastBody)
	assert.Equal(t, 12.5, split["percentage"])
	assert.Equal(t, "partner-7", split["user_id"])
}

func TestCreateChargeOmitsEmptySplit(t *testing.T) {
	f := &fakeSync{expiresIn: 3600, cashInBody: `{"pix_code":"c","identifier":"i"}`}
	c := newClientForTest(t, f)

	_, err := c.CreateCharge(context.Background(), chargeRequest())
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()
	_, present := f.lastBody["split"]
	assert.False(t, present)
}

func TestCreateChargeReusesCachedToken(t *testing.T) {
	f := &fakeSync{expiresIn: 3600, cashInBody: `{"pix_code":"c","identifier":"i","status_transaction":"pending"}`}
	c := newClientForTest(t, f)

	for i := 0; i < 3; i++ {
		ch, err := c.CreateCharge(context.Background(), chargeRequest())
		require.NoError(t, err)
		assert.Equal(t, "PENDING", ch.Status)
	}
	assert.Equal(t, int32(1), f.authCalls.Load())
	assert.Equal(t, int32(3), f.cashInCalls.Load())
}

func TestTokenWithinSafetyMarginIsNotCached(t *testing.T) {
	f := &fakeSync{expiresIn: 30, cashInBody: `{"pix_code":"c","identifier":"i"}`}
	c := newClientForTest(t, f)

	for i := 0; i < 2; i++ {
		_, err := c.CreateCharge(context.Background(), chargeRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), f.authCalls.Load())
}

func TestSharedRefreshSurvivesCancelledCaller(t *testing.T) {
	f := &fakeSync{
		expiresIn:   3600,
		cashInBody:  `{"pix_code":"c","identifier":"i"}`,
		authStarted: make(chan struct{}, 1),
		authGate:    make(chan struct{}),
	}
	c := newClientForTest(t, f)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.CreateCharge(ctxA, chargeRequest())
		errA <- err
	}()
	<-f.authStarted
	cancelA()
	require.Error(t, <-errA)

	errB := make(chan error, 1)
	go func() {
		_, err := c.CreateCharge(context.Background(), chargeRequest())
		errB <- err
	}()
	close(f.authGate)

	assert.NoError(t, <-errB)
	assert.Equal(t, int32(1), f.authCalls.Load())
	assert.Equal(t, int32(1), f.cashInCalls.Load())
}

func TestCreateChargeErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{name: "http error", status: http.StatusBadGateway, body: `{"message":"down"}`, wantCode: gateway.CodeGatewayError},
		{name: "malformed json", status: http.StatusOK, body: `not json`, wantCode: gateway.CodeInvalidResponse},
		{name: "missing code", status: http.StatusOK, body: `{"identifier":"i"}`, wantCode: gateway.CodeInvalidResponse},
		{name: "missing id", status: http.StatusOK, body: `{"pix_code":"c"}`, wantCode: gateway.CodeInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSync{expiresIn: 3600, cashInStatus: tt.status, cashInBody: tt.body}
			c := newClientForTest(t, f)

			_, err := c.CreateCharge(context.Background(), chargeRequest())
			var gwErr *gateway.Error
			require.True(t, errors.As(err, &gwErr), "got %v", err)
			assert.Equal(t, tt.wantCode, gwErr.Code)
		})
	}
}

func TestCreateChargeAuthFailure(t *testing.T) {
	f := &fakeSync{expiresIn: 3600}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "id", "wrong", "", nil).WithHTTPClient(srv.Client())

	_, err := c.CreateCharge(context.Background(), chargeRequest())
	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, gateway.CodeAuthError, gwErr.Code)
	assert.Equal(t, http.StatusUnauthorized, gwErr.StatusCode)
	assert.Equal(t, int32(0), f.cashInCalls.Load())
}

func TestCreateChargeMissingCredentials(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", "", "", nil)
	_, err := c.CreateCharge(context.Background(), chargeRequest())
	var gwErr *gateway.Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, gateway.CodeAuthError, gwErr.Code)
}
