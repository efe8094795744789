// Package syncpay integrates with Sync Payments' partner API: OAuth-style
// client credentials exchanged for a short-lived bearer token, PIX cash-in
// creation and webhook parsing.
package syncpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"pixvip/api/internal/credcache"
	"pixvip/api/internal/gateway"
	"pixvip/api/internal/logger"
)

const (
	authPath   = "/api/partner/v1/auth-token"
	cashInPath = "/api/partner/v1/cash-in"

	// Tokens are refreshed this long before the provider says they expire.
	tokenSafetyMargin = 60 * time.Second

	authTimeout = 20 * time.Second

	SignatureHeader = "X-Webhook-Signature"
)

// Client talks to Sync Payments and implements gateway.Gateway.
type Client struct {
	BaseURL       string
	clientID      string
	clientSecret  string
	webhookSecret string

	http  *http.Client
	cache credcache.Cache
	group singleflight.Group
}

// NewClient builds a client. A nil cache falls back to a process-local one.
func NewClient(baseURL, clientID, clientSecret, webhookSecret string, cache credcache.Cache) *Client {
	if cache == nil {
		cache = credcache.NewMemory()
	}
	return &Client{
		BaseURL:       baseURL,
		clientID:      clientID,
		clientSecret:  clientSecret,
		webhookSecret: webhookSecret,
		http:          &http.Client{Timeout: 20 * time.Second},
		cache:         cache,
	}
}

// WithHTTPClient replaces the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) Name() string { return "sync" }

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) cacheKey() string {
	return "syncpay:" + c.clientID
}

// accessToken returns a cached bearer token or authenticates. Concurrent
// misses in this process share one request; across processes a redundant
// refresh is harmless.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if tok, ok, err := c.cache.Get(ctx, c.cacheKey()); err != nil {
		logger.Warnf("[SYNC] erro ao ler credencial em cache: %v", err)
	} else if ok {
		return tok, nil
	}

	// The refresh is shared, so it must not die with the caller that started it.
	ch := c.group.DoChan(c.cacheKey(), func() (interface{}, error) {
		authCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), authTimeout)
		defer cancel()
		return c.authenticate(authCtx)
	})
	select {
	case <-ctx.Done():
		return "", &gateway.Error{Code: gateway.CodeAuthError, Message: "Não foi possível autenticar na Sync Payments", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", &gateway.Error{Code: gateway.CodeAuthError, Message: "SYNC_CLIENT_ID ou SYNC_CLIENT_SECRET não configurados"}
	}

	status, body, err := c.doRequest(ctx, http.MethodPost, authPath, "", map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return "", &gateway.Error{Code: gateway.CodeAuthError, Message: "Não foi possível autenticar na Sync Payments", Err: err}
	}
	if status < 200 || status > 299 {
		logger.Errorf("[SYNC] erro ao autenticar: status=%d body=%s", status, string(body))
		return "", &gateway.Error{
			Code:       gateway.CodeAuthError,
			Message:    "Não foi possível autenticar na Sync Payments",
			Details:    string(body),
			StatusCode: status,
		}
	}

	var ar authResponse
	if err := json.Unmarshal(body, &ar); err != nil || ar.AccessToken == "" {
		return "", &gateway.Error{Code: gateway.CodeInvalidResponse, Message: "Resposta de autenticação inválida da Sync", Details: string(body), Err: err}
	}

	ttl := time.Duration(ar.ExpiresIn)*time.Second - tokenSafetyMargin
	if err := c.cache.Set(ctx, c.cacheKey(), ar.AccessToken, ttl); err != nil {
		logger.Warnf("[SYNC] erro ao salvar credencial em cache: %v", err)
	}
	return ar.AccessToken, nil
}

// doRequest sends a JSON request and returns status and raw body. Transport
// failures are the only errors; HTTP status handling is left to callers.
func (c *Client) doRequest(ctx context.Context, method, path, bearer string, payload interface{}) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
