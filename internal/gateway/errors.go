package gateway

import (
	"errors"
	"fmt"
)

const (
	CodeGatewayError    = "GATEWAY_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeAuthError       = "AUTH_ERROR"
)

var ErrInvalidSignature = errors.New("assinatura do webhook inválida")

// Error is returned for every provider-side failure. Callers surface it as a
// business error, not a transport error.
type Error struct {
	Code       string
	Message    string
	Details    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (http %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
