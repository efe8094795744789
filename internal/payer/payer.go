// Package payer validates and normalizes the payer data sent with a charge.
package payer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	maxNameLen  = 100
	maxEmailLen = 190
)

// Payer is the normalized customer attached to a PIX charge.
type Payer struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=190"`
	Document string `validate:"required,len=11,numeric"`
	Phone    string `validate:"omitempty,min=10,max=11,numeric"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidEmail reports whether s is a syntactically valid address.
func ValidEmail(s string) bool {
	return v().Var(s, "required,email") == nil
}

// Normalize trims, sanitizes and validates raw payer fields. The returned
// error message is safe to show to the payer.
func Normalize(name, email, document, phone string) (*Payer, error) {
	p := &Payer{
		Name:     truncate(strings.TrimSpace(name), maxNameLen),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Document: SanitizeDocument(document),
		Phone:    NormalizePhone(phone),
	}

	if p.Name == "" {
		return nil, errors.New("nome do pagador é obrigatório")
	}
	if utf8.RuneCountInString(p.Email) > maxEmailLen || !ValidEmail(p.Email) {
		return nil, fmt.Errorf("e-mail inválido: %q", p.Email)
	}
	if err := ValidateCPF(p.Document); err != nil {
		return nil, err
	}
	if err := v().Struct(p); err != nil {
		return nil, fmt.Errorf("dados do pagador inválidos: %w", err)
	}
	return p, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
