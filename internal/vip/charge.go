package vip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pixvip/api/internal/gateway"
	"pixvip/api/internal/logger"
	"pixvip/api/internal/payer"
	"pixvip/api/internal/repository"
)

// ChargeInput is the raw create-charge request. Amount may be a number, a
// numeric string, or nil/"" for the default amount.
type ChargeInput struct {
	Amount      interface{}
	Description string
	Name        string
	Email       string
	Document    string
	Phone       string
	Split       *SplitInput
}

// SplitInput forwards part of the charge to a partner account on the gateway.
// Percentage may be a number or a numeric string.
type SplitInput struct {
	Percentage interface{}
	UserID     string
}

type ChargeResult struct {
	Identifier    string
	PixCode       string
	PixCodeBase64 string
	Status        string
	Amount        decimal.Decimal
	Reference     string
}

// ResolveAmount applies the default and the minimum.
func (s *Service) ResolveAmount(raw interface{}) (decimal.Decimal, error) {
	amount := s.opts.DefaultAmount
	if !isBlank(raw) {
		a, ok := gateway.ParseAmount(raw)
		if !ok {
			return decimal.Zero, &ValidationError{Field: "amount", Message: "valor inválido"}
		}
		amount = a
	}
	if amount.LessThan(s.opts.MinAmount) {
		return decimal.Zero, &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("Valor inválido: o mínimo para pagamento PIX é R$ %s", s.opts.MinAmount.StringFixed(2)),
		}
	}
	if s.opts.MaxAmount.IsPositive() && amount.GreaterThan(s.opts.MaxAmount) {
		return decimal.Zero, &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("Valor inválido: o máximo para pagamento PIX é R$ %s", s.opts.MaxAmount.StringFixed(2)),
		}
	}
	return amount.Round(2), nil
}

// ResolveSplit validates the optional split: a partner id and a percentage
// in (0, 100].
func ResolveSplit(in *SplitInput) (*gateway.Split, error) {
	if in == nil {
		return nil, nil
	}
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, &ValidationError{Field: "split", Message: "split.user_id é obrigatório"}
	}
	pct, ok := gateway.ParseAmount(in.Percentage)
	if !ok || !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &ValidationError{Field: "split", Message: "split.percentage deve estar entre 0 e 100"}
	}
	return &gateway.Split{Percentage: pct, UserID: userID}, nil
}

// CreateCharge validates the payer, asks the gateway for a PIX charge and
// records it. Validation problems come back as *ValidationError and gateway
// problems as *gateway.Error; in both cases nothing is stored. A failure to
// store a successful charge is logged and the code is still returned.
func (s *Service) CreateCharge(ctx context.Context, in ChargeInput) (*ChargeResult, error) {
	amount, err := s.ResolveAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	p, err := payer.Normalize(in.Name, in.Email, in.Document, in.Phone)
	if err != nil {
		return nil, &ValidationError{Field: "client", Message: err.Error()}
	}

	split, err := ResolveSplit(in.Split)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = s.opts.Description
	}

	ref := s.newRef()
	charge, err := s.gw.CreateCharge(ctx, gateway.ChargeRequest{
		Reference:   ref,
		Amount:      amount,
		Description: description,
		CallbackURL: s.opts.CallbackURL,
		Customer: gateway.Customer{
			Name:     p.Name,
			Email:    p.Email,
			Document: p.Document,
			Phone:    p.Phone,
		},
		Split: split,
	})
	if err != nil {
		s.metrics.ChargeCreated(s.gw.Name(), "gateway_error")
		logger.Errorf("[CHARGE] erro no gateway %s: reference=%s err=%v", s.gw.Name(), ref, err)
		var gwErr *gateway.Error
		if !errors.As(err, &gwErr) {
			err = &gateway.Error{Code: gateway.CodeGatewayError, Message: "Erro ao criar o Pix", Err: err}
		}
		return nil, err
	}

	status := charge.Status
	if status == "" {
		status = "PENDING"
	}

	tx := &repository.Transaction{
		ExternalID:        charge.ExternalID,
		Reference:         ref,
		Gateway:           s.gw.Name(),
		AmountCents:       gateway.Cents(amount),
		Status:            status,
		Description:       description,
		ClientName:        p.Name,
		ClientEmail:       p.Email,
		ClientDocument:    p.Document,
		ClientPhone:       p.Phone,
		PaymentCode:       charge.PaymentCode,
		PaymentCodeBase64: charge.PaymentCodeBase64,
	}
	if split != nil {
		tx.SplitUserID = split.UserID
		tx.SplitPercentage = split.Percentage.String()
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			logger.Warnf("[CHARGE] transação %s já registrada", charge.ExternalID)
		} else {
			logger.Errorf("[CHARGE] erro ao salvar transação %s: %v", charge.ExternalID, err)
		}
	}

	s.metrics.ChargeCreated(s.gw.Name(), "ok")
	logger.Infof("[CHARGE] PIX criado via %s: %s reference=%s amount=%s",
		s.gw.Name(), gateway.Describe(charge), ref, amount.StringFixed(2))

	return &ChargeResult{
		Identifier:    charge.ExternalID,
		PixCode:       charge.PaymentCode,
		PixCodeBase64: charge.PaymentCodeBase64,
		Status:        status,
		Amount:        amount,
		Reference:     ref,
	}, nil
}

func isBlank(raw interface{}) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}
