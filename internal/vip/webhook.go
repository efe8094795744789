package vip

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pixvip/api/internal/gateway"
	"pixvip/api/internal/logger"
	"pixvip/api/internal/repository"
)

// WebhookOutcome says what a delivery did. The HTTP answer is the same for
// every outcome.
type WebhookOutcome string

const (
	OutcomeInvalidSignature   WebhookOutcome = "invalid_signature"
	OutcomeInvalidPayload     WebhookOutcome = "invalid_payload"
	OutcomeUnknownTransaction WebhookOutcome = "unknown_transaction"
	OutcomeStatusUpdated      WebhookOutcome = "status_updated"
	OutcomeAccessGranted      WebhookOutcome = "access_granted"
	OutcomeAlreadyGranted     WebhookOutcome = "already_granted"
	OutcomeError              WebhookOutcome = "error"
)

// HandleWebhook reconciles one gateway callback. It never returns an error:
// deliveries are at-least-once and a failing answer would only make the
// gateway retry a bug.
func (s *Service) HandleWebhook(ctx context.Context, header http.Header, body []byte) WebhookOutcome {
	outcome := s.handleWebhook(ctx, header, body)
	s.metrics.Webhook(string(outcome))
	return outcome
}

func (s *Service) handleWebhook(ctx context.Context, header http.Header, body []byte) WebhookOutcome {
	if err := s.gw.VerifyWebhook(header, body); err != nil {
		logger.Errorf("[WEBHOOK] assinatura rejeitada (%s): %v", s.gw.Name(), err)
		return OutcomeInvalidSignature
	}

	ev, err := s.gw.ParseWebhook(body)
	if err != nil {
		logger.Errorf("[WEBHOOK] payload inválido: %v", err)
		return OutcomeInvalidPayload
	}
	ev.Status = gateway.NormalizeStatus(ev.Status)
	logger.Infof("[WEBHOOK] recebido: external_id=%s status=%s amount=%s", ev.ExternalID, ev.Status, ev.Amount.String())

	if ev.ExternalID == "" || ev.Status == "" {
		logger.Errorf("[WEBHOOK] webhook inválido, faltando id ou status: %s", string(body))
		return OutcomeInvalidPayload
	}

	tx, err := s.store.TransactionByExternalID(ctx, ev.ExternalID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Errorf("[WEBHOOK] transação não encontrada para external_id=%s", ev.ExternalID)
		return OutcomeUnknownTransaction
	}
	if err != nil {
		logger.Errorf("[WEBHOOK] erro ao buscar transação %s: %v", ev.ExternalID, err)
		return OutcomeError
	}

	// A mismatch is recorded but does not stop the grant; see DESIGN.md.
	if ev.HasAmount && gateway.Cents(ev.Amount) != tx.AmountCents {
		detail := fmt.Sprintf("esperado=%d recebido=%d centavos", tx.AmountCents, gateway.Cents(ev.Amount))
		logger.Errorf("[FRAUD_ALERT] valor divergente: external_id=%s %s", ev.ExternalID, detail)
		if err := s.store.RecordEvent(ctx, tx.ID, tx.Status, ev.Status, repository.ReasonAmountMismatch, detail); err != nil {
			logger.Errorf("[WEBHOOK] erro ao registrar divergência: %v", err)
		}
	}

	paid := gateway.IsPaid(ev.Status)
	var paidAt *time.Time
	if paid {
		paidAt = tx.PaidAt
		if paidAt == nil {
			now := s.now()
			paidAt = &now
		}
	}

	if err := s.store.UpdateStatus(ctx, tx.ID, tx.Status, ev.Status, string(ev.Raw), paidAt); err != nil {
		logger.Errorf("[WEBHOOK] erro ao atualizar transação %s: %v", ev.ExternalID, err)
	}

	if !paid {
		logger.Infof("[WEBHOOK] status não pago, apenas registrando: external_id=%s status=%s", ev.ExternalID, ev.Status)
		return OutcomeStatusUpdated
	}

	granted, err := s.store.GrantAccess(ctx, tx.ID, tx.ClientEmail, s.newToken())
	if err != nil {
		logger.Errorf("[WEBHOOK] erro ao criar acesso VIP para %s: %v", ev.ExternalID, err)
		return OutcomeError
	}
	if !granted {
		logger.Infof("[WEBHOOK] acesso VIP já existia, não duplicar: external_id=%s", ev.ExternalID)
		return OutcomeAlreadyGranted
	}

	s.metrics.AccessGranted()
	logger.Infof("[ACCESS_GRANTED] external_id=%s email=%s", ev.ExternalID, tx.ClientEmail)
	return OutcomeAccessGranted
}
