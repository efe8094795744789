package vip

import (
	"context"
	"errors"
	"strings"

	"pixvip/api/internal/logger"
	"pixvip/api/internal/repository"
)

const (
	ReasonMissingToken     = "MISSING_TOKEN"
	ReasonTokenNotFound    = "TOKEN_NOT_FOUND"
	ReasonTokenAlreadyUsed = "TOKEN_ALREADY_USED"
	ReasonInternalError    = "INTERNAL_ERROR"
)

type RedeemInput struct {
	Token           string
	DiscordUserID   string
	DiscordUsername string
}

// RedeemResult is either valid (Reason empty) or carries a reason code.
type RedeemResult struct {
	Valid         bool
	Reason        string
	Message       string
	TokenID       string
	ClientEmail   string
	TransactionID string
}

// RedeemToken consumes a single-use token. It never returns an error; every
// outcome, including store failures, is a RedeemResult.
func (s *Service) RedeemToken(ctx context.Context, in RedeemInput) *RedeemResult {
	res := s.redeem(ctx, in)
	s.metrics.Redemption(res.Reason)
	return res
}

func (s *Service) redeem(ctx context.Context, in RedeemInput) *RedeemResult {
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return &RedeemResult{Reason: ReasonMissingToken, Message: "Campo 'token' é obrigatório no corpo da requisição."}
	}

	logger.Infof("[REDEEM] validando token: prefix=%s discord_user_id=%s discord_username=%s",
		tokenPrefix(token), in.DiscordUserID, in.DiscordUsername)

	tok, err := s.store.RedeemToken(ctx, token, in.DiscordUserID, in.DiscordUsername)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &RedeemResult{Reason: ReasonTokenNotFound, Message: "Token inválido ou não encontrado."}
	case errors.Is(err, repository.ErrTokenUsed):
		return &RedeemResult{Reason: ReasonTokenAlreadyUsed, Message: "Esse token já foi utilizado anteriormente."}
	case err != nil:
		logger.Errorf("[REDEEM] erro ao validar token %s: %v", tokenPrefix(token), err)
		return &RedeemResult{Reason: ReasonInternalError, Message: "Erro interno ao validar o token."}
	}

	logger.Infof("[REDEEM] token %s utilizado por %s", tokenPrefix(token), in.DiscordUserID)
	return &RedeemResult{
		Valid:         true,
		Message:       "Token válido. Pode liberar o acesso VIP para o usuário.",
		TokenID:       tok.ID,
		ClientEmail:   tok.ClientEmail,
		TransactionID: tok.TransactionID,
	}
}
