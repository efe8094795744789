package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pixvip/api/internal/config"
	"pixvip/api/internal/db/seeds"
	"pixvip/api/internal/gateway"
	"pixvip/api/internal/middleware"
	"pixvip/api/internal/repository"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica as migrações pendentes",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrações aplicadas (%s)\n", d.Driver)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [externalId]",
		Short: "Mostra a transação, o acesso VIP e o histórico de um pagamento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()
			return printStatus(cmd, repository.NewStore(d), args[0])
		},
	}
}

func printStatus(cmd *cobra.Command, s *repository.Store, externalID string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	tx, err := s.TransactionByExternalID(ctx, externalID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("transação %s não encontrada", externalID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Transação %s\n", tx.ExternalID)
	fmt.Fprintln(out, strings.Repeat("=", 40))
	fmt.Fprintf(out, "  Gateway:   %s\n", tx.Gateway)
	fmt.Fprintf(out, "  Valor:     R$ %s\n", gateway.FromCents(tx.AmountCents).StringFixed(2))
	fmt.Fprintf(out, "  Status:    %s (pago: %t)\n", tx.Status, gateway.IsPaid(tx.Status))
	fmt.Fprintf(out, "  Cliente:   %s <%s>\n", tx.ClientName, tx.ClientEmail)
	if tx.SplitUserID != "" {
		fmt.Fprintf(out, "  Split:     %s%% para %s\n", tx.SplitPercentage, tx.SplitUserID)
	}
	if tx.PaidAt != nil {
		fmt.Fprintf(out, "  Pago em:   %s\n", tx.PaidAt.Format(time.RFC3339))
	}

	tok, err := s.TokenByTransactionID(ctx, tx.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fmt.Fprintln(out, "  Token:     (nenhum)")
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "  Token:     %s (%s)\n", tok.Token, tok.Status)
		if tok.UsedAt != nil {
			fmt.Fprintf(out, "  Usado por: %s %s em %s\n", tok.RedeemedByUserID, tok.RedeemedByUsername, tok.UsedAt.Format(time.RFC3339))
		}
	}

	events, err := s.EventsByTransactionID(ctx, tx.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nHistórico:")
	for _, ev := range events {
		fmt.Fprintf(out, "  %s  %-16s %s -> %s %s\n",
			ev.CreatedAt.Format(time.RFC3339), ev.Reason, ev.OldStatus, ev.NewStatus, ev.Detail)
	}
	return nil
}

func redeemCmd() *cobra.Command {
	var userID, username string
	cmd := &cobra.Command{
		Use:   "redeem [token]",
		Short: "Marca um token VIP como utilizado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()
			return redeem(cmd, repository.NewStore(d), args[0], userID, username)
		},
	}
	cmd.Flags().StringVar(&userID, "discord-user-id", "vipctl", "ID do usuário do Discord registrado no resgate")
	cmd.Flags().StringVar(&username, "discord-username", "", "Nome do usuário do Discord registrado no resgate")
	return cmd
}

func redeem(cmd *cobra.Command, s *repository.Store, token, userID, username string) error {
	tok, err := s.RedeemToken(cmd.Context(), token, userID, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return errors.New("TOKEN_NOT_FOUND: token inválido ou não encontrado")
	case errors.Is(err, repository.ErrTokenUsed):
		return errors.New("TOKEN_ALREADY_USED: esse token já foi utilizado anteriormente")
	case err != nil:
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "token válido: cliente=%s transação=%s\n", tok.ClientEmail, tok.TransactionID)
	return nil
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Recria os dados de demonstração",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()
			if err := seeds.Run(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeds aplicados; token de teste: %s\n", seeds.TokenUnused)
			return nil
		},
	}
}

func botTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "bot-token [nome]",
		Short: "Emite um JWT para o bot do Discord usando BOT_JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := middleware.IssueBotToken(args[0], config.Load().BotJWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Validade do token (0 = sem expiração)")
	return cmd
}
