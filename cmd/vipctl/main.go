package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pixvip/api/internal/config"
	"pixvip/api/internal/db"
	"pixvip/api/internal/logger"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vipctl",
		Short: "Operações manuais sobre pagamentos PIX e acessos VIP",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetLevel(config.Load().LogLevel)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(redeemCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(botTokenCmd())
	return rootCmd
}

func openDB() (*db.DB, error) {
	cfg := config.Load()
	return db.OpenAndMigrate(cfg.DatabaseDriver, cfg.DSN())
}
