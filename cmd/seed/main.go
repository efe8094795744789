package main

import (
	"context"

	"github.com/joho/godotenv"

	"pixvip/api/internal/config"
	"pixvip/api/internal/db"
	"pixvip/api/internal/db/seeds"
	"pixvip/api/internal/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	database, err := db.OpenAndMigrate(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		logger.Fatalf("erro ao abrir banco de dados: %v", err)
	}
	defer database.Close()

	logger.Infof("executando seeds...")
	if err := seeds.Run(context.Background(), database); err != nil {
		logger.Fatalf("erro ao executar seeds: %v", err)
	}
	logger.Infof("seeds finalizados com sucesso (token de teste: %s)", seeds.TokenUnused)
}
