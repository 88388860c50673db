package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"quashMarket/internal/app"
	"quashMarket/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP API",
	Long:  "Запускает HTTP API, диспетчер событий аудита и фоновую проверку предложений",
	RunE: func(cmd *cobra.Command, args []string) error {
		// .env не обязателен
		_ = godotenv.Load()

		cfg, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("невалидная конфигурация: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application := app.New(cfg)
		if err := application.Init(ctx); err != nil {
			application.Close()
			return err
		}
		return application.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "порт HTTP сервера")
	serveCmd.Flags().String("repository", "", "тип хранилища: postgres или inmemory")
	serveCmd.Flags().Bool("log-dev", false, "режим разработки для логов")
	rootCmd.AddCommand(serveCmd)
}
