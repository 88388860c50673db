package main

import (
	"errors"

	"quashMarket/internal/config"
	"quashMarket/internal/logger"
	"quashMarket/internal/migrations"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Миграции схемы postgres",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Применить все миграции",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, err := databaseURL(cmd)
		if err != nil {
			return err
		}
		return migrations.Up(dbURL)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Откатить миграции",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := cmd.Flags().GetInt("steps")
		if err != nil {
			return err
		}
		dbURL, err := databaseURL(cmd)
		if err != nil {
			return err
		}
		return migrations.Down(dbURL, steps)
	},
}

func databaseURL(cmd *cobra.Command) (string, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return "", err
	}
	if err := logger.Init(true, ""); err != nil {
		return "", err
	}
	if cfg.Database.URL == "" {
		return "", errors.New("database.url не задан")
	}
	return cfg.Database.URL, nil
}

func init() {
	migrateDownCmd.Flags().Int("steps", 1, "число откатываемых миграций, 0 - все")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
