package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "quash",
	Short:         "Биржа задач: задачи, предложения, исполнители",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "путь к config.yml")
	rootCmd.PersistentFlags().String("database-url", "", "строка подключения к postgres")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Ошибка:", err)
		os.Exit(1)
	}
}
