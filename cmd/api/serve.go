package main

import (
	"context"
	"fmt"

	"cellendar/internal/app"
	"cellendar/internal/config"

	"github.com/spf13/cobra"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API и доставку уведомлений",
		Long: `Запускает HTTP API и воркер доставки уведомлений.

Конфигурация читается из файла (--config), .env и переменных окружения CELLENDAR_*.

Examples:
  cellendar serve
  cellendar serve --config /etc/cellendar/config.yml
  CELLENDAR_REPOSITORY_TYPE=postgres cellendar serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("загрузка конфига: %w", err)
	}

	a, err := app.New(cfg).Init(ctx)
	if err != nil {
		return fmt.Errorf("инициализация приложения: %w", err)
	}
	return a.Run(ctx)
}
