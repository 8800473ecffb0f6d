package main

import (
	"fmt"

	"cellendar/internal/config"
	"cellendar/internal/logger"
	"cellendar/internal/repository/postgres"

	"github.com/spf13/cobra"
)

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate up|down",
		Short: "Применить или откатить миграции PostgreSQL",
		Long: `Применяет встроенные миграции к базе из database.url.

Examples:
  cellendar migrate up
  CELLENDAR_DATABASE_URL=postgres://... cellendar migrate down`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(postgres.Up), string(postgres.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("загрузка конфига: %w", err)
			}
			if err := logger.Init(logger.Options{Development: cfg.Logging.Development}); err != nil {
				return fmt.Errorf("инициализация логгера: %w", err)
			}
			defer logger.Sync()

			return postgres.Migrate(cfg.Database.URL, postgres.Direction(args[0]))
		},
	}
}
