package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	app "github.com/mohammadpnp/identity-import/internal/application/user"
	"github.com/mohammadpnp/identity-import/internal/bootstrap"
	"github.com/mohammadpnp/identity-import/internal/config"
	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	infrafile "github.com/mohammadpnp/identity-import/internal/infrastructure/file"
	"github.com/mohammadpnp/identity-import/internal/logging"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newRunCmd() *cobra.Command {
	var (
		file          string
		rootAccountID string
		batchID       string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import a user file synchronously and print the run report",
		RunE: func(cmd *cobra.Command, args []string) error {
			rootAccountID = strings.TrimSpace(rootAccountID)
			if rootAccountID == "" {
				return app.ErrInvalidRootAccount
			}
			batchID = strings.TrimSpace(batchID)

			cfg, err := config.Load(".env", ".env.local")
			if err != nil {
				return err
			}
			log := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

			source, err := infrafile.NewLocalSource("").Resolve(file)
			if err != nil {
				return err
			}

			db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			pool, err := pgxpool.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("create pgx pool: %w", err)
			}
			defer pool.Close()

			importer := bootstrap.NewImporter(cfg, db, pool, nil, log)
			report, err := importer.Run(cmd.Context(), source, domain.RunContext{
				RootAccountID: rootAccountID,
				BatchID:       batchID,
			}, func(processed int64) {
				log.Info("import progress", "processed", processed)
			})
			if report != nil {
				if printErr := printReport(cmd, report); printErr != nil {
					return printErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to a .csv or .xlsx user file")
	cmd.Flags().StringVar(&rootAccountID, "root-account", "", "root account the logins belong to")
	cmd.Flags().StringVar(&batchID, "batch-id", "", "batch identifier stamped on touched records")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("root-account")

	return cmd
}

func printReport(cmd *cobra.Command, report *domain.RunReport) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
