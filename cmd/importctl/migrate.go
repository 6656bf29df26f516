package main

import (
	"fmt"

	"github.com/mohammadpnp/identity-import/internal/config"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/db/migrations"
	"github.com/mohammadpnp/identity-import/internal/logging"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var target int64

	cmd := &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Apply or inspect schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "status", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".env", ".env.local")
			if err != nil {
				return err
			}
			log := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

			runner, err := migrations.New(cfg.DatabaseURL, log)
			if err != nil {
				return err
			}

			switch args[0] {
			case "up":
				return runner.Up(cmd.Context())
			case "status":
				return runner.Status(cmd.Context())
			case "down":
				return runner.Down(cmd.Context(), target)
			}
			return fmt.Errorf("unsupported command %q", args[0])
		},
	}

	cmd.Flags().Int64Var(&target, "target", 0, "target version for down (optional)")
	return cmd
}
