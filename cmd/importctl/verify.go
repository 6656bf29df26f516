package main

import (
	app "github.com/mohammadpnp/identity-import/internal/application/user"
	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	infrafile "github.com/mohammadpnp/identity-import/internal/infrastructure/file"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a user file for duplicates and missing fields without touching the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := infrafile.NewLocalSource("").Resolve(file)
			if err != nil {
				return err
			}
			stream, err := source.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer stream.Close()

			report := domain.NewRunReport()
			if _, err := app.NewVerifier().Verify(cmd.Context(), stream, report); err != nil {
				return err
			}
			return printReport(cmd, report)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to a .csv or .xlsx user file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
