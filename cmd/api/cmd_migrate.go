package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/Lelo88/catalog-admin-golang/internal/db"
	"github.com/Lelo88/catalog-admin-golang/internal/logging"
)

// catalog-admin migrate [--print]
func newMigrateCmd(deps appDeps) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := io.WriteString(cmd.OutOrStdout(), db.Schema())
				return err
			}
			return migrate(cmd.Context(), deps)
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}

func migrate(ctx context.Context, deps appDeps) error {
	logger := logging.New(deps.logOutput, "info", "json")

	databaseURL, err := deps.loadDatabaseURL()
	if err != nil {
		return err
	}

	pool, err := deps.newPool(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info().Msg("schema applied")
	return nil
}
