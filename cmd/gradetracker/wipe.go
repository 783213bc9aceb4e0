package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mind-engage/gradetracker/internal/db"
	"github.com/mind-engage/gradetracker/pkg/gradebook"
	"github.com/mind-engage/gradetracker/pkg/gradebook/sqlstore"
)

func newWipeCommand(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all tracker categories, columns and grades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("wipe deletes every TAG, L3VA and MAG grade; pass --yes to confirm")
			}
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			drv, err := db.ParseDriver(cfg.DBDriver)
			if err != nil {
				return err
			}
			conn, err := db.Open(cmd.Context(), drv, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("database unavailable: %w", err)
			}
			defer conn.Close()

			res, err := sqlstore.New(conn).Wipe(cmd.Context(), cfg.Category, gradebook.ColumnNames())
			if err != nil {
				return err
			}
			slog.Info("tracker data wiped", "category", cfg.Category,
				"grades", res.Grades, "columns", res.Columns, "categories", res.Categories)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d grades, %d columns, %d categories\n", res.Grades, res.Columns, res.Categories)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
