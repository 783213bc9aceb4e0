package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newRunCommand(g *globals) *cobra.Command {
	var (
		courseID  int64
		token     string
		reportDir string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sync every tracked course once",
		Long: `Run walks every course whose idnumber carries a tracked tag, makes sure
the Targets category and its TAG, L3VA and MAG columns exist, then fetches each
enrolled student's L3VA and writes the derived grades. TAG is written once and
never revised.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("token") {
				cfg.TrackerToken = token
			}
			if err := cfg.RequireToken(); err != nil {
				return err
			}
			if cmd.Flags().Changed("report-dir") {
				cfg.ReportDir = reportDir
			}

			t, err := openTracker(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer t.Close()

			sum, err := t.syncer.Run(cmd.Context(), courseID)
			if sum != nil {
				sum.Print(cmd.OutOrStdout())
			}
			loc, aerr := t.archive(cmd.Context(), sum)
			if aerr != nil {
				slog.Warn("summary not archived", "err", aerr)
			} else if loc != "" {
				slog.Info("summary archived", "path", loc)
			}
			return err
		},
	}
	cmd.Flags().Int64Var(&courseID, "course", 0, "Only sync this course id")
	cmd.Flags().StringVar(&token, "token", "", "Leap API token (env TRACKER_TOKEN)")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Archive each run summary as JSON under this directory (env TRACKER_REPORT_DIR)")
	return cmd
}
