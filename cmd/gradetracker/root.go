package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mind-engage/gradetracker/internal/config"
	"github.com/mind-engage/gradetracker/internal/logging"
)

var version = "dev"

// globals are the persistent flags shared by every subcommand.
type globals struct {
	debug       bool
	logFormat   string
	dbDriver    string
	dbDSN       string
	calibration string
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   "gradetracker",
		Short: "Sync L3VA scores and target grades into the gradebook",
		Long: `gradetracker reads value-added (L3VA) scores for every student on a
tracked course, derives minimum and target achievable grades on the course's
scale, and writes them to a Targets category in the gradebook.`,
		Version:      version,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&g.debug, "debug", false, "Enable debug logging (env TRACKER_DEBUG)")
	pf.StringVar(&g.logFormat, "log-format", logging.FormatText, "Log format: text or json")
	pf.StringVar(&g.dbDriver, "db-driver", "", "Database driver: sqlite or postgres (env DB_DRIVER)")
	pf.StringVar(&g.dbDSN, "db-dsn", "", "Database DSN (env DB_DSN)")
	pf.StringVar(&g.calibration, "calibration", "", "Scale calibration YAML (env CALIBRATION_FILE, default embedded)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if config.FromEnv().Debug {
			g.debug = true
		}
		log, err := logging.New(cmd.ErrOrStderr(), g.logFormat, logging.Level(g.debug))
		if err != nil {
			return err
		}
		slog.SetDefault(log)
		return nil
	}

	cmd.AddCommand(newRunCommand(g))
	cmd.AddCommand(newServeCommand(g))
	cmd.AddCommand(newWipeCommand(g))
	cmd.AddCommand(newPreviewCommand(g))

	return cmd
}

// config layers changed flags over the environment and validates the result.
func (g *globals) config(cmd *cobra.Command) (config.Config, error) {
	cfg := config.FromEnv()
	flags := cmd.Flags()
	if flags.Changed("db-driver") {
		cfg.DBDriver = g.dbDriver
	}
	if flags.Changed("db-dsn") {
		cfg.DBDSN = g.dbDSN
	}
	if flags.Changed("calibration") {
		cfg.CalibrationFile = g.calibration
	}
	if g.debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

func execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}
