package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/gradetracker/internal/config"
	"github.com/mind-engage/gradetracker/internal/grading"
	"github.com/mind-engage/gradetracker/pkg/gradebook"
)

func newPreviewCommand(g *globals) *cobra.Command {
	var (
		courseType string
		score      string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the grades a score would produce for a course type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.FromEnv().CalibrationFile
			if cmd.Flags().Changed("calibration") {
				path = g.calibration
			}
			scales, err := config.LoadScales(path)
			if err != nil {
				return err
			}
			p, err := gradebook.NewPreview(scales, courseType, score)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			fmt.Fprintf(out, "Course type: %s\n", p.CourseType)
			fmt.Fprintf(out, "Scale:       %s (%s)\n", p.Scale.Name, p.Scale.Kind)
			if c := p.Scale.Calibration; c != nil {
				fmt.Fprintf(out, "Calibration: %g * l3va - %g\n", c.Slope, c.Intercept)
			}
			fmt.Fprintf(out, "L3VA:        %s\n", grading.FormatScore(p.Computed.Raw))
			fmt.Fprintf(out, "MAG:         %s [adjusted %s]\n", p.Computed.Minimum, grading.FormatScore(p.Computed.Minimum.Adjusted))
			fmt.Fprintf(out, "TAG:         %s [adjusted %s]\n", p.Computed.Target, grading.FormatScore(p.Computed.Target.Adjusted))
			return nil
		},
	}
	cmd.Flags().StringVar(&courseType, "type", "", "Course type tag, e.g. leapcore_a2_biology or BTEC")
	cmd.Flags().StringVar(&score, "score", "", "Raw L3VA score")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}
