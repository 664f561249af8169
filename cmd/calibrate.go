package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/poxc-cli/internal/export"
)

// calibrateOptions carries the calibrate flags.
type calibrateOptions struct {
	Wells      string
	Exclusions string
	Output     string
	Standards  string
	Format     string
}

var calibrateOpts calibrateOptions

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Fit per-plate calibrations without computing samples",
	Long:  "Blank-corrects each plate and fits its standard curve, printing the calibration diagnostics and standard levels for review.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCalibrate(cmd.Context(), calibrateOpts, os.Stdout)
	},
}

func runCalibrate(ctx context.Context, opts calibrateOptions, stdout io.Writer) error {
	format, err := resolveFormat(opts.Format, opts.Output)
	if err != nil {
		return err
	}

	wells, err := loadWells(ctx, opts.Wells, opts.Exclusions)
	if err != nil {
		return eris.Wrap(err, "calibrate: load wells")
	}

	report, err := newPipeline(0).Calibrate(ctx, wells)
	if err != nil {
		return eris.Wrap(err, "calibrate")
	}
	zap.L().Info("calibrate complete",
		zap.Int("calibrated", len(report.Calibrations)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Strings("flagged_plates", report.FlaggedPlates()),
	)

	w := &export.Writer{Format: format, Stdout: stdout}
	if err := w.Diagnostics(opts.Output, report); err != nil {
		return err
	}
	if opts.Standards == "" {
		return nil
	}
	stdFormat, err := resolveFormat(opts.Format, opts.Standards)
	if err != nil {
		return err
	}
	sw := &export.Writer{Format: stdFormat, Stdout: stdout}
	return sw.Standards(opts.Standards, report.Standards)
}

func init() {
	f := calibrateCmd.Flags()
	f.StringVar(&calibrateOpts.Wells, "wells", "", "well absorbance table (.csv, .tsv or .xlsx)")
	f.StringVar(&calibrateOpts.Exclusions, "exclusions", "", "well exclusion annotations (YAML)")
	f.StringVar(&calibrateOpts.Output, "output", "", "diagnostics file (default stdout)")
	f.StringVar(&calibrateOpts.Standards, "standards", "", "standard-level table file")
	f.StringVar(&calibrateOpts.Format, "format", "", "output format: csv, xlsx or json (default from file extension)")
	_ = calibrateCmd.MarkFlagRequired("wells")

	rootCmd.AddCommand(calibrateCmd)
}
