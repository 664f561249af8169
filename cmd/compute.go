package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/poxc-cli/internal/export"
	"github.com/sells-group/poxc-cli/internal/model"
	"github.com/sells-group/poxc-cli/internal/store"
)

// computeOptions carries the compute flags.
type computeOptions struct {
	Paths       inputPaths
	Output      string
	Diagnostics string
	Skipped     string
	Format      string
	Concurrency int
	Archive     bool
}

var computeOpts computeOptions

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute POXC for every sample on every plate",
	Long: `Runs blank correction, per-plate calibration, replicate aggregation and the
POXC conversion over a well table, a soil mass table and an optional sample
name table.

Plates or samples that cannot be computed are reported in the skipped table
and never abort the batch. CSV results are accompanied by a skipped table
(results.skipped.csv next to results.csv unless --skipped is given) that also
lists data-quality warnings.

Examples:
  poxc compute --wells wells.csv --masses masses.csv --output results.csv
  poxc compute --wells plates.xlsx --masses masses.csv --samples names.csv \
    --exclusions bad_wells.yaml --output results.xlsx --archive`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCompute(cmd.Context(), computeOpts, os.Stdout, os.Stderr)
	},
}

func runCompute(ctx context.Context, opts computeOptions, stdout, stderr io.Writer) error {
	format, err := resolveFormat(opts.Format, opts.Output)
	if err != nil {
		return err
	}

	in, err := loadInput(ctx, opts.Paths)
	if err != nil {
		return eris.Wrap(err, "compute: load input")
	}

	report, err := newPipeline(opts.Concurrency).Run(ctx, in)
	if err != nil {
		return eris.Wrap(err, "compute")
	}
	logSummary(report)

	w := &export.Writer{Format: format, Stdout: stdout}
	if err := w.Results(opts.Output, report); err != nil {
		return err
	}
	if err := writeIssues(opts, format, stdout, report); err != nil {
		return err
	}
	if opts.Diagnostics != "" {
		diagFormat, err := resolveFormat(opts.Format, opts.Diagnostics)
		if err != nil {
			return err
		}
		dw := &export.Writer{Format: diagFormat, Stdout: stdout}
		if err := dw.Diagnostics(opts.Diagnostics, report); err != nil {
			return err
		}
	}

	if opts.Archive {
		id, err := archiveRun(ctx, opts.Paths, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Archived run %s\n", id)
	}
	return nil
}

// writeIssues writes skipped entries and warnings. XLSX and JSON results
// already carry them, so an issues file is derived only for CSV results.
func writeIssues(opts computeOptions, resultsFormat export.Format, stdout io.Writer, report *model.Report) error {
	path := opts.Skipped
	if path == "" {
		if resultsFormat != export.FormatCSV {
			return nil
		}
		path = export.IssuesPath(opts.Output)
		if path == "" {
			return nil
		}
	}
	format, err := resolveFormat(opts.Format, path)
	if err != nil {
		return err
	}
	w := &export.Writer{Format: format, Stdout: stdout}
	return w.Issues(path, report)
}

func archiveRun(ctx context.Context, paths inputPaths, report *model.Report) (string, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return "", err
	}
	defer st.Close() //nolint:errcheck

	run := &model.Run{Inputs: paths.asMap(), Report: report}
	if err := st.SaveRun(ctx, run); err != nil {
		return "", eris.Wrap(err, "compute: archive run")
	}
	zap.L().Info("run archived", zap.String("run_id", run.ID), zap.String("driver", cfg.Store.Driver))
	return run.ID, nil
}

func logSummary(r *model.Report) {
	plates := make(map[string]bool)
	for _, c := range r.Calibrations {
		plates[c.PlateID] = true
	}
	for _, s := range r.Skipped {
		plates[s.PlateID] = true
	}
	zap.L().Info("compute complete",
		zap.Int("plates", len(plates)),
		zap.Int("calibrated", len(r.Calibrations)),
		zap.Int("results", len(r.Results)),
		zap.Int("skipped", len(r.Skipped)),
		zap.Int("warnings", len(r.Warnings)),
		zap.Strings("flagged_plates", r.FlaggedPlates()),
		zap.Any("skipped_by_reason", r.SkippedByReason()),
	)
}

func init() {
	f := computeCmd.Flags()
	f.StringVar(&computeOpts.Paths.Wells, "wells", "", "well absorbance table (.csv, .tsv or .xlsx)")
	f.StringVar(&computeOpts.Paths.Masses, "masses", "", "soil mass table")
	f.StringVar(&computeOpts.Paths.Samples, "samples", "", "sample name table (optional)")
	f.StringVar(&computeOpts.Paths.Exclusions, "exclusions", "", "well exclusion annotations (YAML)")
	f.StringVar(&computeOpts.Output, "output", "", "results file (default stdout)")
	f.StringVar(&computeOpts.Diagnostics, "diagnostics", "", "calibration diagnostics file")
	f.StringVar(&computeOpts.Skipped, "skipped", "", "skipped plates/samples and warnings file (default <output>.skipped.csv for CSV results)")
	f.StringVar(&computeOpts.Format, "format", "", "output format: csv, xlsx or json (default from file extension)")
	f.IntVar(&computeOpts.Concurrency, "concurrency", 0, "plates processed at once (default from config)")
	f.BoolVar(&computeOpts.Archive, "archive", false, "save the run to the configured store")
	_ = computeCmd.MarkFlagRequired("wells")
	_ = computeCmd.MarkFlagRequired("masses")

	rootCmd.AddCommand(computeCmd)
}
