// Package assay converts plate-reader absorbance into soil POXC concentrations.
//
// Each plate is processed independently: its water blanks are averaged and
// subtracted, its standards fitted to a linear calibration, and its sample
// replicates aggregated and converted with the plate's own calibration. Plate
// and sample failures are reported alongside the results instead of
// aborting the batch.
package assay

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/poxc-cli/internal/model"
)

// Default review thresholds. They flag rows for review and never reject them.
const (
	DefaultMinRSquared  = 0.99
	DefaultMaxCVPercent = 10.0
	DefaultConcurrency  = 4
)

// Input is the fully materialised data for one run.
type Input struct {
	Wells      []model.WellObservation `json:"wells"`
	Masses     []model.SoilMassRecord  `json:"masses"`
	Identities []model.SampleIdentity  `json:"samples"`
}

// Options configures a Pipeline.
type Options struct {
	Labels       Labels
	Concurrency  int
	MinRSquared  float64
	MaxCVPercent float64
}

// Pipeline runs the per-plate calibration and conversion.
type Pipeline struct {
	opts Options
}

// New creates a Pipeline, filling zero options with defaults.
func New(opts Options) *Pipeline {
	if opts.Labels.BlankMarker == "" {
		opts.Labels.BlankMarker = DefaultBlankMarker
	}
	if opts.Labels.StandardSuffix == "" {
		opts.Labels.StandardSuffix = DefaultStandardSuffix
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MinRSquared == 0 {
		opts.MinRSquared = DefaultMinRSquared
	}
	if opts.MaxCVPercent == 0 {
		opts.MaxCVPercent = DefaultMaxCVPercent
	}
	return &Pipeline{opts: opts}
}

// Labels returns the label conventions in use.
func (p *Pipeline) Labels() Labels {
	return p.opts.Labels
}

// Run computes POXC for every sample of every plate in the input.
func (p *Pipeline) Run(ctx context.Context, in Input) (*model.Report, error) {
	return p.run(ctx, in, false)
}

// Calibrate only blank-corrects and fits each plate; the report carries
// calibrations, standards and plate-level skips but no results.
func (p *Pipeline) Calibrate(ctx context.Context, wells []model.WellObservation) (*model.Report, error) {
	return p.run(ctx, Input{Wells: wells}, true)
}

// plateOutcome is everything one plate contributes to the report.
type plateOutcome struct {
	calibration *model.CalibrationDiagnostic
	levels      []model.StandardLevel
	results     []model.ComputedResult
	skipped     []model.Skipped
	warnings    []model.Warning
}

func (p *Pipeline) run(ctx context.Context, in Input, calibrateOnly bool) (*model.Report, error) {
	plates, byPlate := groupByPlate(in.Wells)
	masses := IndexMasses(in.Masses)

	outcomes := make([]plateOutcome, len(plates))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, plateID := range plates {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = p.processPlate(plateID, byPlate[plateID], masses, calibrateOnly)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "assay: run plates")
	}

	report := &model.Report{}
	var results []model.ComputedResult
	for _, o := range outcomes {
		if o.calibration != nil {
			report.Calibrations = append(report.Calibrations, *o.calibration)
		}
		report.Standards = append(report.Standards, o.levels...)
		results = append(results, o.results...)
		report.Skipped = append(report.Skipped, o.skipped...)
		report.Warnings = append(report.Warnings, o.warnings...)
	}

	enriched, leaked := Enrich(results, IndexIdentities(in.Identities), p.opts.Labels)
	report.Results = enriched
	report.Skipped = append(report.Skipped, leaked...)
	sortReport(report)
	return report, nil
}

func (p *Pipeline) processPlate(plateID string, wells []model.WellObservation, masses Masses, calibrateOnly bool) plateOutcome {
	var out plateOutcome
	log := zap.L().With(zap.String("plate_id", plateID))

	blank, err := ComputeBlank(plateID, wells, p.opts.Labels)
	if err != nil {
		log.Warn("assay: plate skipped", zap.String("reason", ReasonOf(err)), zap.Error(err))
		out.skipped = append(out.skipped, skip(plateID, "", err))
		return out
	}

	corrected := Correct(wells, blank, p.opts.Labels)
	standards, samples := SplitStandards(corrected, p.opts.Labels)

	cal, levels, err := Fit(plateID, standards)
	out.levels = levels
	if err != nil {
		log.Warn("assay: plate skipped", zap.String("reason", ReasonOf(err)), zap.Error(err))
		out.skipped = append(out.skipped, skip(plateID, "", err))
		return out
	}
	out.calibration = &model.CalibrationDiagnostic{
		PlateID:         plateID,
		BlankAbsorbance: blank.MeanBlankAbsorbance,
		Slope:           cal.Slope,
		Intercept:       cal.Intercept,
		RSquared:        cal.RSquared,
		Levels:          cal.Levels,
		BelowThreshold:  cal.RSquared < p.opts.MinRSquared,
	}
	log.Debug("assay: plate calibrated",
		zap.Float64("blank", blank.MeanBlankAbsorbance),
		zap.Float64("slope", cal.Slope),
		zap.Float64("intercept", cal.Intercept),
		zap.Float64("r_squared", cal.RSquared),
	)
	if calibrateOnly {
		return out
	}

	groups, warnings := Aggregate(samples)
	out.warnings = warnings
	for _, grp := range groups {
		res, err := Calculate(grp, cal, masses)
		if err != nil {
			log.Warn("assay: sample skipped",
				zap.String("sample_id", grp.SampleID),
				zap.String("reason", ReasonOf(err)),
				zap.Error(err),
			)
			out.skipped = append(out.skipped, skip(plateID, grp.SampleID, err))
			continue
		}
		if res.CVPercent.Valid() {
			res.HighCV = math.Abs(res.CVPercent.Float64()) > p.opts.MaxCVPercent
		}
		out.results = append(out.results, res)
	}
	return out
}

func skip(plateID, sampleID string, err error) model.Skipped {
	return model.Skipped{PlateID: plateID, SampleID: sampleID, Reason: ReasonOf(err), Detail: err.Error()}
}

// groupByPlate partitions wells by plate ID, returning plate IDs sorted.
func groupByPlate(wells []model.WellObservation) ([]string, map[string][]model.WellObservation) {
	byPlate := make(map[string][]model.WellObservation)
	for _, w := range wells {
		byPlate[w.PlateID] = append(byPlate[w.PlateID], w)
	}
	plates := make([]string, 0, len(byPlate))
	for id := range byPlate {
		plates = append(plates, id)
	}
	sort.Strings(plates)
	return plates, byPlate
}

func sortReport(r *model.Report) {
	sort.SliceStable(r.Results, func(i, j int) bool {
		if r.Results[i].PlateID != r.Results[j].PlateID {
			return r.Results[i].PlateID < r.Results[j].PlateID
		}
		return r.Results[i].SampleID < r.Results[j].SampleID
	})
	sort.SliceStable(r.Skipped, func(i, j int) bool {
		if r.Skipped[i].PlateID != r.Skipped[j].PlateID {
			return r.Skipped[i].PlateID < r.Skipped[j].PlateID
		}
		return r.Skipped[i].SampleID < r.Skipped[j].SampleID
	})
}
