package main

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/poxc-cli/internal/assay"
	"github.com/sells-group/poxc-cli/internal/export"
	"github.com/sells-group/poxc-cli/internal/ingest"
	"github.com/sells-group/poxc-cli/internal/model"
)

// newPipeline builds an assay pipeline from the loaded config. A positive
// concurrency overrides batch.concurrency.
func newPipeline(concurrency int) *assay.Pipeline {
	if concurrency <= 0 {
		concurrency = cfg.Batch.Concurrency
	}
	return assay.New(assay.Options{
		Labels: assay.Labels{
			BlankMarker:    cfg.Assay.BlankMarker,
			StandardSuffix: cfg.Assay.StandardSuffix,
		},
		Concurrency:  concurrency,
		MinRSquared:  cfg.Review.MinRSquared,
		MaxCVPercent: cfg.Review.MaxCVPercent,
	})
}

// inputPaths names the files a run reads.
type inputPaths struct {
	Wells      string
	Masses     string
	Samples    string
	Exclusions string
}

// asMap returns the non-empty paths keyed by flag name, for the run archive.
func (p inputPaths) asMap() map[string]string {
	m := make(map[string]string)
	for k, v := range map[string]string{
		"wells":      p.Wells,
		"masses":     p.Masses,
		"samples":    p.Samples,
		"exclusions": p.Exclusions,
	} {
		if v != "" {
			m[k] = v
		}
	}
	return m
}

// loadWells reads the well table and applies reviewer exclusions, if any.
func loadWells(ctx context.Context, wellsPath, exclusionsPath string) ([]model.WellObservation, error) {
	wells, err := ingest.LoadWells(ctx, wellsPath)
	if err != nil {
		return nil, err
	}
	if exclusionsPath == "" {
		return wells, nil
	}
	ex, err := ingest.LoadExclusions(exclusionsPath)
	if err != nil {
		return nil, err
	}
	return ex.Apply(wells), nil
}

// loadInput reads the three input tables concurrently.
func loadInput(ctx context.Context, paths inputPaths) (assay.Input, error) {
	var in assay.Input
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wells, err := loadWells(gCtx, paths.Wells, paths.Exclusions)
		in.Wells = wells
		return err
	})
	g.Go(func() error {
		masses, err := ingest.LoadMasses(gCtx, paths.Masses)
		in.Masses = masses
		return err
	})
	if paths.Samples != "" {
		g.Go(func() error {
			ids, err := ingest.LoadIdentities(gCtx, paths.Samples)
			in.Identities = ids
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return assay.Input{}, err
	}
	return in, nil
}

// resolveFormat picks the output format from the flag, else the file
// extension. Stdout defaults to JSON.
func resolveFormat(flag, path string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if path == "" || path == "-" {
		return export.FormatJSON, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return export.FormatXLSX, nil
	case ".json":
		return export.FormatJSON, nil
	}
	return export.FormatCSV, nil
}
