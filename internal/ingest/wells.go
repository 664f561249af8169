package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/poxc-cli/internal/model"
	"github.com/sells-group/poxc-cli/internal/sheet"
)

// LoadWells reads a well table (Input A) from a CSV or XLSX file.
func LoadWells(ctx context.Context, path string) ([]model.WellObservation, error) {
	t, err := sheet.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParseWells(t)
}

// ParseWells converts well-table rows into observations. Rows without a
// sample label are unused wells and are skipped.
func ParseWells(t *sheet.Table) ([]model.WellObservation, error) {
	cols := mapColumns(t.Header)
	plateIdx, err := cols.require(t, "plate_id", "plate")
	if err != nil {
		return nil, err
	}
	wellIdx, err := cols.require(t, "well_id", "well")
	if err != nil {
		return nil, err
	}
	sampleIdx, err := cols.require(t, "sample_id", "sample_label", "sample", "label")
	if err != nil {
		return nil, err
	}
	absIdx, err := cols.require(t, "absorbance", "abs", "od")
	if err != nil {
		return nil, err
	}
	flagIdx, _ := cols.find("quality_flag", "flag", "quality")

	wells := make([]model.WellObservation, 0, len(t.Rows))
	var unused int
	for i, row := range t.Rows {
		sample := cell(row, sampleIdx)
		if sample == "" {
			unused++
			continue
		}
		plate := cell(row, plateIdx)
		if plate == "" {
			return nil, eris.Errorf("ingest: %s line %d: empty plate_id", t.Source, t.Line(i))
		}
		abs, err := parseFloat(t, i, "absorbance", cell(row, absIdx))
		if err != nil {
			return nil, err
		}
		wells = append(wells, model.WellObservation{
			PlateID:       plate,
			WellID:        cell(row, wellIdx),
			SampleID:      sample,
			RawAbsorbance: abs,
			Quality:       model.ParseQualityFlag(cell(row, flagIdx)),
		})
	}

	zap.L().Debug("ingest: wells parsed",
		zap.String("source", t.Source),
		zap.Int("wells", len(wells)),
		zap.Int("unused", unused),
	)
	return wells, nil
}
