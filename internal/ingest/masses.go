package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/poxc-cli/internal/model"
	"github.com/sells-group/poxc-cli/internal/sheet"
)

// LoadMasses reads a soil mass table (Input B) from a CSV or XLSX file.
func LoadMasses(ctx context.Context, path string) ([]model.SoilMassRecord, error) {
	t, err := sheet.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParseMasses(t)
}

// ParseMasses converts mass-table rows into records. The mass column may be
// mass_kg or mass_g; grams are converted to kilograms.
func ParseMasses(t *sheet.Table) ([]model.SoilMassRecord, error) {
	cols := mapColumns(t.Header)
	sampleIdx, err := cols.require(t, "sample_id", "sample")
	if err != nil {
		return nil, err
	}
	dateIdx, err := cols.require(t, "run_date", "date")
	if err != nil {
		return nil, err
	}

	scale := 1.0
	massCol := "mass_kg"
	massIdx, ok := cols.find("mass_kg", "mass")
	if !ok {
		massIdx, ok = cols.find("mass_g", "weight_g")
		scale, massCol = 0.001, "mass_g"
	}
	if !ok {
		return nil, eris.Errorf("ingest: %s: missing column mass_kg (accepted: mass_kg, mass, mass_g, weight_g)", t.Source)
	}

	seen := make(map[model.MassKey]bool)
	records := make([]model.SoilMassRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		sample := cell(row, sampleIdx)
		if sample == "" {
			continue
		}
		date, err := model.NormalizeRunDate(cell(row, dateIdx))
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: %s line %d", t.Source, t.Line(i))
		}
		mass, err := parseFloat(t, i, massCol, cell(row, massIdx))
		if err != nil {
			return nil, err
		}

		key := model.MassKey{SampleID: sample, RunDate: date}
		if seen[key] {
			zap.L().Warn("ingest: duplicate soil mass, later row wins",
				zap.String("source", t.Source),
				zap.String("sample_id", sample),
				zap.String("run_date", date),
				zap.Int("line", t.Line(i)),
			)
		}
		seen[key] = true
		records = append(records, model.SoilMassRecord{SampleID: sample, RunDate: date, MassKg: mass * scale})
	}
	return records, nil
}
