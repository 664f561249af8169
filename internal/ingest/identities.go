package ingest

import (
	"context"

	"github.com/sells-group/poxc-cli/internal/model"
	"github.com/sells-group/poxc-cli/internal/sheet"
)

// LoadIdentities reads a sample identity table (Input C).
func LoadIdentities(ctx context.Context, path string) ([]model.SampleIdentity, error) {
	t, err := sheet.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParseIdentities(t)
}

// ParseIdentities converts identity rows into sample-name records.
func ParseIdentities(t *sheet.Table) ([]model.SampleIdentity, error) {
	cols := mapColumns(t.Header)
	sampleIdx, err := cols.require(t, "sample_id", "sample")
	if err != nil {
		return nil, err
	}
	nameIdx, err := cols.require(t, "display_name", "name", "sample_name")
	if err != nil {
		return nil, err
	}

	out := make([]model.SampleIdentity, 0, len(t.Rows))
	for _, row := range t.Rows {
		id := cell(row, sampleIdx)
		if id == "" {
			continue
		}
		out = append(out, model.SampleIdentity{SampleID: id, DisplayName: cell(row, nameIdx)})
	}
	return out, nil
}
