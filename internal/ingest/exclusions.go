package ingest

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/poxc-cli/internal/model"
)

// Exclusions holds reviewer well annotations, keyed by plate.
//
//	plates:
//	  20230601A:
//	    excluded: [B3, C7]
//	    unknown: [D1]
type Exclusions struct {
	Plates map[string]PlateExclusions `yaml:"plates"`
}

// PlateExclusions lists wells flagged on one plate.
type PlateExclusions struct {
	Excluded []string `yaml:"excluded"`
	Unknown  []string `yaml:"unknown"`
}

// LoadExclusions reads an exclusions YAML file.
func LoadExclusions(path string) (*Exclusions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read exclusions %s", path)
	}
	var ex Exclusions
	if err := yaml.Unmarshal(data, &ex); err != nil {
		return nil, eris.Wrapf(err, "ingest: parse exclusions %s", path)
	}
	return &ex, nil
}

// Flag returns the annotated flag for a well, if any. Excluded wins over
// unknown when a well is listed twice.
func (e *Exclusions) Flag(plateID, wellID string) (model.QualityFlag, bool) {
	if e == nil {
		return "", false
	}
	p, ok := e.Plates[plateID]
	if !ok {
		return "", false
	}
	for _, w := range p.Excluded {
		if w == wellID {
			return model.QualityExcluded, true
		}
	}
	for _, w := range p.Unknown {
		if w == wellID {
			return model.QualityUnknown, true
		}
	}
	return "", false
}

// Apply returns a copy of wells with annotated flags overriding the table's
// own quality column.
func (e *Exclusions) Apply(wells []model.WellObservation) []model.WellObservation {
	out := make([]model.WellObservation, len(wells))
	for i, w := range wells {
		if q, ok := e.Flag(w.PlateID, w.WellID); ok {
			w.Quality = q
		}
		out[i] = w
	}
	return out
}
