package assay

import (
	"fmt"
	"sort"

	"github.com/sells-group/poxc-cli/internal/model"
)

// Aggregate groups sample wells by (plate, sample) and summarises their
// replicates. Excluded wells are dropped before averaging. Groups left with
// no replicates, or a single one, are still returned with the undefined
// statistics missing, and a warning for each.
func Aggregate(obs []model.CorrectedObservation) ([]model.SampleGroup, []model.Warning) {
	type key struct{ plate, sample string }
	values := make(map[key][]float64)
	excluded := make(map[key]int)
	var order []key

	for _, o := range obs {
		k := key{o.PlateID, o.SampleID}
		if _, seen := values[k]; !seen {
			values[k] = nil
			order = append(order, k)
		}
		if o.Quality == model.QualityExcluded {
			excluded[k]++
			continue
		}
		values[k] = append(values[k], o.AdjustedAbsorbance)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].plate != order[j].plate {
			return order[i].plate < order[j].plate
		}
		return order[i].sample < order[j].sample
	})

	groups := make([]model.SampleGroup, 0, len(order))
	var warnings []model.Warning
	for _, k := range order {
		abs := values[k]
		g := model.SampleGroup{PlateID: k.plate, SampleID: k.sample, Replicates: len(abs)}

		switch len(abs) {
		case 0:
			warnings = append(warnings, model.Warning{
				PlateID:  k.plate,
				SampleID: k.sample,
				Reason:   ReasonUndefinedAggregate,
				Detail:   fmt.Sprintf("all %d replicates excluded", excluded[k]),
			})
		case 1:
			g.MeanAbsorbance = model.NewFloat(abs[0])
			warnings = append(warnings, model.Warning{
				PlateID:  k.plate,
				SampleID: k.sample,
				Reason:   ReasonUndefinedAggregate,
				Detail:   "single replicate, dispersion undefined",
			})
		default:
			m := mean(abs)
			sd, _ := sampleStdev(abs, m)
			g.MeanAbsorbance = model.NewFloat(m)
			g.StdevAbsorbance = model.NewFloat(sd)
			g.CVPercent = model.NewFloat(cvPercent(sd, m))
		}
		groups = append(groups, g)
	}
	return groups, warnings
}
