package regression

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/glycotrace/glycotrace/internal/domain/compound"
)

// Canonical feature names.  Order in candidateOrder doubles as selection
// priority: log_p is mandatory and always survives pruning.
const (
	FeatLogP         = "log_p"
	FeatCarbonCount  = "carbon_count"
	FeatUnsaturation = "unsaturation"
	FeatOxygenCount  = "oxygen_count"
	FeatTotalSugars  = "total_sugars"
	FeatSialicAcids  = "sialic_acids"
	FeatHasDHex      = "has_dhex"
	FeatHasHexNAc    = "has_hexnac"
	FeatOAcCount     = "oac_count"
)

var candidateOrder = []string{
	FeatLogP,
	FeatCarbonCount,
	FeatUnsaturation,
	FeatOxygenCount,
	FeatTotalSugars,
	FeatSialicAcids,
	FeatHasDHex,
	FeatHasHexNAc,
	FeatOAcCount,
}

// FeatureValue extracts the named feature from a compound record.  Unknown
// names yield zero; the selector only emits names from candidateOrder.
func FeatureValue(r *compound.Record, name string) float64 {
	switch name {
	case FeatLogP:
		return r.LogP
	case FeatCarbonCount:
		return float64(r.CarbonCount)
	case FeatUnsaturation:
		return float64(r.Unsaturation)
	case FeatOxygenCount:
		return float64(r.OxygenCount)
	case FeatTotalSugars:
		return float64(r.TotalSugars())
	case FeatSialicAcids:
		return float64(r.Sugars.SialicAcids)
	case FeatHasDHex:
		if r.Mods.DHex > 0 {
			return 1
		}
		return 0
	case FeatHasHexNAc:
		if r.Mods.HexNAc > 0 {
			return 1
		}
		return 0
	case FeatOAcCount:
		return float64(r.Mods.OAc)
	}
	return 0
}

// FeatureRows builds one raw feature vector per record index, aligned with
// features.
func FeatureRows(records []compound.Record, idx []int, features []string) [][]float64 {
	rows := make([][]float64, len(idx))
	for i, ri := range idx {
		row := make([]float64, len(features))
		for j, name := range features {
			row[j] = FeatureValue(&records[ri], name)
		}
		rows[i] = row
	}
	return rows
}

// SelectorOptions controls adaptive feature selection.
type SelectorOptions struct {
	// Extended enables the structural features beyond log_p.
	Extended bool
	// MaxFeatureFraction caps the feature count at this fraction of the
	// sample size (at least one feature is always kept).
	MaxFeatureFraction float64
	// CorrelationPrune drops the later of any feature pair whose absolute
	// pairwise correlation exceeds this value.
	CorrelationPrune float64
}

// SelectFeatures chooses the feature set for a group of anchor records.
// log_p is always first and never pruned.  Zero-variance candidates are
// skipped, highly collinear candidates are pruned in priority order, and the
// surviving list is truncated to the sample-size cap.
func SelectFeatures(records []compound.Record, idx []int, opts SelectorOptions) []string {
	n := len(idx)
	selected := []string{FeatLogP}
	if !opts.Extended || n < 3 {
		return selected
	}

	cols := map[string][]float64{
		FeatLogP: featureColumn(records, idx, FeatLogP),
	}
	for _, name := range candidateOrder[1:] {
		col := featureColumn(records, idx, name)
		if columnStd(col) == 0 {
			continue
		}
		collinear := false
		for _, kept := range selected {
			r := stat.Correlation(col, cols[kept], nil)
			if math.Abs(r) > opts.CorrelationPrune {
				collinear = true
				break
			}
		}
		if collinear {
			continue
		}
		selected = append(selected, name)
		cols[name] = col
	}

	maxFeatures := int(opts.MaxFeatureFraction * float64(n))
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	if len(selected) > maxFeatures {
		selected = selected[:maxFeatures]
	}
	return selected
}

func featureColumn(records []compound.Record, idx []int, name string) []float64 {
	col := make([]float64, len(idx))
	for i, ri := range idx {
		col[i] = FeatureValue(&records[ri], name)
	}
	return col
}

func columnStd(col []float64) float64 {
	if len(col) < 2 {
		return 0
	}
	return math.Sqrt(stat.Variance(col, nil))
}

// DistinctLogP reports how many distinct log P values the indexed records
// carry.  A fit needs at least two.
func DistinctLogP(records []compound.Record, idx []int) int {
	seen := make(map[float64]struct{}, len(idx))
	for _, ri := range idx {
		seen[records[ri].LogP] = struct{}{}
	}
	return len(seen)
}
