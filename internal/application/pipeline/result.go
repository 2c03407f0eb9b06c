package pipeline

import (
	"time"

	"github.com/glycotrace/glycotrace/pkg/types/common"

	"github.com/glycotrace/glycotrace/internal/config"
	"github.com/glycotrace/glycotrace/internal/domain/fragment"
	"github.com/glycotrace/glycotrace/internal/domain/outlier"
	"github.com/glycotrace/glycotrace/internal/domain/regression"
)

// ModelSummary describes one accepted model in the run output.
type ModelSummary struct {
	// ID is "<scope>/<level>", e.g. "GT1/L2" or "GD_family/L3".
	ID    string              `json:"id"`
	Scope string              `json:"scope"`
	Level common.CascadeLevel `json:"level"`
	// Equation is the fitted formula in raw feature units.
	Equation        string  `json:"equation"`
	Features        []string `json:"features"`
	TrainR2         float64 `json:"train_r2"`
	CVR2            float64 `json:"cv_r2"`
	CVMethod        string  `json:"cv_method"`
	SmallSampleGate bool    `json:"small_sample_gate,omitempty"`
	ResidualStd     float64 `json:"residual_std"`
	AnchorCount     int     `json:"anchor_count"`
	Lambda          float64 `json:"lambda"`
}

func summarize(scope string, level common.CascadeLevel, m *regression.Model) ModelSummary {
	return ModelSummary{
		ID:              m.ID,
		Scope:           scope,
		Level:           level,
		Equation:        m.Equation(),
		Features:        m.Features,
		TrainR2:         m.TrainR2,
		CVR2:            m.CVR2,
		CVMethod:        m.CVMethod,
		SmallSampleGate: m.SmallSampleGate,
		ResidualStd:     m.ResidualStd,
		AnchorCount:     m.AnchorCount,
		Lambda:          m.Lambda,
	}
}

// CompoundResult is the final per-compound verdict.
type CompoundResult struct {
	Name     string  `json:"name"`
	Prefix   string  `json:"prefix"`
	RT       float64 `json:"rt"`
	Volume   float64 `json:"volume"`
	LogP     float64 `json:"log_p"`
	IsAnchor bool    `json:"is_anchor"`

	// ModelID names the model that judged this compound; empty when the
	// cascade exhausted without one.
	ModelID     string              `json:"model_id,omitempty"`
	Level       common.CascadeLevel `json:"level,omitempty"`
	PredictedRT float64             `json:"predicted_rt"`
	Residual    float64             `json:"residual"`
	StdResidual float64             `json:"std_residual"`

	Verdict  outlier.Verdict `json:"verdict"`
	Reasons  []common.Reason `json:"reasons,omitempty"`
	Advisory []common.Reason `json:"advisory,omitempty"`

	// ConsolidatedInto names the parent this compound was folded into as an
	// in-source fragment; empty for standalone compounds and parents.
	ConsolidatedInto string `json:"consolidated_into,omitempty"`
	// Volume after consolidation: parents carry the summed cluster volume.
	ConsolidatedVolume float64 `json:"consolidated_volume,omitempty"`
}

// Result is the immutable outcome of one analysis run.
type Result struct {
	RunID      string        `json:"run_id"`
	Source     string        `json:"source,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Config     config.AnalysisConfig `json:"config"`

	TotalRows    int                `json:"total_rows"`
	Drops        []common.DroppedRow `json:"drops,omitempty"`

	// Compounds lists every surviving compound in ingest order.
	Compounds      []CompoundResult         `json:"compounds"`
	Models         []ModelSummary           `json:"models"`
	Consolidations []fragment.Consolidation `json:"consolidations,omitempty"`
	Warnings       []common.Warning         `json:"warnings,omitempty"`

	// UnclassifiableGroups lists prefixes whose cascade exhausted.
	UnclassifiableGroups []string `json:"unclassifiable_groups,omitempty"`
}

// Valid returns the compounds judged valid, in result order.
func (r *Result) Valid() []CompoundResult {
	return r.filter(outlier.VerdictValid)
}

// Outliers returns the compounds judged outliers, in result order.
func (r *Result) Outliers() []CompoundResult {
	return r.filter(outlier.VerdictOutlier)
}

func (r *Result) filter(v outlier.Verdict) []CompoundResult {
	var out []CompoundResult
	for _, c := range r.Compounds {
		if c.Verdict == v {
			out = append(out, c)
		}
	}
	return out
}

// ModelByID looks up a model summary.
func (r *Result) ModelByID(id string) (ModelSummary, bool) {
	for _, m := range r.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelSummary{}, false
}
