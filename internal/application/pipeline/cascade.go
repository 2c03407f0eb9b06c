package pipeline

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/glycotrace/glycotrace/pkg/errors"
	"github.com/glycotrace/glycotrace/pkg/types/common"

	"github.com/glycotrace/glycotrace/internal/config"
	"github.com/glycotrace/glycotrace/internal/domain/assumption"
	"github.com/glycotrace/glycotrace/internal/domain/compound"
	"github.com/glycotrace/glycotrace/internal/domain/outlier"
	"github.com/glycotrace/glycotrace/internal/domain/regression"
	"github.com/glycotrace/glycotrace/internal/infrastructure/monitoring/logging"
	"github.com/glycotrace/glycotrace/internal/infrastructure/monitoring/prometheus"
)

// globalScope is the scope name of the L4 fallback model.
const globalScope = "Overall"

// groupOutcome is the cascade's verdict for one prefix group.
type groupOutcome struct {
	prefix   string
	indices  []int
	accepted bool
	level    common.CascadeLevel
	scope    string
	model    *regression.Model
	// classifications align with indices.
	classifications []outlier.Classification
	// notes records why earlier levels were skipped or rejected.
	notes    []string
	warnings []common.Warning
}

// scopedFit caches a pooled model (family or global) together with the
// classification of every compound in its scope, so each requesting group
// shares one fit and one residual population.
type scopedFit struct {
	model    *regression.Model
	byIndex  map[int]outlier.Classification
	warnings []common.Warning
	accepted bool
	note     string
}

// cascade walks each prefix group through the four modeling levels: strict
// per-prefix, relaxed per-prefix, family pooling, and the global fallback.
// Escalation happens only on infeasibility or a failed acceptance gate, and
// per-group failures never abort the run.
type cascade struct {
	cfg      config.AnalysisConfig
	records  []compound.Record
	groups   map[string][]int
	families *compound.FamilyMap
	log      logging.Logger
	metrics  *prometheus.PipelineMetrics

	familyFits map[string]*scopedFit
	globalOnce *scopedFit
}

func newCascade(cfg config.AnalysisConfig, records []compound.Record, log logging.Logger, metrics *prometheus.PipelineMetrics) *cascade {
	return &cascade{
		cfg:        cfg,
		records:    records,
		groups:     compound.GroupByPrefix(records),
		families:   compound.NewFamilyMap(cfg.FamilyOverrides),
		log:        log.Named("cascade"),
		metrics:    metrics,
		familyFits: make(map[string]*scopedFit),
	}
}

// run resolves every prefix group in deterministic order.  The only error it
// returns is cancellation; everything else degrades into per-group outcomes.
func (c *cascade) run(ctx context.Context) ([]groupOutcome, error) {
	prefixes := compound.SortedPrefixes(c.groups)
	outcomes := make([]groupOutcome, 0, len(prefixes))
	for _, prefix := range prefixes {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewCode(apperrors.ErrCodeCancelled).WithCause(err)
		}
		out, err := c.resolveGroup(ctx, prefix, c.groups[prefix])
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (c *cascade) resolveGroup(ctx context.Context, prefix string, idx []int) (groupOutcome, error) {
	out := groupOutcome{prefix: prefix, indices: idx}
	anchors := anchorIndices(c.records, idx)

	for _, level := range common.AllCascadeLevels() {
		if err := ctx.Err(); err != nil {
			return out, apperrors.NewCode(apperrors.ErrCodeCancelled).WithCause(err)
		}

		switch level {
		case common.LevelPrefixStrict, common.LevelPrefixRelaxed:
			min := c.cfg.MinAnchorsL2
			if level == common.LevelPrefixStrict {
				min = c.cfg.MinAnchorsL1
			}
			if len(anchors) < min {
				out.notes = append(out.notes,
					fmt.Sprintf("%s: %d anchors, need %d", level, len(anchors), min))
				continue
			}
			m, cs, warns, note := c.attemptDirect(prefix, level, anchors, idx)
			if note != "" {
				out.notes = append(out.notes, note)
				continue
			}
			out.accepted = true
			out.level = level
			out.scope = prefix
			out.model = m
			out.classifications = cs
			out.warnings = warns

		case common.LevelFamily:
			family, ok := c.families.FamilyFor(prefix)
			if !ok {
				out.notes = append(out.notes, fmt.Sprintf("%s: no family mapping", level))
				continue
			}
			ff := c.familyFit(family)
			if !ff.accepted {
				out.notes = append(out.notes, fmt.Sprintf("%s: %s", level, ff.note))
				continue
			}
			out.accepted = true
			out.level = level
			out.scope = family
			out.model = ff.model
			out.classifications = pick(ff.byIndex, idx)
			out.warnings = ff.warnings

		case common.LevelGlobal:
			gf := c.globalFit()
			if !gf.accepted {
				out.notes = append(out.notes, fmt.Sprintf("%s: %s", level, gf.note))
				continue
			}
			out.accepted = true
			out.level = level
			out.scope = globalScope
			out.model = gf.model
			out.classifications = pick(gf.byIndex, idx)
			out.warnings = gf.warnings
		}
		if out.accepted {
			break
		}
	}

	if !out.accepted {
		c.metrics.GroupsUnclassifiable.Inc()
		out.classifications = exhaustedClassifications(idx, out.notes)
		c.log.Warn("cascade exhausted, group unclassifiable",
			logging.String("prefix", prefix),
			logging.Int("members", len(idx)))
	} else {
		c.log.Info("group resolved",
			logging.String("prefix", prefix),
			logging.String("model", out.model.ID),
			logging.Float64("cv_r2", out.model.CVR2))
	}
	if !out.accepted || out.level >= common.LevelFamily {
		out.warnings = append(out.warnings, common.Warning{
			Kind:    common.WarnGroupDegraded,
			Scope:   prefix,
			Message: fmt.Sprintf("group left per-prefix modeling: %s", strings.Join(out.notes, "; ")),
		})
	}
	return out, nil
}

// attemptDirect fits and gates a per-prefix model.  An empty note means the
// model was accepted.
func (c *cascade) attemptDirect(prefix string, level common.CascadeLevel, anchors, scope []int) (*regression.Model, []outlier.Classification, []common.Warning, string) {
	m, warns, note := c.fitAndGate(prefix, level, anchors)
	if note != "" {
		return nil, nil, nil, note
	}
	cs, err := outlier.Classify(c.records, scope, m, c.outlierOptions(m.Lambda))
	if err != nil {
		c.metrics.ModelFitsTotal.WithLabelValues(level.String(), prometheus.FitNumerical).Inc()
		return nil, nil, nil, fmt.Sprintf("%s: classification failed: %v", level, err)
	}
	return m, cs, warns, ""
}

// fitAndGate fits on the anchor set, cross-validates, and applies the level
// threshold.  Degenerate anchor counts gate on the training fit instead of
// the held-out estimate, which is still reported.
func (c *cascade) fitAndGate(scopeName string, level common.CascadeLevel, anchors []int) (*regression.Model, []common.Warning, string) {
	threshold := c.cfg.ThresholdFor(level)
	levelLabel := level.String()

	if n := regression.DistinctLogP(c.records, anchors); n < 2 {
		c.metrics.ModelFitsTotal.WithLabelValues(levelLabel, prometheus.FitInfeasible).Inc()
		return nil, nil, fmt.Sprintf("%s: only %d distinct log P values", level, n)
	}

	features := regression.SelectFeatures(c.records, anchors, regression.SelectorOptions{
		Extended:           c.cfg.ExtendedFeatures,
		MaxFeatureFraction: c.cfg.MaxFeatureFraction,
		CorrelationPrune:   c.cfg.CorrelationPrune,
	})
	rows := regression.FeatureRows(c.records, anchors, features)
	y := make([]float64, len(anchors))
	for i, ri := range anchors {
		y[i] = c.records[ri].RT
	}

	m, err := regression.Fit(features, rows, y, c.cfg.RidgeLambda)
	if err != nil {
		kind := prometheus.FitNumerical
		if apperrors.IsInfeasible(err) {
			kind = prometheus.FitInfeasible
		}
		c.metrics.ModelFitsTotal.WithLabelValues(levelLabel, kind).Inc()
		return nil, nil, fmt.Sprintf("%s: %v", level, err)
	}

	cv, err := regression.CrossValidate(features, rows, y, c.cfg.RidgeLambda, c.cfg.CVSeed)
	if err != nil {
		c.metrics.ModelFitsTotal.WithLabelValues(levelLabel, prometheus.FitNumerical).Inc()
		return nil, nil, fmt.Sprintf("%s: %v", level, err)
	}
	m.CVR2 = cv.R2
	m.CVMethod = cv.Method
	m.SmallSampleGate = cv.Degenerate
	m.ID = scopeName + "/" + levelLabel

	gate := m.CVR2
	if cv.Degenerate {
		gate = m.TrainR2
	}
	if gate < threshold {
		c.metrics.ModelFitsTotal.WithLabelValues(levelLabel, prometheus.FitRejected).Inc()
		return nil, nil, fmt.Sprintf("%s: r2 %.3f below threshold %.2f", level, gate, threshold)
	}
	c.metrics.ModelFitsTotal.WithLabelValues(levelLabel, prometheus.FitAccepted).Inc()

	residuals := make([]float64, len(anchors))
	predicted := make([]float64, len(anchors))
	for i, row := range rows {
		predicted[i] = m.Predict(row)
		residuals[i] = y[i] - predicted[i]
	}
	warns := assumption.CheckModel(m, residuals, predicted, m.ID, assumption.Options{
		OverfitGapWarn: c.cfg.OverfitGapWarn,
	})
	return m, warns, ""
}

// familyFit fits the pooled family model once per run.  Its scope is every
// compound whose prefix maps to the family, so all requesting groups share
// one residual population.
func (c *cascade) familyFit(family string) *scopedFit {
	if ff, ok := c.familyFits[family]; ok {
		return ff
	}
	scope := c.familyScope(family)
	ff := c.pooledFit(family, common.LevelFamily, scope)
	c.familyFits[family] = ff
	return ff
}

// globalFit fits the table-wide fallback model once per run.
func (c *cascade) globalFit() *scopedFit {
	if c.globalOnce == nil {
		scope := make([]int, len(c.records))
		for i := range c.records {
			scope[i] = i
		}
		c.globalOnce = c.pooledFit(globalScope, common.LevelGlobal, scope)
	}
	return c.globalOnce
}

func (c *cascade) pooledFit(scopeName string, level common.CascadeLevel, scope []int) *scopedFit {
	anchors := anchorIndices(c.records, scope)
	if len(anchors) < 2 {
		c.metrics.ModelFitsTotal.WithLabelValues(level.String(), prometheus.FitInfeasible).Inc()
		return &scopedFit{note: fmt.Sprintf("%d pooled anchors, need 2", len(anchors))}
	}
	m, warns, note := c.fitAndGate(scopeName, level, anchors)
	if note != "" {
		return &scopedFit{note: note}
	}
	cs, err := outlier.Classify(c.records, scope, m, c.outlierOptions(m.Lambda))
	if err != nil {
		c.metrics.ModelFitsTotal.WithLabelValues(level.String(), prometheus.FitNumerical).Inc()
		return &scopedFit{note: fmt.Sprintf("classification failed: %v", err)}
	}
	byIndex := make(map[int]outlier.Classification, len(cs))
	for _, cl := range cs {
		byIndex[cl.Index] = cl
	}
	return &scopedFit{model: m, byIndex: byIndex, warnings: warns, accepted: true}
}

// familyScope collects every record whose prefix maps to the family, in
// arena order.
func (c *cascade) familyScope(family string) []int {
	var scope []int
	for i := range c.records {
		if f, ok := c.families.FamilyFor(c.records[i].Prefix); ok && f == family {
			scope = append(scope, i)
		}
	}
	return scope
}

func (c *cascade) outlierOptions(lambda float64) outlier.Options {
	return outlier.Options{
		Sigma:    c.cfg.OutlierSigma,
		Lambda:   lambda,
		Leverage: c.cfg.DiagnosticEnabled(config.DiagLeverage),
		Cooks:    c.cfg.DiagnosticEnabled(config.DiagCooks),
		DFFITS:   c.cfg.DiagnosticEnabled(config.DiagDFFITS),
		IQR:      c.cfg.DiagnosticEnabled(config.DiagIQR),
		MADZ:     c.cfg.DiagnosticEnabled(config.DiagMAD),
	}
}

func anchorIndices(records []compound.Record, idx []int) []int {
	var anchors []int
	for _, ri := range idx {
		if records[ri].IsAnchor {
			anchors = append(anchors, ri)
		}
	}
	return anchors
}

// pick extracts the cached classifications for the given arena indices, in
// idx order.
func pick(byIndex map[int]outlier.Classification, idx []int) []outlier.Classification {
	out := make([]outlier.Classification, 0, len(idx))
	for _, ri := range idx {
		if cl, ok := byIndex[ri]; ok {
			out = append(out, cl)
		}
	}
	return out
}

// exhaustedClassifications marks every group member an outlier with the
// cascade-exhaustion reason carrying the escalation trail.
func exhaustedClassifications(idx []int, notes []string) []outlier.Classification {
	detail := strings.Join(notes, "; ")
	out := make([]outlier.Classification, len(idx))
	for i, ri := range idx {
		out[i] = outlier.Classification{
			Index:   ri,
			Verdict: outlier.VerdictOutlier,
			Reasons: []common.Reason{{
				Kind:   common.ReasonCascadeExhausted,
				Detail: detail,
			}},
		}
	}
	return out
}
