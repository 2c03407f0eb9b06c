// Package config defines all configuration structures for GlycoTrace.  No I/O
// or parsing logic lives in this file — only plain data types and validation.
package config

import (
	"fmt"

	"github.com/glycotrace/glycotrace/internal/infrastructure/monitoring/logging"
	"github.com/glycotrace/glycotrace/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Analysis configuration
// ─────────────────────────────────────────────────────────────────────────────

// Diagnostic names accepted in AnalysisConfig.Diagnostics.
const (
	DiagLeverage = "leverage"
	DiagCooks    = "cooks_distance"
	DiagDFFITS   = "dffits"
	DiagIQR      = "iqr"
	DiagMAD      = "mad_zscore"
)

// AnalysisConfig carries every tunable of one analysis run.  The pipeline
// copies it by value at the start of a run, so concurrent runs can never
// observe each other's settings.
type AnalysisConfig struct {
	// R2ThresholdL1..L4 are the cross-validated R² acceptance thresholds for
	// the four cascade levels.  Each must lie in [0.5, 0.999] except L4 which
	// may go as low as 0.0; thresholds must be non-increasing with level.
	R2ThresholdL1 float64 `mapstructure:"r2_threshold_l1"`
	R2ThresholdL2 float64 `mapstructure:"r2_threshold_l2"`
	R2ThresholdL3 float64 `mapstructure:"r2_threshold_l3"`
	R2ThresholdL4 float64 `mapstructure:"r2_threshold_l4"`

	// OutlierSigma is the standardized-residual cutoff in [1.0, 5.0].
	OutlierSigma float64 `mapstructure:"outlier_sigma"`

	// RTTolerance is the fragmentation clustering tolerance in minutes,
	// in [0.01, 0.5].
	RTTolerance float64 `mapstructure:"rt_tolerance"`

	// RidgeLambda is the base regularization strength; escalated internally
	// when the normal-equation matrix is ill-conditioned.
	RidgeLambda float64 `mapstructure:"ridge_lambda"`

	// CVSeed seeds the k-fold shuffle so repeated runs are bit-identical.
	CVSeed int64 `mapstructure:"cv_seed"`

	// MinAnchorsL1 and MinAnchorsL2 are the anchor-count floors for the two
	// prefix-specific levels.
	MinAnchorsL1 int `mapstructure:"min_anchors_l1"`
	MinAnchorsL2 int `mapstructure:"min_anchors_l2"`

	// MaxDropFraction aborts the run when ingestion drops more than this
	// fraction of rows.
	MaxDropFraction float64 `mapstructure:"max_drop_fraction"`

	// ExtendedFeatures enables structural features (carbon count,
	// unsaturation, oxygens, sugar counts, modification flags) beyond Log P.
	ExtendedFeatures bool `mapstructure:"extended_features"`

	// MaxFeatureFraction caps feature count at this fraction of sample size.
	MaxFeatureFraction float64 `mapstructure:"max_feature_fraction"`

	// CorrelationPrune drops one of each feature pair whose absolute Pearson
	// correlation exceeds this value, preferring to keep Log P.
	CorrelationPrune float64 `mapstructure:"correlation_prune"`

	// Diagnostics lists the enabled advisory outlier detectors.
	Diagnostics []string `mapstructure:"diagnostics"`

	// OverfitGapWarn emits a warning when train R² exceeds CV R² by more
	// than this gap.
	OverfitGapWarn float64 `mapstructure:"overfit_gap_warn"`

	// FamilyOverrides maps a prefix to a family name, extending or replacing
	// entries of the built-in ganglioside family table.
	FamilyOverrides map[string]string `mapstructure:"family_overrides"`
}

// ThresholdFor returns the CV-R² acceptance threshold for a cascade level.
func (c AnalysisConfig) ThresholdFor(level common.CascadeLevel) float64 {
	switch level {
	case common.LevelPrefixStrict:
		return c.R2ThresholdL1
	case common.LevelPrefixRelaxed:
		return c.R2ThresholdL2
	case common.LevelFamily:
		return c.R2ThresholdL3
	default:
		return c.R2ThresholdL4
	}
}

// DiagnosticEnabled reports whether the named advisory detector is enabled.
func (c AnalysisConfig) DiagnosticEnabled(name string) bool {
	for _, d := range c.Diagnostics {
		if d == name {
			return true
		}
	}
	return false
}

// Validate performs semantic validation of the analysis settings.
func (c AnalysisConfig) Validate() error {
	thresholds := []struct {
		name string
		v    float64
		min  float64
	}{
		{"r2_threshold_l1", c.R2ThresholdL1, 0.5},
		{"r2_threshold_l2", c.R2ThresholdL2, 0.5},
		{"r2_threshold_l3", c.R2ThresholdL3, 0.5},
		{"r2_threshold_l4", c.R2ThresholdL4, 0.0},
	}
	for _, t := range thresholds {
		if t.v < t.min || t.v > 0.999 {
			return fmt.Errorf("config: analysis.%s %.3f is out of range [%.1f, 0.999]", t.name, t.v, t.min)
		}
	}
	if c.R2ThresholdL2 > c.R2ThresholdL1 || c.R2ThresholdL3 > c.R2ThresholdL2 || c.R2ThresholdL4 > c.R2ThresholdL3 {
		return fmt.Errorf("config: analysis r2 thresholds must be non-increasing from L1 to L4")
	}
	if c.OutlierSigma < 1.0 || c.OutlierSigma > 5.0 {
		return fmt.Errorf("config: analysis.outlier_sigma %.2f is out of range [1.0, 5.0]", c.OutlierSigma)
	}
	if c.RTTolerance < 0.01 || c.RTTolerance > 0.5 {
		return fmt.Errorf("config: analysis.rt_tolerance %.3f is out of range [0.01, 0.5]", c.RTTolerance)
	}
	if c.RidgeLambda < 0 {
		return fmt.Errorf("config: analysis.ridge_lambda must be ≥ 0, got %g", c.RidgeLambda)
	}
	if c.MinAnchorsL2 < 2 {
		return fmt.Errorf("config: analysis.min_anchors_l2 must be ≥ 2, got %d", c.MinAnchorsL2)
	}
	if c.MinAnchorsL1 <= c.MinAnchorsL2 {
		return fmt.Errorf("config: analysis.min_anchors_l1 (%d) must exceed min_anchors_l2 (%d)",
			c.MinAnchorsL1, c.MinAnchorsL2)
	}
	if c.MaxDropFraction <= 0 || c.MaxDropFraction > 1 {
		return fmt.Errorf("config: analysis.max_drop_fraction %.2f is out of range (0, 1]", c.MaxDropFraction)
	}
	if c.MaxFeatureFraction <= 0 || c.MaxFeatureFraction > 1 {
		return fmt.Errorf("config: analysis.max_feature_fraction %.2f is out of range (0, 1]", c.MaxFeatureFraction)
	}
	if c.CorrelationPrune <= 0 || c.CorrelationPrune > 1 {
		return fmt.Errorf("config: analysis.correlation_prune %.2f is out of range (0, 1]", c.CorrelationPrune)
	}
	for _, d := range c.Diagnostics {
		switch d {
		case DiagLeverage, DiagCooks, DiagDFFITS, DiagIQR, DiagMAD:
		default:
			return fmt.Errorf("config: analysis.diagnostics contains unknown detector %q", d)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Root configuration
// ─────────────────────────────────────────────────────────────────────────────

// MetricsConfig holds metric-export settings.
type MetricsConfig struct {
	// Enabled toggles registration of pipeline metrics on the default
	// registry; disabled runs still work, counting into a private registry.
	Enabled bool `mapstructure:"enabled"`
}

// Config is the root configuration structure.
type Config struct {
	Log      logging.Config `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
}

// Validate performs semantic validation of the fully-populated Config.
// Callers should treat any error as fatal.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}
	return c.Analysis.Validate()
}
