// Package common defines the shared enumerations and tagged value types used
// across the GlycoTrace pipeline: cascade escalation levels, outlier reason
// kinds, and advisory warning kinds.  Keeping them here prevents import cycles
// between the domain packages and the application layer.
package common

import (
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// CascadeLevel — regression escalation level
// ─────────────────────────────────────────────────────────────────────────────

// CascadeLevel identifies one escalation level of the regression cascade.
// Levels are ordered: a group advances from LevelPrefixStrict toward
// LevelGlobal, loosening the acceptance threshold at each step.
type CascadeLevel int

const (
	// LevelPrefixStrict fits a prefix-specific model on a large anchor sample
	// at the strictest threshold.
	LevelPrefixStrict CascadeLevel = iota + 1

	// LevelPrefixRelaxed fits a prefix-specific model on a medium anchor
	// sample at a relaxed threshold.
	LevelPrefixRelaxed

	// LevelFamily pools anchors across all sibling prefixes of a curated
	// family and fits one shared model per family.
	LevelFamily

	// LevelGlobal pools every anchor in the table into a single fallback
	// model at the most permissive threshold.
	LevelGlobal
)

// AllCascadeLevels returns the canonical ordered list of escalation levels.
func AllCascadeLevels() []CascadeLevel {
	return []CascadeLevel{LevelPrefixStrict, LevelPrefixRelaxed, LevelFamily, LevelGlobal}
}

// IsValid checks whether the level is one of the four defined levels.
func (l CascadeLevel) IsValid() bool {
	return l >= LevelPrefixStrict && l <= LevelGlobal
}

// Next returns the following escalation level and true, or the receiver and
// false when the cascade is already at LevelGlobal.
func (l CascadeLevel) Next() (CascadeLevel, bool) {
	if l >= LevelGlobal {
		return l, false
	}
	return l + 1, true
}

// String returns the short L1..L4 label used in logs and model IDs.
func (l CascadeLevel) String() string {
	switch l {
	case LevelPrefixStrict:
		return "L1"
	case LevelPrefixRelaxed:
		return "L2"
	case LevelFamily:
		return "L3"
	case LevelGlobal:
		return "L4"
	default:
		return fmt.Sprintf("L?(%d)", int(l))
	}
}

// Description returns a human-readable description of the level.
func (l CascadeLevel) Description() string {
	switch l {
	case LevelPrefixStrict:
		return "prefix-specific model, large sample"
	case LevelPrefixRelaxed:
		return "prefix-specific model, medium sample"
	case LevelFamily:
		return "family-pooled model"
	case LevelGlobal:
		return "global fallback model"
	default:
		return "unknown cascade level"
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ReasonKind / Reason — structured outlier reasons
// ─────────────────────────────────────────────────────────────────────────────

// ReasonKind enumerates the detection methods that can flag a compound as an
// outlier.  A single compound may carry several reasons when multiple enabled
// methods trigger.
type ReasonKind string

const (
	ReasonStdResidual      ReasonKind = "std_residual"
	ReasonLeverage         ReasonKind = "leverage"
	ReasonCooksDistance    ReasonKind = "cooks_distance"
	ReasonDFFITS           ReasonKind = "dffits"
	ReasonIQR              ReasonKind = "iqr"
	ReasonMADZScore        ReasonKind = "mad_zscore"
	ReasonCascadeExhausted ReasonKind = "cascade_exhausted"
)

// IsValid checks whether the reason kind is one of the defined detectors.
func (k ReasonKind) IsValid() bool {
	switch k {
	case ReasonStdResidual, ReasonLeverage, ReasonCooksDistance, ReasonDFFITS,
		ReasonIQR, ReasonMADZScore, ReasonCascadeExhausted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the reason kind.
func (k ReasonKind) String() string { return string(k) }

// Reason is one structured outlier reason: which detector fired, the threshold
// it was configured with, and the observed statistic that exceeded it.
type Reason struct {
	Kind      ReasonKind `json:"kind"`
	Threshold float64    `json:"threshold"`
	Observed  float64    `json:"observed"`
	Detail    string     `json:"detail,omitempty"`
}

// String renders the reason for logs and text output, e.g.
// "std_residual: |3.42| >= 3.00".
func (r Reason) String() string {
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s", r.Kind, r.Detail)
	}
	return fmt.Sprintf("%s: |%.2f| >= %.2f", r.Kind, r.Observed, r.Threshold)
}

// JoinReasons renders a reason list as a single semicolon-separated string.
func JoinReasons(reasons []Reason) string {
	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, "; ")
}

// ─────────────────────────────────────────────────────────────────────────────
// WarningKind / Warning — advisory diagnostics
// ─────────────────────────────────────────────────────────────────────────────

// WarningKind enumerates advisory warning categories.  Warnings are attached
// to the run result and never block classification.
type WarningKind string

const (
	WarnAutocorrelation   WarningKind = "autocorrelation"
	WarnHeteroscedastic   WarningKind = "heteroscedasticity"
	WarnNonNormalResidual WarningKind = "non_normal_residuals"
	WarnCoefficientSign   WarningKind = "coefficient_sign"
	WarnOverfitGap        WarningKind = "overfit_gap"
	WarnGroupDegraded     WarningKind = "group_degraded"
	WarnRowsDropped       WarningKind = "rows_dropped"
)

// Warning is one advisory finding, scoped to a model or group.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Scope     string      `json:"scope"` // model ID or group name the warning applies to
	Message   string      `json:"message"`
	Observed  float64     `json:"observed,omitempty"`
	Threshold float64     `json:"threshold,omitempty"`
}

// String renders the warning for logs and text output.
func (w Warning) String() string {
	if w.Scope != "" {
		return fmt.Sprintf("[%s] %s: %s", w.Scope, w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// ─────────────────────────────────────────────────────────────────────────────
// DropKind — ingestion row-drop causes
// ─────────────────────────────────────────────────────────────────────────────

// DropKind enumerates the causes for dropping an input row during ingestion.
type DropKind string

const (
	DropMalformedName   DropKind = "malformed_name"
	DropNonNumericField DropKind = "non_numeric_field"
	DropMissingField    DropKind = "missing_field"
	DropBadAnchorFlag   DropKind = "bad_anchor_flag"
)

// DroppedRow records one ingestion drop: the 1-based data row number, the raw
// name (possibly empty), the cause, and a short detail.
type DroppedRow struct {
	Row    int      `json:"row"`
	Name   string   `json:"name,omitempty"`
	Kind   DropKind `json:"kind"`
	Detail string   `json:"detail"`
}

// String renders the drop entry for logs.
func (d DroppedRow) String() string {
	return fmt.Sprintf("row %d (%s): %s: %s", d.Row, d.Name, d.Kind, d.Detail)
}
