package config

// Default analysis tunables.  The thresholds mirror the values the method was
// validated with: strict prefix fits at 0.75, loosening toward the global
// fallback at 0.30.
const (
	DefaultR2ThresholdL1      = 0.75
	DefaultR2ThresholdL2      = 0.65
	DefaultR2ThresholdL3      = 0.50
	DefaultR2ThresholdL4      = 0.30
	DefaultOutlierSigma       = 3.0
	DefaultRTTolerance        = 0.1
	DefaultRidgeLambda        = 1.0
	DefaultCVSeed             = 42
	DefaultMinAnchorsL1       = 10
	DefaultMinAnchorsL2       = 4
	DefaultMaxDropFraction    = 0.5
	DefaultMaxFeatureFraction = 0.3
	DefaultCorrelationPrune   = 0.95
	DefaultOverfitGapWarn     = 0.2
)

// DefaultDiagnostics lists the advisory detectors enabled out of the box.
// Leverage is computed but reported only, so it is enabled by default too.
func DefaultDiagnostics() []string {
	return []string{DiagLeverage, DiagCooks, DiagDFFITS, DiagIQR, DiagMAD}
}

// ApplyDefaults fills every unset field of cfg with its default value.
// Zero-valued numbers are treated as unset; booleans keep their value.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	a := &cfg.Analysis
	if a.R2ThresholdL1 == 0 {
		a.R2ThresholdL1 = DefaultR2ThresholdL1
	}
	if a.R2ThresholdL2 == 0 {
		a.R2ThresholdL2 = DefaultR2ThresholdL2
	}
	if a.R2ThresholdL3 == 0 {
		a.R2ThresholdL3 = DefaultR2ThresholdL3
	}
	if a.R2ThresholdL4 == 0 {
		a.R2ThresholdL4 = DefaultR2ThresholdL4
	}
	if a.OutlierSigma == 0 {
		a.OutlierSigma = DefaultOutlierSigma
	}
	if a.RTTolerance == 0 {
		a.RTTolerance = DefaultRTTolerance
	}
	if a.RidgeLambda == 0 {
		a.RidgeLambda = DefaultRidgeLambda
	}
	if a.CVSeed == 0 {
		a.CVSeed = DefaultCVSeed
	}
	if a.MinAnchorsL1 == 0 {
		a.MinAnchorsL1 = DefaultMinAnchorsL1
	}
	if a.MinAnchorsL2 == 0 {
		a.MinAnchorsL2 = DefaultMinAnchorsL2
	}
	if a.MaxDropFraction == 0 {
		a.MaxDropFraction = DefaultMaxDropFraction
	}
	if a.MaxFeatureFraction == 0 {
		a.MaxFeatureFraction = DefaultMaxFeatureFraction
	}
	if a.CorrelationPrune == 0 {
		a.CorrelationPrune = DefaultCorrelationPrune
	}
	if a.OverfitGapWarn == 0 {
		a.OverfitGapWarn = DefaultOverfitGapWarn
	}
	if a.Diagnostics == nil {
		a.Diagnostics = DefaultDiagnostics()
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.
// The result always passes Validate.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
