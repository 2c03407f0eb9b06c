package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/glycotrace/glycotrace/pkg/errors"
)

// envPrefix is the environment variable prefix for all settings.
const envPrefix = "GLYCO"

// newViper builds a pre-configured viper instance: YAML file type, GLYCO_ env
// prefix, automatic env binding, and a key replacer mapping "." → "_" so that
// "analysis.outlier_sigma" resolves to "GLYCO_ANALYSIS_OUTLIER_SIGMA".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerDefaults(v)
	return v
}

// registerDefaults declares every key to viper.  AutomaticEnv only resolves
// keys viper already knows about, so without this block GLYCO_* variables
// would be invisible to Unmarshal when no config file is present.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_paths", []string{"stderr"})
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("analysis.r2_threshold_l1", DefaultR2ThresholdL1)
	v.SetDefault("analysis.r2_threshold_l2", DefaultR2ThresholdL2)
	v.SetDefault("analysis.r2_threshold_l3", DefaultR2ThresholdL3)
	v.SetDefault("analysis.r2_threshold_l4", DefaultR2ThresholdL4)
	v.SetDefault("analysis.outlier_sigma", DefaultOutlierSigma)
	v.SetDefault("analysis.rt_tolerance", DefaultRTTolerance)
	v.SetDefault("analysis.ridge_lambda", DefaultRidgeLambda)
	v.SetDefault("analysis.cv_seed", DefaultCVSeed)
	v.SetDefault("analysis.min_anchors_l1", DefaultMinAnchorsL1)
	v.SetDefault("analysis.min_anchors_l2", DefaultMinAnchorsL2)
	v.SetDefault("analysis.max_drop_fraction", DefaultMaxDropFraction)
	v.SetDefault("analysis.extended_features", false)
	v.SetDefault("analysis.max_feature_fraction", DefaultMaxFeatureFraction)
	v.SetDefault("analysis.correlation_prune", DefaultCorrelationPrune)
	v.SetDefault("analysis.diagnostics", DefaultDiagnostics())
	v.SetDefault("analysis.overfit_gap_warn", DefaultOverfitGapWarn)
}

// Load reads the YAML file at configPath, merges GLYCO_* environment variable
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigNotFound, "failed to read config file "+configPath)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from GLYCO_* environment variables
// plus defaults, with no config file required.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "configuration validation failed")
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with a freshly parsed Config
// whenever the file changes on disk and still validates.  Intended for
// hot-reloading safe settings (log level, analysis thresholds); callers decide
// which subset to apply at runtime.  An invalid edit skips the callback so the
// application never observes a broken configuration.
//
// Watch is non-blocking; the watching goroutine is managed by viper.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; callers should have called Load first, so errors here
	// only mean the next change event does a full re-read.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad wraps Load and panics on error.  For use in main() where a
// config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic("config: MustLoad failed: " + err.Error())
	}
	return cfg
}
