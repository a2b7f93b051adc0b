package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds runtime settings for the audit pipeline.
type Config struct {
	LedgerPath    string `mapstructure:"ledger_path"`
	OutputDir     string `mapstructure:"output_dir"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`

	Epsilon         float64 `mapstructure:"epsilon"`
	PnLTolerance    float64 `mapstructure:"pnl_tolerance"`
	ReturnTolerance float64 `mapstructure:"return_tolerance"`
	MinSampleSize   int     `mapstructure:"min_sample_size"`
	AnnualRiskFree  float64 `mapstructure:"annual_risk_free"`

	ConfidenceBase       float64 `mapstructure:"confidence_base"`
	ConfidenceCap        float64 `mapstructure:"confidence_cap"`
	ConfidenceNormalizer float64 `mapstructure:"confidence_normalizer"`

	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"`
	DebugLogging    bool `mapstructure:"debug_logging"`
}

const (
	DefaultEpsilon              = 0.01
	DefaultPnLTolerance         = 0.01
	DefaultReturnTolerance      = 0.0001
	DefaultMinSampleSize        = 5
	DefaultAnnualRiskFree       = 0.05
	DefaultConfidenceBase       = 0.3
	DefaultConfidenceCap        = 0.95
	DefaultConfidenceNormalizer = 200
	DefaultCacheTTLSeconds      = 300
	DefaultOutputDir            = "output"
)

// Load reads configuration from the given file, applies defaults, and
// overlays TRADE_AUDIT_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"epsilon":               DefaultEpsilon,
		"pnl_tolerance":         DefaultPnLTolerance,
		"return_tolerance":      DefaultReturnTolerance,
		"min_sample_size":       DefaultMinSampleSize,
		"annual_risk_free":      DefaultAnnualRiskFree,
		"confidence_base":       DefaultConfidenceBase,
		"confidence_cap":        DefaultConfidenceCap,
		"confidence_normalizer": DefaultConfidenceNormalizer,
		"cache_ttl_seconds":     DefaultCacheTTLSeconds,
		"output_dir":            DefaultOutputDir,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validate(&cfg)
}

// Default returns a config populated with defaults only, for callers
// that run without a config file.
func Default() *Config {
	return &Config{
		OutputDir:            DefaultOutputDir,
		Epsilon:              DefaultEpsilon,
		PnLTolerance:         DefaultPnLTolerance,
		ReturnTolerance:      DefaultReturnTolerance,
		MinSampleSize:        DefaultMinSampleSize,
		AnnualRiskFree:       DefaultAnnualRiskFree,
		ConfidenceBase:       DefaultConfidenceBase,
		ConfidenceCap:        DefaultConfidenceCap,
		ConfidenceNormalizer: DefaultConfidenceNormalizer,
		CacheTTLSeconds:      DefaultCacheTTLSeconds,
	}
}

func validate(cfg *Config) error {
	if cfg.Epsilon <= 0 {
		return errors.New("epsilon must be positive")
	}
	if cfg.PnLTolerance <= 0 {
		return errors.New("pnl_tolerance must be positive")
	}
	if cfg.ReturnTolerance <= 0 {
		return errors.New("return_tolerance must be positive")
	}
	if cfg.MinSampleSize < 1 {
		return errors.New("min_sample_size must be at least 1")
	}
	if cfg.AnnualRiskFree < 0 {
		return errors.New("annual_risk_free cannot be negative")
	}
	if cfg.ConfidenceBase < 0 || cfg.ConfidenceBase > 1 {
		return errors.New("confidence_base must be in [0, 1]")
	}
	if cfg.ConfidenceCap < cfg.ConfidenceBase || cfg.ConfidenceCap > 1 {
		return errors.New("confidence_cap must be in [confidence_base, 1]")
	}
	if cfg.ConfidenceNormalizer <= 0 {
		return errors.New("confidence_normalizer must be positive")
	}
	if cfg.CacheTTLSeconds < 0 {
		return errors.New("cache_ttl_seconds cannot be negative")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("TRADE_AUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if dsn := v.GetString("POSTGRES_DSN"); dsn != "" {
		cfg.PostgresDSN = dsn
	}
	if dsn := v.GetString("CLICKHOUSE_DSN"); dsn != "" {
		cfg.ClickhouseDSN = dsn
	}
}
