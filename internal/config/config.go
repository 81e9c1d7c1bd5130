package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/geal-ai/grib2mrms"
)

// Config holds decoder and service settings.
type Config struct {
	Stride           int     `toml:"stride"`
	Threshold        float64 `toml:"threshold"`
	ValueMin         float64 `toml:"value_min"`
	ValueMax         float64 `toml:"value_max"`
	MinValidFraction float64 `toml:"min_valid_fraction"`
	Workers          int     `toml:"workers"`
	CacheSize        int     `toml:"cache_size"`
	LogLevel         string  `toml:"log_level"`
	LogFormat        string  `toml:"log_format"`
}

// Default returns the settings used when neither a file nor the
// environment override them.
func Default() *Config {
	return &Config{
		Stride:           grib2mrms.DefaultStride,
		Threshold:        grib2mrms.DefaultThreshold,
		ValueMin:         grib2mrms.DefaultValueMin,
		ValueMax:         grib2mrms.DefaultValueMax,
		MinValidFraction: grib2mrms.DefaultMinValidFraction,
		Workers:          1,
		CacheSize:        16,
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load reads the optional TOML file at path (empty path skips it), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, fmt.Errorf("config %s: unknown key %q", path, undec[0].String())
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Stride, err = envInt("MRMS_STRIDE", c.Stride); err != nil {
		return err
	}
	if c.Threshold, err = envFloat("MRMS_THRESHOLD", c.Threshold); err != nil {
		return err
	}
	if c.ValueMin, err = envFloat("MRMS_VALUE_MIN", c.ValueMin); err != nil {
		return err
	}
	if c.ValueMax, err = envFloat("MRMS_VALUE_MAX", c.ValueMax); err != nil {
		return err
	}
	if c.MinValidFraction, err = envFloat("MRMS_MIN_VALID_FRACTION", c.MinValidFraction); err != nil {
		return err
	}
	if c.Workers, err = envInt("MRMS_WORKERS", c.Workers); err != nil {
		return err
	}
	if c.CacheSize, err = envInt("MRMS_CACHE_SIZE", c.CacheSize); err != nil {
		return err
	}
	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOrDefault("LOG_FORMAT", c.LogFormat)
	return nil
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.Stride < 1:
		return errors.New("stride must be >= 1")
	case !(c.ValueMin < c.ValueMax):
		return fmt.Errorf("value_min %g must be below value_max %g", c.ValueMin, c.ValueMax)
	case c.MinValidFraction < 0 || c.MinValidFraction >= 1:
		return fmt.Errorf("min_valid_fraction %g must be in [0, 1)", c.MinValidFraction)
	case c.Workers < 1:
		return errors.New("workers must be >= 1")
	case c.CacheSize < 0:
		return errors.New("cache_size must be >= 0")
	}
	return nil
}

// Options converts the decoder settings to grib2mrms options.
func (c *Config) Options() []grib2mrms.Option {
	return []grib2mrms.Option{
		grib2mrms.WithStride(c.Stride),
		grib2mrms.WithThreshold(c.Threshold),
		grib2mrms.WithValueBounds(c.ValueMin, c.ValueMax),
		grib2mrms.WithMinValidFraction(c.MinValidFraction),
		grib2mrms.WithWorkers(c.Workers),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
