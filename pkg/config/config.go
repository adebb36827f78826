package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"example.com/ss3/pkg/errs"
)

// Config holds process-wide settings read from SS3_* environment variables
// and an optional .env file. Command line flags override these values.
type Config struct {
	LogLevel    string
	LogFormat   string
	EnvPrefix   string
	Backend     string
	Concurrency int
	MetricsFile string
	Profile     string
	Region      string
}

// Load reads .env files (missing files are ignored) and then the environment.
// With no files given, ./.env is tried.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errs.Wrap(errs.KindConfiguration, "read .env file", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SS3")
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("ENV_PREFIX", "SS3")
	v.SetDefault("BACKEND", "s3")
	v.SetDefault("CONCURRENCY", 1)
	v.SetDefault("METRICS_FILE", "")
	v.SetDefault("PROFILE", "")
	v.SetDefault("REGION", "")

	cfg := Config{
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		EnvPrefix:   strings.TrimSpace(v.GetString("ENV_PREFIX")),
		Backend:     v.GetString("BACKEND"),
		Concurrency: v.GetInt("CONCURRENCY"),
		MetricsFile: v.GetString("METRICS_FILE"),
		Profile:     v.GetString("PROFILE"),
		Region:      v.GetString("REGION"),
	}
	if cfg.EnvPrefix == "" {
		cfg.EnvPrefix = "SS3"
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}
