package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names understood by parseEnv.
const (
	EnvDatabaseURL          = "DATABASE_URL"
	EnvBindAddress          = "GALLERY_BIND_ADDRESS"
	EnvBindPort             = "GALLERY_BIND_PORT"
	EnvBaseURL              = "GALLERY_BASE_URL"
	EnvDefaultPhotosPerPage = "GALLERY_DEFAULT_PHOTOS_PER_PAGE"
	EnvMaxPhotosPerPage     = "GALLERY_MAX_PHOTOS_PER_PAGE"
	EnvTemplatePath         = "GALLERY_TEMPLATE_PATH"
	EnvTokenSigningKey      = "GALLERY_TOKEN_SIGNING_KEY"
	EnvSessionSecret        = "GALLERY_SESSION_SECRET"
	EnvTokenValidity        = "GALLERY_TOKEN_VALIDITY"
	EnvAPIRateLimit         = "GALLERY_API_RATE_LIMIT"
	EnvMigrate              = "GALLERY_MIGRATE"
	EnvLogLevel             = "GALLERY_LOG_LEVEL"
	EnvConfigFile           = "GALLERY_CONFIG"
)

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func envBool(name string, dst *bool) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = b
	}
}

func envDuration(name string, dst *time.Duration) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}

// parseEnv overlays Config with values from the environment. Malformed
// numbers, booleans or durations panic, like malformed flags do.
func parseEnv(config *Config) {
	envString(EnvDatabaseURL, &config.DatabaseDSN)
	envString(EnvBindAddress, &config.Address)
	envInt(EnvBindPort, &config.Port)
	envString(EnvBaseURL, &config.BaseURL)
	envInt(EnvDefaultPhotosPerPage, &config.DefaultPhotosPerPage)
	envInt(EnvMaxPhotosPerPage, &config.MaxPhotosPerPage)
	envString(EnvTemplatePath, &config.TemplatePath)
	envString(EnvTokenSigningKey, &config.TokenSigningKey)
	envString(EnvSessionSecret, &config.SessionSecret)
	envDuration(EnvTokenValidity, &config.TokenValidityDuration)
	envInt(EnvAPIRateLimit, &config.APIRateLimit)
	envBool(EnvMigrate, &config.Migrate)
	envString(EnvLogLevel, &config.LogLevel)
}
