package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/flagx"
	"github.com/dmitrijs2005/photogallery/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Durations
// use timex.Duration so both "15m" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from a zero value.
type JsonConfig struct {
	Address               string          `json:"address"`
	Port                  *int            `json:"port"`
	DatabaseDSN           string          `json:"database_dsn"`
	BaseURL               string          `json:"base_url"`
	DefaultPhotosPerPage  *int            `json:"default_photos_per_page"`
	MaxPhotosPerPage      *int            `json:"max_photos_per_page"`
	TemplatePath          string          `json:"template_path"`
	TokenSigningKey       string          `json:"token_signing_key"`
	SessionSecret         string          `json:"session_secret"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	APIRateLimit          *int            `json:"api_rate_limit"`
	Migrate               *bool           `json:"migrate"`
	LogLevel              string          `json:"log_level"`
}

// parseJson loads the file named by -c/-config (or GALLERY_CONFIG) and copies
// every field present in it into config. No file means no changes. An
// unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag(EnvConfigFile)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.Address, c.Address)
	setInt(&config.Port, c.Port)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.BaseURL, c.BaseURL)
	setInt(&config.DefaultPhotosPerPage, c.DefaultPhotosPerPage)
	setInt(&config.MaxPhotosPerPage, c.MaxPhotosPerPage)
	setString(&config.TemplatePath, c.TemplatePath)
	setString(&config.TokenSigningKey, c.TokenSigningKey)
	setString(&config.SessionSecret, c.SessionSecret)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	}
	setInt(&config.APIRateLimit, c.APIRateLimit)
	if c.Migrate != nil {
		config.Migrate = *c.Migrate
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
