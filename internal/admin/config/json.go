package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JsonConfig is the on-disk shape of the CLI config file. Secrets may be
// left out and supplied through the environment instead.
type JsonConfig struct {
	DatabaseDSN string  `json:"database_dsn"`
	LogLevel    string  `json:"log_level"`
	Workers     *int    `json:"workers"`
	JPEGQuality *int    `json:"jpeg_quality"`
	JournalPath *string `json:"journal_path"`
	S3          struct {
		Endpoint        string `json:"endpoint"`
		Region          string `json:"region"`
		Bucket          string `json:"bucket"`
		AccessKeyID     string `json:"access_key_id"`
		SecretAccessKey string `json:"secret_access_key"`
		StaticHost      string `json:"static_host"`
		PathStyle       *bool  `json:"path_style"`
	} `json:"s3"`
}

func parseJSON(c *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	var j JsonConfig
	if err := json.Unmarshal(file, &j); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	setString(&c.DatabaseDSN, j.DatabaseDSN)
	setString(&c.LogLevel, j.LogLevel)
	if j.Workers != nil {
		c.Workers = *j.Workers
	}
	if j.JPEGQuality != nil {
		c.JPEGQuality = *j.JPEGQuality
	}
	// an explicit "" disables the journal
	if j.JournalPath != nil {
		c.JournalPath = *j.JournalPath
	}
	setString(&c.S3.Endpoint, j.S3.Endpoint)
	setString(&c.S3.Region, j.S3.Region)
	setString(&c.S3.Bucket, j.S3.Bucket)
	setString(&c.S3.AccessKeyID, j.S3.AccessKeyID)
	setString(&c.S3.SecretAccessKey, j.S3.SecretAccessKey)
	setString(&c.S3.StaticHost, j.S3.StaticHost)
	if j.S3.PathStyle != nil {
		c.S3.PathStyle = *j.S3.PathStyle
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
