package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvDatabaseURL       = "DATABASE_URL"
	EnvLogLevel          = "GALLERY_LOG_LEVEL"
	EnvWorkers           = "GALLERY_INGEST_WORKERS"
	EnvJPEGQuality       = "GALLERY_JPEG_QUALITY"
	EnvJournalPath       = "GALLERY_UPLOAD_JOURNAL"
	EnvS3Endpoint        = "GALLERY_S3_ENDPOINT"
	EnvS3Region          = "GALLERY_S3_REGION"
	EnvS3Bucket          = "GALLERY_S3_BUCKET"
	EnvS3AccessKeyID     = "GALLERY_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "GALLERY_S3_SECRET_ACCESS_KEY"
	EnvS3PathStyle       = "GALLERY_S3_PATH_STYLE"
	EnvStaticHost        = "GALLERY_STATIC_HOST"
	EnvConfigFile        = "GALLERY_CLI_CONFIG"
)

func lookupEnv(name string) string {
	v, _ := os.LookupEnv(name)
	return v
}

func envString(name string, dst *string) {
	if v := lookupEnv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) error {
	if v := lookupEnv(name); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
	}
	return nil
}

func envBool(name string, dst *bool) error {
	if v := lookupEnv(name); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}
	return nil
}

func parseEnv(c *Config) error {
	envString(EnvDatabaseURL, &c.DatabaseDSN)
	envString(EnvLogLevel, &c.LogLevel)
	if err := envInt(EnvWorkers, &c.Workers); err != nil {
		return err
	}
	if err := envInt(EnvJPEGQuality, &c.JPEGQuality); err != nil {
		return err
	}
	envString(EnvJournalPath, &c.JournalPath)
	envString(EnvS3Endpoint, &c.S3.Endpoint)
	envString(EnvS3Region, &c.S3.Region)
	envString(EnvS3Bucket, &c.S3.Bucket)
	envString(EnvS3AccessKeyID, &c.S3.AccessKeyID)
	envString(EnvS3SecretAccessKey, &c.S3.SecretAccessKey)
	envString(EnvStaticHost, &c.S3.StaticHost)
	return envBool(EnvS3PathStyle, &c.S3.PathStyle)
}
