package config

import "os"

// parseEnv overlays Config with environment variables, meant for secrets
// that should not live in files or flags.
//
// Recognized variables: ADDRESS, DATABASE_DSN, SECRET_KEY, S3_ACCESS_KEY,
// S3_SECRET_KEY, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT.
func parseEnv(cfg *Config) {
	overlayEnv(&cfg.EndpointAddr, "ADDRESS")
	overlayEnv(&cfg.DatabaseDSN, "DATABASE_DSN")
	overlayEnv(&cfg.SecretKey, "SECRET_KEY")
	overlayEnv(&cfg.S3AccessKey, "S3_ACCESS_KEY")
	overlayEnv(&cfg.S3SecretKey, "S3_SECRET_KEY")
	overlayEnv(&cfg.S3Bucket, "S3_BUCKET")
	overlayEnv(&cfg.S3Region, "S3_REGION")
	overlayEnv(&cfg.S3BaseEndpoint, "S3_BASE_ENDPOINT")
}

func overlayEnv(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}
