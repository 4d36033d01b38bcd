package config

import "os"

// parseEnv overlays secrets and service endpoints from environment
// variables. The server entrypoint loads a .env file into the process
// environment first, so local development needs no shell exports.
func parseEnv(config *Config) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	set(&config.DatabaseDSN, "DATABASE_DSN")
	set(&config.SecretKey, "JWT_SECRET")
	set(&config.S3AccessKey, "S3_ACCESS_KEY")
	set(&config.S3SecretKey, "S3_SECRET_KEY")
	set(&config.S3Bucket, "S3_BUCKET")
	set(&config.S3Region, "S3_REGION")
	set(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	set(&config.TranscribeAPIKey, "TRANSCRIBE_API_KEY")
	set(&config.TranscribeEndpoint, "TRANSCRIBE_ENDPOINT")
	set(&config.TranscribeModel, "TRANSCRIBE_MODEL")

	if v, ok := os.LookupEnv("TRANSCRIBE_ENABLED"); ok {
		config.TranscribeEnabled = v != "0" && v != "false"
	}
}
