package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/voxjournal/voxjournal/internal/flagx"
	"github.com/voxjournal/voxjournal/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. It uses timex.Duration for interval fields, which accepts both
// string values such as "1h" and integer nanoseconds. After unmarshalling,
// its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3AccessKey                  string         `json:"s3_access_key"`
	S3SecretKey                  string         `json:"s3_secret_key"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	SignedURLTTL                 timex.Duration `json:"signed_url_ttl"`
	TranscribeAPIKey             string         `json:"transcribe_api_key"`
	TranscribeEndpoint           string         `json:"transcribe_endpoint"`
	TranscribeModel              string         `json:"transcribe_model"`
	TranscribeEnabled            *bool          `json:"transcribe_enabled"`
	DefaultLanguage              string         `json:"default_language"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. Unreadable or invalid
// files cause a panic: a half-applied config is worse than a crash at boot.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()
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

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	}
	if c.S3AccessKey != "" {
		config.S3AccessKey = c.S3AccessKey
	}
	if c.S3SecretKey != "" {
		config.S3SecretKey = c.S3SecretKey
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.SignedURLTTL.Duration != 0 {
		config.SignedURLTTL = time.Duration(c.SignedURLTTL.Duration)
	}
	if c.TranscribeAPIKey != "" {
		config.TranscribeAPIKey = c.TranscribeAPIKey
	}
	if c.TranscribeEndpoint != "" {
		config.TranscribeEndpoint = c.TranscribeEndpoint
	}
	if c.TranscribeModel != "" {
		config.TranscribeModel = c.TranscribeModel
	}
	if c.TranscribeEnabled != nil {
		config.TranscribeEnabled = *c.TranscribeEnabled
	}
	if c.DefaultLanguage != "" {
		config.DefaultLanguage = c.DefaultLanguage
	}
}
