package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/guardian/internal/flagx"
	"github.com/dmitrijs2005/guardian/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Interval fields use
// timex.Duration, which accepts both "1s" strings and integer nanoseconds.
// Absent or empty fields leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP    string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc"`
	StorageBackend      string         `json:"storage_backend"`
	DataDir             string         `json:"data_dir"`
	DatabaseDSN         string         `json:"database_dsn"`
	DynamoRegion        string         `json:"dynamo_region"`
	DynamoEndpoint      string         `json:"dynamo_endpoint"`
	DynamoTablePrefix   string         `json:"dynamo_table_prefix"`
	AWSAccessKeyID      string         `json:"aws_access_key_id"`
	AWSSecretAccessKey  string         `json:"aws_secret_access_key"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	EvidenceURLExpiry   timex.Duration `json:"evidence_url_expiry"`
	CORSOrigin          string         `json:"cors_origin"`
	LogLevel            string         `json:"log_level"`
	MapConcurrency      int            `json:"map_concurrency"`
	HealthProbeInterval timex.Duration `json:"health_probe_interval"`
	ShutdownTimeout     timex.Duration `json:"shutdown_timeout"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays the file named by -c/-config (or $GUARDIAN_CONFIG).
// No path means nothing to load.
func parseJson(config *Config) error {
	path := flagx.ConfigFilePath()
	if path == "" {
		return nil
	}
	return loadJsonFile(config, path)
}

func loadJsonFile(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DataDir, c.DataDir)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DynamoRegion, c.DynamoRegion)
	setString(&config.DynamoEndpoint, c.DynamoEndpoint)
	setString(&config.DynamoTablePrefix, c.DynamoTablePrefix)
	setString(&config.AWSAccessKeyID, c.AWSAccessKeyID)
	setString(&config.AWSSecretAccessKey, c.AWSSecretAccessKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.CORSOrigin, c.CORSOrigin)
	setString(&config.LogLevel, c.LogLevel)

	if c.MapConcurrency != 0 {
		config.MapConcurrency = c.MapConcurrency
	}
	if c.EvidenceURLExpiry.Duration != 0 {
		config.EvidenceURLExpiry = c.EvidenceURLExpiry.Duration
	}
	if c.HealthProbeInterval.Duration != 0 {
		config.HealthProbeInterval = c.HealthProbeInterval.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	return nil
}
