package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "GUARDIAN_"

// dotenvFile is loaded into the process environment when present. Variables
// already set in the environment win over the file.
var dotenvFile = ".env"

func loadDotenv() error {
	err := godotenv.Load(dotenvFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	if err := loadDotenv(); err != nil {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}

	strs := map[string]*string{
		"HTTP_ADDR":             &config.EndpointAddrHTTP,
		"GRPC_ADDR":             &config.EndpointAddrGRPC,
		"STORAGE_BACKEND":       &config.StorageBackend,
		"DATA_DIR":              &config.DataDir,
		"DATABASE_DSN":          &config.DatabaseDSN,
		"DYNAMO_REGION":         &config.DynamoRegion,
		"DYNAMO_ENDPOINT":       &config.DynamoEndpoint,
		"DYNAMO_TABLE_PREFIX":   &config.DynamoTablePrefix,
		"AWS_ACCESS_KEY_ID":     &config.AWSAccessKeyID,
		"AWS_SECRET_ACCESS_KEY": &config.AWSSecretAccessKey,
		"S3_ROOT_USER":          &config.S3RootUser,
		"S3_ROOT_PASSWORD":      &config.S3RootPassword,
		"S3_BUCKET":             &config.S3Bucket,
		"S3_REGION":             &config.S3Region,
		"S3_BASE_ENDPOINT":      &config.S3BaseEndpoint,
		"CORS_ORIGIN":           &config.CORSOrigin,
		"LOG_LEVEL":             &config.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"EVIDENCE_URL_EXPIRY":   &config.EvidenceURLExpiry,
		"HEALTH_PROBE_INTERVAL": &config.HealthProbeInterval,
		"SHUTDOWN_TIMEOUT":      &config.ShutdownTimeout,
	}
	for name, dst := range durations {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
	}

	if v, ok := lookup(EnvPrefix + "MAP_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAP_CONCURRENCY: %w", EnvPrefix, err)
		}
		config.MapConcurrency = n
	}
	return nil
}
