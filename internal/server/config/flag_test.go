package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected func(*Config)
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", ":8181", "-n", ":6000", "-f", "postgres", "-w", "/var/lib/guardian",
				"-d", "db", "-r", "us-west-2", "-e", "http://localhost:8000", "-t", "dev_",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1",
				"-s", "http://minio", "-o", "https://app", "-l", "debug",
			},
			expected: func(c *Config) {
				c.EndpointAddrHTTP = ":8181"
				c.EndpointAddrGRPC = ":6000"
				c.StorageBackend = "postgres"
				c.DataDir = "/var/lib/guardian"
				c.DatabaseDSN = "db"
				c.DynamoRegion = "us-west-2"
				c.DynamoEndpoint = "http://localhost:8000"
				c.DynamoTablePrefix = "dev_"
				c.S3RootUser = "user"
				c.S3RootPassword = "password"
				c.S3Bucket = "bucket"
				c.S3Region = "us-west-1"
				c.S3BaseEndpoint = "http://minio"
				c.CORSOrigin = "https://app"
				c.LogLevel = "debug"
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.json", "-x", "1", "-a=:9999"},
			expected: func(c *Config) { c.EndpointAddrHTTP = ":9999" },
		},
		{
			name:    "missing value",
			args:    []string{"-a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Config
			got.LoadDefaults()
			err := parseFlags(&got, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			var want Config
			want.LoadDefaults()
			tt.expected(&want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
