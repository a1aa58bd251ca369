package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/guardian/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-n string   gRPC health bind address (e.g. ":50051")
//	-f string   storage backend: file, dynamodb, postgres, memory
//	-w string   data directory of the file backend
//	-d string   PostgreSQL DSN
//	-r string   DynamoDB region
//	-e string   DynamoDB endpoint override
//	-t string   DynamoDB table name prefix
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-s string   S3 base endpoint
//	-o string   allowed CORS origin
//	-l string   log level (debug, info, warn, error)
//
// args is filtered with flagx.FilterArgs first so flags meant for other
// components (such as -c) do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-a", "-n", "-f", "-w", "-d", "-r", "-e", "-t", "-u", "-p", "-b", "-g", "-s", "-o", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "n", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.StorageBackend, "f", config.StorageBackend, "storage backend")
	fs.StringVar(&config.DataDir, "w", config.DataDir, "data directory")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DynamoRegion, "r", config.DynamoRegion, "DynamoDB region")
	fs.StringVar(&config.DynamoEndpoint, "e", config.DynamoEndpoint, "DynamoDB endpoint")
	fs.StringVar(&config.DynamoTablePrefix, "t", config.DynamoTablePrefix, "DynamoDB table prefix")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 evidence bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.CORSOrigin, "o", config.CORSOrigin, "allowed CORS origin")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
