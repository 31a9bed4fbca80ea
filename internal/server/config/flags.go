package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/taskhub/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g., ":8080")
//	-grpc string    gRPC bind address (e.g., ":50051")
//	-d string       PostgreSQL DSN
//	-as string      access token secret
//	-rs string      refresh token secret
//	-t duration     access token TTL (e.g., 15m)
//	-r duration     refresh token TTL (e.g., 168h)
//	-secure-cookie  mark the refresh cookie Secure
//	-u string       S3 root user
//	-p string       S3 root password
//	-b string       S3 bucket name
//	-g string       S3 region
//	-e string       S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string       log level
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so -c/-config and -env do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-grpc", "-d", "-as", "-rs", "-t", "-r", "-secure-cookie",
		"-u", "-p", "-b", "-g", "-e", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "grpc", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenSecret, "as", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "rs", config.RefreshTokenSecret, "refresh token secret")
	fs.DurationVar(&config.AccessTokenTTL, "t", config.AccessTokenTTL, "access token ttl")
	fs.DurationVar(&config.RefreshTokenTTL, "r", config.RefreshTokenTTL, "refresh token ttl")
	fs.BoolVar(&config.CookieSecure, "secure-cookie", config.CookieSecure, "set Secure on the refresh cookie")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
