package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskhub/internal/flagx"
	"github.com/dmitrijs2005/taskhub/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for TTL fields, which allows parsing both
// string values such as "15m" and integer nanoseconds.
//
// It is seeded from the current Config before unmarshalling, so keys missing
// from the file keep their previous values.
type JsonConfig struct {
	EndpointAddrHTTP   string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC   string         `json:"endpoint_addr_grpc"`
	DatabaseDSN        string         `json:"database_dsn"`
	AccessTokenSecret  string         `json:"access_token_secret"`
	RefreshTokenSecret string         `json:"refresh_token_secret"`
	AccessTokenTTL     timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL    timex.Duration `json:"refresh_token_ttl"`
	CookieSecure       bool           `json:"cookie_secure"`
	BcryptCost         int            `json:"bcrypt_cost"`
	AdminLogin         string         `json:"admin_login"`
	AdminPassword      string         `json:"admin_password"`
	ResetAdminPassword bool           `json:"reset_admin_password"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	MaxFileSize        int64          `json:"max_file_size"`
	LogBackend         string         `json:"log_backend"`
	LogLevel           string         `json:"log_level"`
	LogFormat          string         `json:"log_format"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:   c.EndpointAddrHTTP,
		EndpointAddrGRPC:   c.EndpointAddrGRPC,
		DatabaseDSN:        c.DatabaseDSN,
		AccessTokenSecret:  c.AccessTokenSecret,
		RefreshTokenSecret: c.RefreshTokenSecret,
		AccessTokenTTL:     timex.Duration{Duration: c.AccessTokenTTL},
		RefreshTokenTTL:    timex.Duration{Duration: c.RefreshTokenTTL},
		CookieSecure:       c.CookieSecure,
		BcryptCost:         c.BcryptCost,
		AdminLogin:         c.AdminLogin,
		AdminPassword:      c.AdminPassword,
		ResetAdminPassword: c.ResetAdminPassword,
		S3RootUser:         c.S3RootUser,
		S3RootPassword:     c.S3RootPassword,
		S3Bucket:           c.S3Bucket,
		S3Region:           c.S3Region,
		S3BaseEndpoint:     c.S3BaseEndpoint,
		MaxFileSize:        c.MaxFileSize,
		LogBackend:         c.LogBackend,
		LogLevel:           c.LogLevel,
		LogFormat:          c.LogFormat,
	}
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is set nothing is loaded.
//
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.AccessTokenSecret = c.AccessTokenSecret
	config.RefreshTokenSecret = c.RefreshTokenSecret
	config.AccessTokenTTL = c.AccessTokenTTL.Duration
	config.RefreshTokenTTL = c.RefreshTokenTTL.Duration
	config.CookieSecure = c.CookieSecure
	config.BcryptCost = c.BcryptCost
	config.AdminLogin = c.AdminLogin
	config.AdminPassword = c.AdminPassword
	config.ResetAdminPassword = c.ResetAdminPassword
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.MaxFileSize = c.MaxFileSize
	config.LogBackend = c.LogBackend
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
}
