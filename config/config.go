// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath        = pflag.String("config", "", "Path to a config.toml file")
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"sqlite", "postgres", "local", "s3"}
)

// ErrNoSecret is returned when no JWT secret is configured. Secret holds a
// freshly generated one the operator can paste into the config.
type ErrNoSecret struct {
	Secret string
}

func (e *ErrNoSecret) Error() string {
	return "no jwt.secret configured"
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	if !pflag.Parsed() {
		pflag.Parse()
	}
	v.BindPFlags(pflag.CommandLine)

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors_origins", "host_cors_origins")
	v.BindEnv("host.secure_cookies", "host_secure_cookies")

	v.BindEnv("storage.driver", "storage_driver")
	v.BindEnv("storage.sqlite_path", "storage_sqlite_path")
	v.BindEnv("storage.postgres_dsn", "storage_postgres_dsn")
	v.BindEnv("storage.local_dir", "storage_local_dir")
	v.BindEnv("storage.import_dir", "storage_import_dir")

	v.BindEnv("s3.bucket", "s3_bucket")
	v.BindEnv("s3.region", "s3_region")
	v.BindEnv("s3.access_key", "s3_access_key")
	v.BindEnv("s3.secret_access_key", "s3_secret_access_key")
	v.BindEnv("s3.endpoint", "s3_endpoint")
	v.BindEnv("s3.prefix", "s3_prefix")

	v.BindEnv("mail.enabled", "mail_enabled")
	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.sender", "mail_sender")
	v.BindEnv("mail.password", "mail_password")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("security.require_auth", "security_require_auth")
	v.BindEnv("security.rate_limit", "security_rate_limit")

	v.BindEnv("verification.code_ttl", "verification_code_ttl")
	v.BindEnv("accounts.unverified_ttl", "accounts_unverified_ttl")
	v.BindEnv("accounts.cleanup_every", "accounts_cleanup_every")

	v.BindEnv("cache.ranking_seconds", "cache_ranking_seconds")

	v.BindEnv("cloudflare.turnstile.enabled", "cloudflare_turnstile_enabled")
	v.BindEnv("cloudflare.turnstile.secret_token", "cloudflare_turnstile_secret_token")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("host.secure_cookies", false)

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "database.db")
	v.SetDefault("storage.local_dir", "data")

	v.SetDefault("s3.region", "auto")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("security.require_auth", false)
	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("verification.code_ttl", 3*time.Minute)
	v.SetDefault("accounts.unverified_ttl", 7*24*time.Hour)
	v.SetDefault("accounts.cleanup_every", time.Hour)

	v.SetDefault("cache.ranking_seconds", 0)

	v.SetDefault("cloudflare.turnstile.enabled", false)

	// The config file is optional, env vars alone are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return validate()
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("jwt.secret") == "" {
		return &ErrNoSecret{Secret: genSecret()}
	}

	if v.GetDuration("verification.code_ttl") <= 0 {
		return errors.New("verification.code_ttl must be bigger than 0")
	}

	if v.GetInt("security.rate_limit") < 0 {
		return errors.New("security.rate_limit can't be negative")
	}

	if v.GetInt("cache.ranking_seconds") < 0 {
		return errors.New("cache.ranking_seconds can't be negative")
	}

	switch v.GetString("storage.driver") {
	case "sqlite":
		if v.GetString("storage.sqlite_path") == "" {
			return errors.New("storage.sqlite_path can't be empty")
		}
	case "postgres":
		if v.GetString("storage.postgres_dsn") == "" {
			return errors.New("storage.postgres_dsn can't be empty")
		}
	case "local":
		if v.GetString("storage.local_dir") == "" {
			return errors.New("storage.local_dir can't be empty")
		}
	case "s3":
		if v.GetString("s3.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("s3.access_key") == "" {
			return errors.New("access key can't be empty")
		}
		if v.GetString("s3.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
	default:
		return fmt.Errorf("invalid storage driver provided, expected one of %v", validStorageTypes)
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail.host can't be empty")
		}
		if v.GetString("mail.sender") == "" {
			return errors.New("mail.sender can't be empty")
		}
	}

	if v.GetDuration("accounts.unverified_ttl") > 0 && v.GetDuration("accounts.cleanup_every") <= 0 {
		return errors.New("accounts.cleanup_every must be positive")
	}

	if v.GetBool("cloudflare.turnstile.enabled") && v.GetString("cloudflare.turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}
