package config

import (
	"testing"
	"time"

	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setValid(t *testing.T) {
	t.Helper()
	v.Reset()
	t.Cleanup(v.Reset)

	v.Set("app.log_level", "info")
	v.Set("host.port", 8080)
	v.Set("jwt.secret", "secret")
	v.Set("verification.code_ttl", 3*time.Minute)
	v.Set("storage.driver", "local")
	v.Set("storage.local_dir", "data")
}

func TestValidateAcceptsMinimalConfig(t *testing.T) {
	setValid(t)
	assert.NoError(t, validate())
}

func TestValidateMissingSecret(t *testing.T) {
	setValid(t)
	v.Set("jwt.secret", "")

	err := validate()

	var noSecret *ErrNoSecret
	require.ErrorAs(t, err, &noSecret)
	assert.Len(t, noSecret.Secret, 128)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"log level", "app.log_level", "verbose"},
		{"port", "host.port", 0},
		{"driver", "storage.driver", "mysql"},
		{"ttl", "verification.code_ttl", time.Duration(0)},
		{"rate limit", "security.rate_limit", -1},
		{"s3 without bucket", "storage.driver", "s3"},
		{"turnstile without secret", "cloudflare.turnstile.enabled", true},
		{"mail without host", "mail.enabled", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValid(t)
			v.Set(tt.key, tt.value)
			assert.Error(t, validate())
		})
	}
}
