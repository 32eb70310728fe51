package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_TTL_HOURS", "")

	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "Asia/Shanghai", cfg.Timezone)
	assert.Error(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		tz      string
		wantErr bool
	}{
		{name: "missing secret", secret: "", tz: "UTC", wantErr: true},
		{name: "short secret", secret: "short", tz: "UTC", wantErr: true},
		{name: "bad timezone", secret: "0123456789abcdef0123456789abcdef", tz: "Mars/Olympus", wantErr: true},
		{name: "valid", secret: "0123456789abcdef0123456789abcdef", tz: "UTC", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{JWTSecret: tt.secret, Timezone: tt.tz}
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvalidTTLFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL_HOURS", "-3")
	assert.Equal(t, 24*time.Hour, FromEnv().TokenTTL)
}
