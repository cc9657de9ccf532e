package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 60*time.Second, cfg.Reference.TTL)
	assert.Equal(t, ',', cfg.Reference.Delimiter)
	assert.Equal(t, "user_id", cfg.Auth.UserIDClaim)
	assert.Greater(t, cfg.Quotes.Concurrency, 0)
	assert.Equal(t, ProviderYahoo, cfg.Quotes.Provider)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("REFERENCE_TTL", "15")
	t.Setenv("REFERENCE_DELIMITER", "pipe")
	t.Setenv("QUOTES_TIMEOUT", "2s")
	t.Setenv("QUOTES_PROVIDER", "YFinance")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 15*time.Second, cfg.Reference.TTL)
	assert.Equal(t, '|', cfg.Reference.Delimiter)
	assert.Equal(t, 2*time.Second, cfg.Quotes.Timeout)
	assert.Equal(t, ProviderYFinance, cfg.Quotes.Provider)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("QUOTES_PROVIDER", "bloomberg")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: ",", want: ','},
		{in: ";", want: ';'},
		{in: "tab", want: '\t'},
		{in: "pipe", want: '|'},
		{in: "||", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDelimiter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
