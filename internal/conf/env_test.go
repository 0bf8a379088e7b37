package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvValidators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		validate func(string) error
		value    string
		wantErr  bool
	}{
		{"bool true", validateEnvBool, "true", false},
		{"bool garbage", validateEnvBool, "yes please", true},
		{"locale en", validateEnvLocale, "en", false},
		{"locale ru-ru", validateEnvLocale, "ru-RU", false},
		{"locale bad", validateEnvLocale, "english", true},
		{"latitude ok", validateEnvLatitude, "55.7558", false},
		{"latitude high", validateEnvLatitude, "91", true},
		{"longitude ok", validateEnvLongitude, "-122.4", false},
		{"longitude not number", validateEnvLongitude, "east", true},
		{"duration ok", validateEnvDuration, "5m", false},
		{"duration negative", validateEnvDuration, "-1s", true},
		{"url ok", validateEnvURL, "https://api.open-meteo.com/v1/forecast", false},
		{"url scheme", validateEnvURL, "ftp://example.com", true},
		{"backend redis", validateEnvStoreBackend, "redis", false},
		{"backend unknown", validateEnvStoreBackend, "etcd", true},
		{"provider static", validateEnvGeolocationProvider, "static", false},
		{"provider gps", validateEnvGeolocationProvider, "gps", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.validate(tt.value)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestEnvBindingsHaveUniqueVariables(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, b := range getEnvBindings() {
		assert.False(t, seen[b.EnvVar], "duplicate binding for %s", b.EnvVar)
		seen[b.EnvVar] = true
		assert.Regexp(t, `^WEATHERDASH_`, b.EnvVar)
	}
}

func TestValidateEnvBoolMessage(t *testing.T) {
	t.Parallel()

	err := validateEnvBool("maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid boolean value")
}
