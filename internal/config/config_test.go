package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine.json", `{
		"production_tolerance_factor": 2.5,
		"sanitize_threshold": 30000,
		"resample_frequency_hz": 200,
		"model_dir": "/var/lib/torque/models",
		"history_db_path": "/var/lib/torque/history.db"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, cfg.GetProductionToleranceFactor(), 1e-9)
	assert.InDelta(t, 30000, cfg.GetSanitizeThreshold(), 1e-9)
	assert.InDelta(t, 200, cfg.GetResampleFrequencyHz(), 1e-9)
	assert.Equal(t, "/var/lib/torque/models", cfg.GetModelDir())
	assert.Equal(t, "/var/lib/torque/history.db", cfg.GetHistoryDBPath())
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine.json", `{"production_tolerance_factor": 4.0}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, cfg.GetProductionToleranceFactor(), 1e-9)
	assert.InDelta(t, DefaultSanitizeLimit, cfg.GetSanitizeThreshold(), 1e-9)
	assert.InDelta(t, DefaultResampleHz, cfg.GetResampleFrequencyHz(), 1e-9)
	assert.Equal(t, DefaultModelDir, cfg.GetModelDir())
	assert.Equal(t, "", cfg.GetHistoryDBPath())
}

func TestLoad_RejectsNonJSONExtension(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine.yaml", `{}`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".json extension")
}

func TestLoad_RejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "engine.json", `{"model_dir": `)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config JSON")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty is valid", cfg: Config{}},
		{name: "positive values valid", cfg: Config{
			ProductionToleranceFactor: f(3),
			SanitizeThreshold:         f(32000),
			ResampleFrequencyHz:       f(100),
		}},
		{name: "zero tolerance rejected", cfg: Config{ProductionToleranceFactor: f(0)}, wantErr: "production_tolerance_factor"},
		{name: "negative threshold rejected", cfg: Config{SanitizeThreshold: f(-1)}, wantErr: "sanitize_threshold"},
		{name: "zero frequency rejected", cfg: Config{ResampleFrequencyHz: f(0)}, wantErr: "resample_frequency_hz"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestGetters_NilConfig(t *testing.T) {
	t.Parallel()

	var cfg *Config
	assert.InDelta(t, DefaultToleranceFactor, cfg.GetProductionToleranceFactor(), 1e-9)
	assert.Equal(t, DefaultModelDir, cfg.GetModelDir())
	assert.Equal(t, "", cfg.GetHistoryDBPath())
}
