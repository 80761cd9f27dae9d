package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inaups/inaups/pkg/display"
)

func TestDefaults(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "1", f.Bus())
	assert.Equal(t, uint16(0x43), f.Address())
	assert.Equal(t, 5, f.ShutdownThreshold())
	assert.Equal(t, 5*time.Second, f.Delay())
	assert.Equal(t, 5*time.Second, f.Grace())
	assert.Equal(t, "@every 10s", f.PollInterval())
	assert.Equal(t, "live", f.SampleMode())
	assert.Equal(t, "logind", f.ShutdownMethod())
	assert.Equal(t, []string{"shutdown", "-h", "now"}, f.ShutdownCommand())
	assert.False(t, f.AllowNonRootAccess())
	assert.Equal(t, display.Position{X: 150, Y: 0}, f.UPSPosition())
	assert.Equal(t, display.Position{X: 150, Y: 10}, f.VoltPosition())
	assert.NoError(t, f.Validate())
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "inaups.toml",
			content: `
address = 64
shutdown = 20
delay_seconds = 3
sample_mode = "snapshot"
ups_x_coord = 1
ups_y_coord = 2
vol_x_coord = 3
vol_y_coord = 4
`,
		},
		{
			name: "yaml",
			file: "inaups.yaml",
			content: `
address: 0x40
shutdown: 20
delay_seconds: 3
sample_mode: snapshot
ups_x_coord: 1
ups_y_coord: 2
vol_x_coord: 3
vol_y_coord: 4
`,
		},
		{
			name: "json",
			file: "inaups.json",
			content: `{
  "address": 64,
  "shutdown": 20,
  "delaySeconds": 3,
  "sampleMode": "snapshot",
  "upsX": 1,
  "upsY": 2,
  "volX": 3,
  "volY": 4
}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			f, err := NewFile(path)
			require.NoError(t, err)

			assert.Equal(t, uint16(0x40), f.Address())
			assert.Equal(t, 20, f.ShutdownThreshold())
			assert.Equal(t, 3*time.Second, f.Delay())
			assert.Equal(t, "snapshot", f.SampleMode())
			assert.Equal(t, display.Position{X: 1, Y: 2}, f.UPSPosition())
			assert.Equal(t, display.Position{X: 3, Y: 4}, f.VoltPosition())
			// Unset values fall back to the defaults.
			assert.Equal(t, "1", f.Bus())
			assert.Equal(t, 5*time.Second, f.Grace())
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	for _, ext := range []string{".json", ".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "inaups"+ext)

			f, err := NewFile(path)
			require.NoError(t, err)
			f.SetShutdownThreshold(15)
			f.SetAllowNonRootAccess(true)
			require.NoError(t, f.Save())

			reloaded, err := NewFile(path)
			require.NoError(t, err)
			assert.Equal(t, 15, reloaded.ShutdownThreshold())
			assert.True(t, reloaded.AllowNonRootAccess())
		})
	}
}

func TestReloadKeepsValuesOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inaups.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"shutdown":20}`), 0644))

	f, err := NewFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"shutdown":150,"sampleMode":"bogus"}`), 0644))
	assert.Error(t, f.Reload())
	assert.Equal(t, 20, f.ShutdownThreshold())
	assert.Equal(t, "live", f.SampleMode())
	assert.NoError(t, f.Validate())

	require.NoError(t, os.WriteFile(path, []byte(`{"shutdown":`), 0644))
	assert.Error(t, f.Reload())
	assert.Equal(t, 20, f.ShutdownThreshold())

	require.NoError(t, os.WriteFile(path, []byte(`{"shutdown":30}`), 0644))
	require.NoError(t, f.Reload())
	assert.Equal(t, 30, f.ShutdownThreshold())
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inaups.toml")
	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0644))

	f, err := NewFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, f.ShutdownThreshold())
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "inaups.ini"))
	assert.Error(t, err)
}

func TestNewRawFileConfigFromConfig(t *testing.T) {
	f := NewFileFromConfig(nil, "inaups.json")
	f.SetShutdownThreshold(30)

	raw, err := NewRawFileConfigFromConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 30, *raw.ShutdownThreshold)
	assert.Equal(t, 5, *raw.DelaySeconds)
	assert.Equal(t, 150, *raw.UPSX)

	_, err = NewRawFileConfigFromConfig(nil)
	assert.Error(t, err)
}

func TestSetShutdownThresholdOutOfRange(t *testing.T) {
	f := NewFileFromConfig(nil, "inaups.json")
	assert.Panics(t, func() { f.SetShutdownThreshold(101) })
	assert.Panics(t, func() { f.SetShutdownThreshold(-1) })
}
