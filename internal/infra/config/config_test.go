package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: Config{
				Server:   ServerConfig{Addr: "127.0.0.1:4747"},
				Playback: PlaybackConfig{DefaultVolume: 0.8},
				Output:   OutputConfig{Backend: "oto"},
				Log:      LogConfig{Level: "info", Output: "stdout"},
			},
			wantErr: false,
		},
		{
			name: "volume above range",
			config: Config{
				Server:   ServerConfig{Addr: "127.0.0.1:4747"},
				Playback: PlaybackConfig{DefaultVolume: 1.5},
				Output:   OutputConfig{Backend: "oto"},
				Log:      LogConfig{Level: "info", Output: "stdout"},
			},
			wantErr: true,
			errMsg:  "DefaultVolume",
		},
		{
			name: "unknown backend",
			config: Config{
				Server:   ServerConfig{Addr: "127.0.0.1:4747"},
				Playback: PlaybackConfig{DefaultVolume: 1.0},
				Output:   OutputConfig{Backend: "pulse"},
				Log:      LogConfig{Level: "info", Output: "stdout"},
			},
			wantErr: true,
			errMsg:  "Backend",
		},
		{
			name: "unknown log level",
			config: Config{
				Server:   ServerConfig{Addr: "127.0.0.1:4747"},
				Playback: PlaybackConfig{DefaultVolume: 1.0},
				Output:   OutputConfig{Backend: "null"},
				Log:      LogConfig{Level: "loud", Output: "stdout"},
			},
			wantErr: true,
			errMsg:  "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  addr: "0.0.0.0:9000"
playback:
  default_volume: 0.5
output:
  backend: null_sink_is_invalid_here
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	assert.Error(t, err, "invalid backend should fail validation")

	data = `
server:
  addr: "0.0.0.0:9000"
playback:
  default_volume: 0.5
output:
  backend: "null"
  settings:
    time_scale: 0
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, 0.5, cfg.Playback.DefaultVolume)
	assert.Equal(t, "null", cfg.Output.Backend)
	assert.Equal(t, "info", cfg.Log.Level, "unset fields take defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4747", cfg.Server.Addr)
	assert.Equal(t, 1.0, cfg.Playback.DefaultVolume)
	assert.Equal(t, "oto", cfg.Output.Backend)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("QPLAY_ADDR", "127.0.0.1:5555")
	t.Setenv("QPLAY_VOLUME", "0.25")

	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5555", cfg.Server.Addr)
	assert.Equal(t, 0.25, cfg.Playback.DefaultVolume)
}
