package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "SENTRY_DSN", "PIANOKEYS_KEYBINDS", "PIANOKEYS_SOUNDFONT",
		"PIANOKEYS_RECORDINGS", "PIANOKEYS_METRONOME_BEATS", "PIANOKEYS_BPM"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "keybinds/default.txt", cfg.Keybinds)
	assert.Equal(t, "songs/recordings", cfg.Recordings)
	assert.Equal(t, 1000, cfg.MetronomeBeats)
	assert.Equal(t, 0, cfg.BPM)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PIANOKEYS_KEYBINDS", "keys/mine.txt")
	t.Setenv("PIANOKEYS_BPM", "96")
	t.Setenv("PIANOKEYS_METRONOME_BEATS", "16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "keys/mine.txt", cfg.Keybinds)
	assert.Equal(t, 96, cfg.BPM)
	assert.Equal(t, 16, cfg.MetronomeBeats)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("PIANOKEYS_METRONOME_BEATS", "")
	t.Setenv("PIANOKEYS_BPM", "fast")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PIANOKEYS_BPM")

	t.Setenv("PIANOKEYS_BPM", "-5")
	_, err = Load()
	assert.Error(t, err)
}
