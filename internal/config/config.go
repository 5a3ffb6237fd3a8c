package config

import (
	"os"
	"strconv"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
)

// Config holds the application configuration, read from the environment.
type Config struct {
	// Environment
	Environment string

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Files
	Keybinds   string // keybind file loaded at start
	Soundfont  string // soundfont used when neither song nor keybinds name one
	Recordings string // directory for generated recording files

	// Playback
	MetronomeBeats int // beats scheduled per metronome start
	BPM            int // tempo for songs without a bpm line, 0 keeps raw ticks
}

func Load() (*Config, error) {
	beats, err := getEnvInt("PIANOKEYS_METRONOME_BEATS", 1000)
	if err != nil {
		return nil, err
	}
	bpm, err := getEnvInt("PIANOKEYS_BPM", 0)
	if err != nil {
		return nil, err
	}
	return &Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		Keybinds:       getEnv("PIANOKEYS_KEYBINDS", "keybinds/default.txt"),
		Soundfont:      getEnv("PIANOKEYS_SOUNDFONT", ""),
		Recordings:     getEnv("PIANOKEYS_RECORDINGS", "songs/recordings"),
		MetronomeBeats: beats,
		BPM:            bpm,
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt fails on a set but malformed value instead of falling back.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fault.New(key+" must be a non-negative integer, got "+strconv.Quote(value), fmsg.With("load config"))
	}
	return n, nil
}
