package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DEFAULT_DURATION_MINUTES", "FAKE_ARTIST_FIRST_BIAS_PERCENT", "NATS_URL", "PUBLIC_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := FromEnv()
	assert.Equal(t, "0.0.0.0:8080", cfg.GetAddr())
	assert.Equal(t, 10, cfg.Game.DefaultDurationMinutes)
	assert.Equal(t, 99, cfg.Game.FakeArtistFirstBiasPercent)
	assert.Equal(t, 2*time.Hour, cfg.Game.StaleSessionTimeout)
	assert.Equal(t, time.Minute, cfg.Clock.SyncInterval)
	assert.Empty(t, cfg.NATS.URL)
	assert.True(t, cfg.IsDevelopment())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("MAX_PARTICIPANTS", " 6 ")
	t.Setenv("MIN_PARTICIPANTS", "lots")
	t.Setenv("CLOCK_SYNC_INTERVAL_SECONDS", "15")
	t.Setenv("PUBLIC_URL", "https://play.example.com/")

	cfg := FromEnv()
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 6, cfg.Game.MaxParticipants)
	assert.Equal(t, 2, cfg.Game.MinParticipants, "unparsable values fall back to the default")
	assert.Equal(t, 15*time.Second, cfg.Clock.SyncInterval)
	assert.Equal(t, "https://play.example.com", cfg.Server.PublicURL)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WORD_BANK_DIR=/srv/words\nRANDOM_SEED=7\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv never overrides variables that are already set
	t.Setenv("WORD_BANK_DIR", "")
	os.Unsetenv("WORD_BANK_DIR")
	t.Setenv("RANDOM_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/words", cfg.Game.WordBankDir)
	assert.Equal(t, int64(42), cfg.Game.RandomSeed)
	os.Unsetenv("WORD_BANK_DIR")
}

func TestLoad_WithoutDotEnv(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = Load()
	assert.NoError(t, err)
}
