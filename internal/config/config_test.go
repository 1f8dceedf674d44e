package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "Europe/London", cfg.Checker.DefaultTimezone)
	assert.Equal(t, 10, cfg.Checker.CacheSize)
	assert.Equal(t, 2*time.Second, cfg.Checker.DeleteDelay)
	assert.Equal(t, 10*time.Second, cfg.Checker.LockTimeout)
	assert.True(t, cfg.Checker.JokeRules)
	assert.Equal(t, 10*time.Second, cfg.Bot.PollTimeout)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
bot:
  token: from-file
database:
  host: db.internal
checker:
  default_timezone: America/New_York
  joke_rules: false
admin:
  ids: [1, 2]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("CHECKER_DELETE_DELAY", "5s")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "America/New_York", cfg.Checker.DefaultTimezone)
	assert.False(t, cfg.Checker.JokeRules)
	assert.Equal(t, 5*time.Second, cfg.Checker.DeleteDelay)
	assert.Equal(t, []int64{1, 2}, cfg.Admin.IDs)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 1234, User: "u", Password: "p", Name: "n"}
	assert.Equal(t, "postgres://u:p@h:1234/n?sslmode=disable", d.DSN())
}

// TestIsChatAllowedProperty checks whitelist membership, empty allowing all.
func TestIsChatAllowedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfN(rapid.Int64Range(-1000, -1), 0, 10).Draw(t, "chats")
		chatID := rapid.Int64Range(-1000, -1).Draw(t, "chatID")

		cfg := &Config{Whitelist: WhitelistConfig{Chats: chats}}

		expected := len(chats) == 0
		for _, id := range chats {
			if id == chatID {
				expected = true
			}
		}
		if cfg.IsChatAllowed(chatID) != expected {
			t.Fatalf("IsChatAllowed(%d) with chats=%v: expected %v", chatID, chats, expected)
		}
	})
}
