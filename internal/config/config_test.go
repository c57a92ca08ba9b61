package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9000"
jwt:
  secret: from-file
video:
  api_key: file-key
  room_ttl: 2h
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("VIDEO_ROOM_TTL", "90m")
	t.Setenv("CHAT_PAGE_SIZE", "25")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "file-key", cfg.Video.APIKey)
	assert.Equal(t, 90*time.Minute, cfg.Video.RoomTTL)
	assert.Equal(t, 25, cfg.Chat.PageSize)
	assert.Equal(t, "uploads", cfg.Server.StoragePath)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"8080\"\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret is required")
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: s\n")
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_OPEN_CONNS")
}

func TestPublicURL(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL())

	cfg.Server.PublicBaseURL = "https://lms.example.com/"
	assert.Equal(t, "https://lms.example.com", cfg.PublicURL())
}
