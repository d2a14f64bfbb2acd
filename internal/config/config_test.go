package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, []string{"OpenAI", "Gemini", "Claude"}, cfg.Backends)
	assert.Equal(t, 2*time.Minute, cfg.GenerateTimeout)
	assert.Equal(t, 4000, cfg.MaxMessageLength)
	assert.Equal(t, ":thought_balloon:", cfg.Texts.Thinking)
	assert.Equal(t, "socket", cfg.Slack.Mode)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("LLM_BACKENDS", "Claude;Echo=stub")
	t.Setenv("ALLOWED_USERS", "U1;U2")
	t.Setenv("GENERATE_TIMEOUT", "30s")
	t.Setenv("GEMINI_MODEL", "gemini-pro")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("TEXT_THINKING", ":hourglass:")

	cfg, err := Load([]string{"-max-message-length", "1000", "-slack-mode", "http"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Claude", "Echo=stub"}, cfg.Backends)
	assert.Equal(t, []string{"U1", "U2"}, cfg.AllowedUsers)
	assert.Equal(t, 30*time.Second, cfg.GenerateTimeout)
	assert.Equal(t, "gemini-pro", cfg.Gemini.Model)
	assert.Equal(t, 1000, cfg.MaxMessageLength)
	assert.Equal(t, "http", cfg.Slack.Mode)
	assert.Equal(t, ":hourglass:", cfg.Texts.Thinking)
	assert.True(t, cfg.Slack.Enabled())
	assert.False(t, cfg.Twitch.Enabled())
}

func TestLoadBackendsFlag(t *testing.T) {
	cfg, err := Load([]string{"-backends", " Gemini ; ;OpenAI"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gemini", "OpenAI"}, cfg.Backends)
}

func TestLoadAllowedUsersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Alice": "U2", "Bob": "U1", "Nobody": ""}`), 0o600))

	ids, err := LoadAllowedUsers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"U1", "U2"}, ids)

	cfg, err := Load([]string{"-allowed-users", "*", "-allowed-users-file", path})
	require.NoError(t, err)
	assert.Equal(t, []string{"*", "U1", "U2"}, cfg.AllowedUsers)
}

func TestLoadAllowedUsersFileErrors(t *testing.T) {
	_, err := LoadAllowedUsers(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`["U1"]`), 0o600))
	_, err = LoadAllowedUsers(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"no backends":    func(c *Config) { c.Backends = nil },
		"zero length":    func(c *Config) { c.MaxMessageLength = 0 },
		"same role tags": func(c *Config) { c.AssistantRoleTag = c.UserRoleTag },
		"empty role tag": func(c *Config) { c.UserRoleTag = "" },
		"bad slack mode": func(c *Config) { c.Slack.Mode = "webhook" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadBadFlag(t *testing.T) {
	_, err := Load([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestTwitchEnabled(t *testing.T) {
	assert.True(t, TwitchConfig{Username: "bot", OAuth: "tok", Channel: "chan"}.Enabled())
	assert.False(t, TwitchConfig{Username: "bot", OAuth: "tok"}.Enabled())
}
