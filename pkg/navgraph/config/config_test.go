package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/navgraph/pkg/navgraph/config"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
)

const sampleYAML = `
history_strategy: replace
routing_mode: configured-first
use_url_fragment_hash: true
max_redirects: 3
journal:
  driver: memory
  session: main
  ttl: 90s
routes:
  - path: ["", home]
    component: home
    title: Home
  - path: users/:id
    component: user
    transition_plan: invoke-lifecycles
    data:
      auth: true
    routes:
      - path: settings
        component: user-settings
  - path: legacy
    redirect_to: home
`

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "replace", cfg.HistoryStrategy)
	assert.Equal(t, "configured-first", cfg.RoutingMode)
	assert.True(t, cfg.UseURLFragmentHash)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.Equal(t, " | ", cfg.TitleSeparator, "defaults survive decoding")

	assert.Equal(t, "memory", cfg.Journal.Driver)
	assert.Equal(t, "main", cfg.Journal.Session)
	assert.Equal(t, 90*time.Second, cfg.Journal.TTL)

	require.Len(t, cfg.Routes, 3)
	assert.Equal(t, []string{"", "home"}, cfg.Routes[0].Path)
	assert.Equal(t, []string{"users/:id"}, cfg.Routes[1].Path, "single string becomes a list")
	assert.Equal(t, "invoke-lifecycles", cfg.Routes[1].TransitionPlan)
	assert.Equal(t, true, cfg.Routes[1].Data["auth"])
	require.Len(t, cfg.Routes[1].Routes, 1)
	assert.Equal(t, "user-settings", cfg.Routes[1].Routes[0].Component)
	assert.Equal(t, "home", cfg.Routes[2].RedirectTo)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{
		"max_redirects": 5,
		"journal": {"driver": "sqlite", "path": "nav.db"},
		"routes": [{"path": "a", "component": "a"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.Equal(t, "push", cfg.HistoryStrategy)
	assert.Equal(t, "default", cfg.Journal.Session)
	assert.Equal(t, "nav.db", cfg.Journal.Path)
	assert.Equal(t, []string{"a"}, cfg.Routes[0].Path)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "router.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sampleYAML), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, cfg.Routes, 3)

	jsonPath := filepath.Join(dir, "router.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"routes": []}`), 0o600))
	_, err = config.FromFile(jsonPath)
	require.NoError(t, err)

	_, err = config.FromFile(filepath.Join(dir, "router.toml"))
	assert.Error(t, err)

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"unknown key", map[string]any{"histroy_strategy": "push"}},
		{"bad strategy", map[string]any{"history_strategy": "teleport"}},
		{"bad mode", map[string]any{"routing_mode": "anything"}},
		{"negative redirects", map[string]any{"max_redirects": -1}},
		{"bad driver", map[string]any{"journal": map[string]any{"driver": "etcd"}}},
		{"sqlite without path", map[string]any{"journal": map[string]any{"driver": "sqlite"}}},
		{"redis without address", map[string]any{"journal": map[string]any{"driver": "redis"}}},
		{"route without target", map[string]any{"routes": []any{map[string]any{"path": "a"}}}},
		{"route with both targets", map[string]any{"routes": []any{
			map[string]any{"path": "a", "component": "a", "redirect_to": "b"},
		}}},
		{"nested bad plan", map[string]any{"routes": []any{
			map[string]any{"path": "a", "component": "a", "routes": []any{
				map[string]any{"path": "b", "component": "b", "transition_plan": "sometimes"},
			}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Decode(tt.data)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestOpenJournal(t *testing.T) {
	j, err := config.JournalConfig{}.OpenJournal()
	require.NoError(t, err)
	assert.Nil(t, j)

	j, err = config.JournalConfig{Driver: "memory"}.OpenJournal()
	require.NoError(t, err)
	assert.IsType(t, &history.MemoryJournal{}, j)
	require.NoError(t, j.Close())

	j, err = config.JournalConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "j.db")}.OpenJournal()
	require.NoError(t, err)
	assert.IsType(t, &history.SQLiteJournal{}, j)
	require.NoError(t, j.Close())

	j, err = config.JournalConfig{Driver: "redis", Address: "127.0.0.1:0", Prefix: "x:", TTL: time.Minute}.OpenJournal()
	require.NoError(t, err)
	assert.IsType(t, &history.RedisJournal{}, j)
	require.NoError(t, j.Close())

	_, err = config.JournalConfig{Driver: "etcd"}.OpenJournal()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
