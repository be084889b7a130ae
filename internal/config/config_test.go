package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, 1, cfg.Burst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "bookbank", cfg.Telemetry.ServiceName)
	assert.False(t, cfg.AssumeYes)
	assert.Equal(t, int64(16<<20), cfg.MaxBodyBytes)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
base_url: http://books.example:8080
timeout: 3s
rate_limit: 2.5
timezone: UTC
log:
  level: debug
  pretty: true
`), 0o600))
	t.Setenv("BOOKBANK_SESSION_COOKIE", "abc")
	t.Setenv("BOOKBANK_LOG_LEVEL", "warn")

	cfg, err := Load(New(), file)
	require.NoError(t, err)
	assert.Equal(t, "http://books.example:8080", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, "abc", cfg.SessionCookie)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadFindsDefaultFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bookbank.yaml"), []byte("assume_yes: true\n"), 0o600))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.True(t, cfg.AssumeYes)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{BaseURL: DefaultBaseURL, Timezone: "Local"}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*Config){
		"empty base url":    func(c *Config) { c.BaseURL = " " },
		"negative timeout":  func(c *Config) { c.Timeout = -time.Second },
		"negative rate":     func(c *Config) { c.RateLimit = -1 },
		"negative body cap": func(c *Config) { c.MaxBodyBytes = -1 },
		"unknown time zone": func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
