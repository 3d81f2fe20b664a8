package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAndLoadConfig_Defaults(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
	assert.Equal(t, 30000, cfg.Timeout)
	assert.Equal(t, "follow", cfg.Redirect)
	assert.True(t, cfg.GetValidateSSL())
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	content := `{"cookiesFile": "cookies.json", "encoding": "latin1", "validateSSL": false, "headers": {"User-Agent": "bot"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hitfetch.json"), []byte(content), 0644))

	cfg, err := FindAndLoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, "cookies.json", cfg.CookiesFile)
	assert.Equal(t, "latin1", cfg.Encoding)
	assert.False(t, cfg.GetValidateSSL())
	assert.Equal(t, "bot", cfg.Headers["User-Agent"])
	assert.Equal(t, 30000, cfg.Timeout)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetch.yaml")
	content := `
cookiesFile: jar.json
timeout: 5000
redirect: manual
rateLimit: 2.5
headers:
  Accept: text/html
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "jar.json", cfg.CookiesFile)
	assert.Equal(t, 5000, cfg.Timeout)
	assert.Equal(t, "manual", cfg.Redirect)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, "text/html", cfg.Headers["Accept"])
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hitfetch.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"Accept": "*/*", "User-Agent": "base"}

	merged := base.Merge(&Config{
		Encoding:    "shift_jis",
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"User-Agent": "override"},
	})

	assert.Equal(t, "shift_jis", merged.Encoding)
	assert.False(t, merged.GetValidateSSL())
	assert.Equal(t, 30000, merged.Timeout)
	assert.Equal(t, map[string]string{"Accept": "*/*", "User-Agent": "override"}, merged.Headers)
	// base is not modified
	assert.Equal(t, "base", base.Headers["User-Agent"])
	assert.True(t, base.GetValidateSSL())

	assert.Same(t, base, base.Merge(nil))
}

func TestConfig_SaveAndReload(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := DefaultConfig()
			cfg.CookiesFile = "saved.json"
			cfg.MaxRedirects = 7

			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, "saved.json", loaded.CookiesFile)
			assert.Equal(t, 7, loaded.MaxRedirects)
		})
	}
}
