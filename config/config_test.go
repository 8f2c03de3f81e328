package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "rod", cfg.Browser.Engine)
	assert.Equal(t, "https://www.tabroom.com/index/paradigm.mhtml", cfg.Site.SearchURL())
	assert.Equal(t, "https://www.tabroom.com/user/login/login.mhtml", cfg.Site.LoginURL())
	assert.Equal(t, 45*time.Second, cfg.Scraper.RecordTableTimeout)
	assert.Equal(t, 8*time.Second, cfg.Scraper.SettleInterval)
	assert.Equal(t, 3, cfg.Site.MaxRetries)
	assert.True(t, cfg.Scraper.Correlate)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JUDGETRACK_ENGINE", "http")
	t.Setenv("JUDGETRACK_SETTLE", "250ms")
	t.Setenv("JUDGETRACK_WORKERS", "3")
	t.Setenv("JUDGETRACK_BLOCKED_RESOURCES", "Image, Script,")

	cfg := Load()
	assert.Equal(t, "http", cfg.Browser.Engine)
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.SettleInterval)
	assert.Equal(t, 3, cfg.Scraper.Workers)
	assert.Equal(t, []string{"Image", "Script"}, cfg.Browser.BlockedResourceTypes)
}

func TestSiteConfig_Resolve(t *testing.T) {
	site := SiteConfig{BaseURL: "https://www.tabroom.com"}

	assert.Equal(t, "https://www.tabroom.com/index/tourn/judges.mhtml?tourn_id=1",
		site.Resolve("/index/tourn/judges.mhtml?tourn_id=1"))
	assert.Equal(t, "https://example.org/x", site.Resolve("https://example.org/x"))
}

func TestLoadFile_MergesLocalOverride(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "judgetrack.json5")
	local := filepath.Join(dir, "judgetrack.local.json5")

	require.NoError(t, os.WriteFile(base, []byte(`{
		// shared settings
		site: { email: "team@example.com", password: "shared" },
		store: { path: "judges.db" },
	}`), 0o644))
	require.NoError(t, os.WriteFile(local, []byte(`{
		site: { password: "secret" },
	}`), 0o644))

	cfg, err := LoadFile(base)
	require.NoError(t, err)

	assert.Equal(t, "team@example.com", cfg.Site.Email)
	assert.Equal(t, "secret", cfg.Site.Password)
	assert.Equal(t, "judges.db", cfg.Store.Path)
	// untouched defaults survive the merge
	assert.Equal(t, "https://www.tabroom.com", cfg.Site.BaseURL)
	assert.True(t, cfg.Site.HasCredentials())
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.json5"))
	require.NoError(t, err)
	assert.Equal(t, "rod", cfg.Browser.Engine)
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ site: `), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}
