package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MONEYVAULT_CONFIG", "")
	t.Chdir(t.TempDir())

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "share", "moneyvault", "default.nmoney"), c.Ledger.Path)
	require.Equal(t, "info", c.Log.Level)
	require.Equal(t, filepath.Join(home, ".local", "share", "moneyvault", "rates.db"), c.Rates.CachePath)
	require.Empty(t, c.Rates.Static)
}

func TestSaveAndLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MONEYVAULT_CONFIG", filepath.Join(home, "cfg", "config.toml"))
	t.Chdir(t.TempDir())

	want := Config{
		Ledger: LedgerConfig{Path: "/tmp/a.nmoney", Locale: "de_DE"},
		Import: ImportConfig{TransactionColor: "#112233ff", GroupColor: "#445566ff"},
		Log:    LogConfig{Level: "debug"},
		Rates:  RatesConfig{CachePath: "/tmp/rates.db", Static: map[string]string{"eur:usd": "1.1"}},
	}
	require.NoError(t, Save(want))
	_, err := os.Stat(filepath.Join(home, "cfg", "config.toml"))
	require.NoError(t, err)

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MONEYVAULT_CONFIG", "")
	t.Setenv("MONEYVAULT_LOG_LEVEL", "warn")
	t.Setenv("MONEYVAULT_LEDGER_PATH", "/srv/books.nmoney")
	t.Chdir(t.TempDir())

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "warn", c.Log.Level)
	require.Equal(t, "/srv/books.nmoney", c.Ledger.Path)
}

func TestDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MONEYVAULT_CONFIG", "")
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MONEYVAULT_LEDGER_LOCALE=fr_FR\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MONEYVAULT_LEDGER_LOCALE") })

	c, err := Load()
	require.NoError(t, err)
	require.Equal(t, "fr_FR", c.Ledger.Locale)
}
