package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donor-analytics/internal/config"
)

// runCLI executes a fresh root command against an isolated database.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENV", "development")
	t.Setenv("REPORT_SCHEDULE", "")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	base := []string{"--db", dbPath, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "--log-level", "error"}
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, filepath.Join(t.TempDir(), "v.sqlite"), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "donor-analytics dev"))

	out, err = runCLI(t, filepath.Join(t.TempDir(), "v.sqlite"), "version", "-o", "json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
}

func TestMigrateSeedProbe(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.sqlite")

	out, err := runCLI(t, dbPath, "migrate", "-o", "json")
	require.NoError(t, err)
	var mig map[string]int64
	require.NoError(t, json.Unmarshal([]byte(out), &mig))
	assert.EqualValues(t, 2, mig["schema_version"])

	out, err = runCLI(t, dbPath, "seed", "--count", "40")
	require.NoError(t, err)
	assert.Equal(t, "inserted 40 donations\n", out)

	// Seeding again is a no-op.
	out, err = runCLI(t, dbPath, "seed", "--count", "40", "-o", "json")
	require.NoError(t, err)
	var seeded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &seeded))
	assert.EqualValues(t, 0, seeded["inserted"])

	out, err = runCLI(t, dbPath, "probe")
	require.NoError(t, err)
	var res struct {
		Healthy bool `json:"healthy"`
		Pool    struct {
			Size int `json:"size"`
		} `json:"pool"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Healthy)
	assert.Positive(t, res.Pool.Size)
}

func TestSeed_RejectsNonPositiveCount(t *testing.T) {
	_, err := runCLI(t, filepath.Join(t.TempDir(), "s.sqlite"), "seed", "--count", "0")
	require.ErrorContains(t, err, "--count must be positive")
}

func TestInvalidOutputFormat(t *testing.T) {
	_, err := runCLI(t, filepath.Join(t.TempDir(), "o.sqlite"), "migrate", "-o", "yaml")
	require.ErrorContains(t, err, "unsupported output format")
}

func TestInvalidConfigRejected(t *testing.T) {
	t.Setenv("VERY_SLOW_QUERY_THRESHOLD", "10ms")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate", "--db", filepath.Join(t.TempDir(), "c.sqlite"), "--env-file", filepath.Join(t.TempDir(), "none")})
	err := cmd.Execute()
	require.ErrorContains(t, err, "VERY_SLOW_QUERY_THRESHOLD")
}

func TestConfigFileFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("monitoring:\n  slow_query_threshold: 10s\n"), 0o600))

	t.Setenv("CONFIG_FILE", "")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate", "--config", cfgPath, "--db", filepath.Join(dir, "f.sqlite"), "--env-file", filepath.Join(dir, "none")})
	// 10s slow exceeds the 5s very-slow default.
	require.ErrorContains(t, cmd.Execute(), "must exceed SLOW_QUERY_THRESHOLD")
}

func TestApplyFlagOverrides(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse([]string{"--db", "/tmp/x.sqlite"}))

	cfg := config.Default()
	applyFlagOverrides(fs, cfg)
	assert.Equal(t, "/tmp/x.sqlite", cfg.MetaDBPath)
	assert.Equal(t, "info", cfg.LogLevel, "unset flag leaves value")
	assert.Equal(t, ":8080", cfg.ListenAddr, "undefined flag is skipped")
}
