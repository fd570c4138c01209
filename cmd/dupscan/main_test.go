package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupscan/internal/testsupport"
)

type cliTestEnv struct {
	root       string
	configPath string
	reportPath string
	dbPath     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	env := &cliTestEnv{
		root:       filepath.Join(base, "tree"),
		configPath: filepath.Join(base, "config.toml"),
		reportPath: filepath.Join(base, "out", "local_duplicates.txt"),
		dbPath:     filepath.Join(base, "state", "history.db"),
	}
	testsupport.WriteTree(t, afero.NewOsFs(), env.root, map[string]string{
		"a.txt":       "hello",
		"b.txt":       "hello",
		"c.txt":       "world",
		"nested/d.md": "hello",
		"solo.bin":    "only one of these",
	})

	content := fmt.Sprintf(`[scan]
root = %q
workers = 2

[report]
path = %q

[history]
db_path = %q

[logging]
level = "error"
`, env.root, env.reportPath, env.dbPath)
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0o644))
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestScanCommandPrintsDuplicates(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"scan"}, env.configPath)
	require.NoError(t, err)

	assert.Contains(t, out, "--- Duplicate Files Found ---")
	assert.Contains(t, out, "Hash: 5d41402abc4b2a76b9719d911017c592\n")
	assert.Contains(t, out, "  - "+filepath.Join(env.root, "a.txt")+"\n")
	assert.Contains(t, out, "  - "+filepath.Join(env.root, "nested", "d.md")+"\n")
	assert.Contains(t, out, "Total unique duplicate sets: 1")
	assert.Contains(t, out, "Total individual duplicate files (extra copies): 2")
	assert.NotContains(t, out, "solo.bin")
	assert.True(t, strings.HasPrefix(out, "Scanning '"+env.root+"' for duplicate files...\n"))
	assert.Contains(t, out, "List of duplicate files also saved to '"+env.reportPath+"'")

	data, err := os.ReadFile(env.reportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "--- Duplicate Files Found ---\n"))
	assert.FileExists(t, env.dbPath)
}

func TestScanCommandExplicitRootAndFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	other := t.TempDir()
	testsupport.WriteTree(t, afero.NewOsFs(), other, map[string]string{"x": "1", "y": "2"})
	jsonReport := filepath.Join(t.TempDir(), "dups.json")

	out, _, err := runCLI(t, []string{"scan", other, "--output", jsonReport, "--format", "json", "--no-history"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Scanning '"+other+"'")
	assert.Contains(t, out, "No duplicate files found based on content.")
	assert.Contains(t, out, "also saved to '"+jsonReport+"'")

	data, err := os.ReadFile(jsonReport)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.NoFileExists(t, env.dbPath)
	assert.NoFileExists(t, env.reportPath)
}

func TestScanCommandJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"scan", "--json", "--no-report", "--verify"}, env.configPath)
	require.NoError(t, err)

	var payload struct {
		RunID   string `json:"run_id"`
		Summary struct {
			DuplicateSets   int `json:"duplicate_sets"`
			RedundantCopies int `json:"redundant_copies"`
		} `json:"summary"`
		Groups []struct {
			Paths []string `json:"paths"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.NotEmpty(t, payload.RunID)
	assert.Equal(t, 1, payload.Summary.DuplicateSets)
	assert.Equal(t, 2, payload.Summary.RedundantCopies)
	require.Len(t, payload.Groups, 1)
	assert.Len(t, payload.Groups[0].Paths, 3)
	assert.NoFileExists(t, env.reportPath)
}

func TestScanCommandTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"scan", "--table", "--no-report", "--no-history"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Duplicate sets")
	assert.Contains(t, out, "5d41402abc4b")
}

func TestScanCommandMissingRoot(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "missing")

	_, _, err := runCLI(t, []string{"scan", missing, "--no-history"}, env.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), missing)
}

func TestScanCommandRejectsBadFlags(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"scan", "--chunk-size", "10"}, env.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_size")

	_, _, err = runCLI(t, []string{"scan", "--json", "--table"}, env.configPath)
	require.Error(t, err)
}

func TestHistoryShowAndRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"scan", "--no-report"}, env.configPath)
	require.NoError(t, err)

	out, _, err := runCLI(t, []string{"history", "--json"}, env.configPath)
	require.NoError(t, err)
	var runs []struct {
		ID   string `json:"id"`
		Root string `json:"root"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, env.root, runs[0].Root)
	id := runs[0].ID[:8]

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Reclaimable")

	out, _, err = runCLI(t, []string{"show", id}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Hash: 5d41402abc4b2a76b9719d911017c592")

	out, _, err = runCLI(t, []string{"history", "rm", id}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted scan "+id)

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No scans recorded")

	_, _, err = runCLI(t, []string{"show", id}, env.configPath)
	require.Error(t, err)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, env.root)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	assert.FileExists(t, target)

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "")
	require.NoError(t, err)
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[report]\nformat = \"xml\"\n"), 0o644))

	_, _, err := runCLI(t, []string{"scan"}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.format")
}

func TestVersionSkipsConfig(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "dupscan dev\n", out)
}
