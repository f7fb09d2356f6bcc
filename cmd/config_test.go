package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		cfgFile = ""
		cfgErr = nil
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInitThenSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+path)

	_, err = execute(t, "config", "init", path)
	require.ErrorContains(t, err, "already exists")

	out, err = execute(t, "--config", path, "config", "set", "output.width", "64")
	require.NoError(t, err)
	require.Contains(t, out, "output.width = 64")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "width: 64")
	require.Contains(t, string(data), "# triad configuration", "comments survive")

	_, err = execute(t, "--config", path, "config", "set", "output.width", "-1")
	require.ErrorContains(t, err, "output.width must not be negative")

	_, err = execute(t, "--config", path, "config", "set", "output.colour", "red")
	require.ErrorContains(t, err, "unknown config key")
}

func TestRunCommandUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  width: 30\n  plain: true\n"), 0o600))
	script := filepath.Join(dir, "one.tally")
	require.NoError(t, os.WriteFile(script, []byte("add a 2\n"), 0o600))

	out, err := execute(t, "--config", cfgPath, "run", script)
	require.NoError(t, err)
	require.Equal(t, "tally\n"+
		"a     2 ██\n"+
		"───────\n"+
		"total 2\n", out)
}

func TestRunCommandMissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "run", "-")
	require.ErrorContains(t, err, "reading config")
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3 (commit: abc, built: today)")
	t.Cleanup(func() { SetVersion("dev") })

	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "triad 1.2.3 (commit: abc, built: today)\n", out)
}
