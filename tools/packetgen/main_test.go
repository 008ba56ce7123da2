package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	packetgen "github.com/tempusfrangit/go-packetgen"
	"github.com/tempusfrangit/go-packetgen/config"
	"github.com/tempusfrangit/go-packetgen/examples/protocol/registry"
)

func TestMain(m *testing.M) {
	silent = true
	os.Exit(m.Run())
}

func mustParse(t *testing.T, args ...string) *options {
	t.Helper()
	var usage bytes.Buffer
	opts, err := parseFlags(append([]string{"-s"}, args...), &usage)
	require.NoError(t, err, usage.String())
	return opts
}

func TestParseFlags(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		opts := mustParse(t, "out")
		assert.Equal(t, "out", opts.outDir)
		assert.Equal(t, int64(config.DefaultSeed), opts.seed)
		assert.Equal(t, registry.Root, opts.root)
		assert.False(t, opts.set["seed"])
	})

	t.Run("MissingOutDir", func(t *testing.T) {
		var usage bytes.Buffer
		_, err := parseFlags([]string{"-s"}, &usage)
		assert.Error(t, err)
		assert.Contains(t, usage.String(), "packetgen [flags] <out-dir>")
	})
}

func TestSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packetgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 11\nthorough: true\n"), 0o644))

	t.Run("FileValues", func(t *testing.T) {
		c, err := mustParse(t, "-config", path, "out").settings()
		require.NoError(t, err)
		assert.Equal(t, int64(11), c.Seed)
		assert.True(t, c.Thorough)
		assert.Equal(t, registry.Root, c.Root)
	})

	t.Run("FlagsWin", func(t *testing.T) {
		c, err := mustParse(t, "-config", path, "-seed", "3", "-thorough=false", "out").settings()
		require.NoError(t, err)
		assert.Equal(t, int64(3), c.Seed)
		assert.False(t, c.Thorough)
	})

	t.Run("Invalid", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("maxVarLen: -1\n"), 0o644))
		_, err := mustParse(t, "-config", bad, "out").settings()
		assert.ErrorContains(t, err, "maxVarLen: must not be negative")
	})
}

func TestRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated")
	var stdout bytes.Buffer

	require.NoError(t, run(mustParse(t, "-ir", dir), &stdout))
	for _, name := range []string{packetgen.DefinitionsFile, packetgen.TestsFile, packetgen.IRFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	require.NoError(t, run(mustParse(t, "-ir", "-check", dir), &stdout))
	assert.Empty(t, stdout.String())

	err := run(mustParse(t, "-ir", "-check", "-seed", "5", dir), &stdout)
	assert.ErrorIs(t, err, errDrift)
	assert.Contains(t, stdout.String(), "--- a/"+packetgen.TestsFile)
	assert.NotContains(t, stdout.String(), "a/"+packetgen.DefinitionsFile)
}
