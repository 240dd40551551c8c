package project

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	writeFile(t, path, `
schema = ["schema/pair.toml", "${SCHEMA_DIR}/extra.yaml", "/abs/types.graphqls"]
prelude = false

[resolve]
prune_candidates = true
max_passes = 5

[log]
level = "debug"
`)
	t.Setenv("SCHEMA_DIR", "vendor")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, config.Dir)
	assert.False(t, config.UsePrelude())
	assert.True(t, config.Resolve.PruneCandidates)
	assert.Equal(t, 5, config.Resolve.MaxPasses)
	assert.Len(t, config.ElabOptions(), 2)

	paths, err := config.SchemaPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "schema/pair.toml"),
		filepath.Join(dir, "vendor/extra.yaml"),
		"/abs/types.graphqls",
	}, paths)

	level, err := config.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("unknown keys", func(t *testing.T) {
		path := filepath.Join(dir, "unknown.toml")
		writeFile(t, path, "schemas = [\"a.toml\"]\n")
		_, err := Load(path)
		require.ErrorContains(t, err, "unknown keys")
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.toml")
		writeFile(t, path, "schema = [\n")
		_, err := Load(path)
		require.ErrorContains(t, err, "parsing "+path)
	})

	t.Run("bad log level", func(t *testing.T) {
		config := &Config{Log: LogConfig{Level: "chatty"}}
		_, err := config.LogLevel()
		require.Error(t, err)
	})
}

func TestDefaults(t *testing.T) {
	var config *Config
	assert.True(t, config.UsePrelude())
	assert.Nil(t, config.ElabOptions())

	paths, err := config.SchemaPaths()
	require.NoError(t, err)
	assert.Empty(t, paths)

	level, err := config.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	assert.True(t, (&Config{}).UsePrelude())
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFile), "schema = [\"root.toml\"]\n")

	t.Run("walks up", func(t *testing.T) {
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0755))

		path, config, err := Find(nested)
		require.NoError(t, err)
		require.NotNil(t, config)
		assert.Equal(t, filepath.Join(root, ConfigFile), path)
		assert.Equal(t, []string{"root.toml"}, config.Schema)
	})

	t.Run("stops at .git", func(t *testing.T) {
		repo := filepath.Join(root, "repo")
		require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0755))
		nested := filepath.Join(repo, "src")
		require.NoError(t, os.MkdirAll(nested, 0755))

		path, config, err := Find(nested)
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Nil(t, config)
	})

	t.Run("config in repo root", func(t *testing.T) {
		repo := filepath.Join(root, "other")
		require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0755))
		writeFile(t, filepath.Join(repo, ConfigFile), "prelude = true\n")

		path, config, err := Find(repo)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(repo, ConfigFile), path)
		assert.True(t, config.UsePrelude())
	})
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("UNIFIER_TEST_DIR", "/opt/schemas")

	expanded, err := expandEnvVars("${UNIFIER_TEST_DIR}/a.toml")
	require.NoError(t, err)
	assert.Equal(t, "/opt/schemas/a.toml", expanded)

	expanded, err = expandEnvVars("plain.toml")
	require.NoError(t, err)
	assert.Equal(t, "plain.toml", expanded)

	_, err = expandEnvVars("${UNIFIER_TEST_UNSET_VAR}/a.toml")
	var expErr *expandError
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, "${UNIFIER_TEST_UNSET_VAR}", expErr.pattern)

	_, err = expandEnvVars("$(pwd)/a.toml")
	require.ErrorAs(t, err, &expErr)
	assert.Equal(t, "$(pwd)", expErr.pattern)
}

func TestBuildRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.toml")
	writeFile(t, path, `
[[values]]
name = "answer"
type = "Int"
`)

	registry, err := BuildRegistry(true, []string{path})
	require.NoError(t, err)

	decls, err := registry.Lookup("answer")
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, "Int", decls[0].String())

	_, err = BuildRegistry(false, []string{path})
	require.Error(t, err, "Int is only declared by the prelude")

	_, err = BuildRegistry(true, []string{filepath.Join(dir, "missing.toml")})
	require.Error(t, err)
}
