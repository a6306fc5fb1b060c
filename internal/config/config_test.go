package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

// chdir moves into a fresh directory so Load does not pick up a stray .env.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// unsetEnv clears keys for the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_DefaultsWhenDefaultPathMissing(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := chdir(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := chdir(t)
	p := writeFile(t, dir, "doc2db.yaml", `
server:
  addr: ":9000"
  shutdown_timeout: 3s
metastore:
  kind: postgres
  dsn: postgres://u:p@db/doc2db
oracle:
  model: gpt-4o
  timeout: 45s
upload:
  allowed_ext: [PDF, .csv]
`)

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Metastore.Kind)
	assert.Equal(t, "gpt-4o", cfg.Oracle.Model)
	assert.Equal(t, 45*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, 4000, cfg.Oracle.MaxTokens, "unset keys keep defaults")
	assert.Equal(t, []string{".pdf", ".csv"}, cfg.Extensions())
}

func TestLoad_EnvBeatsFileAndDotEnv(t *testing.T) {
	dir := chdir(t)
	unsetEnv(t, "OPENAI_API_KEY", "MAX_UPLOAD_MB")
	p := writeFile(t, dir, "doc2db.yaml", "oracle:\n  api_key: from-file\n")
	writeFile(t, dir, ".env", "OPENAI_API_KEY=from-dotenv\nMAX_UPLOAD_MB=5\n")
	t.Setenv("DOC2DB_DATA_DIR", "/srv/data")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Oracle.APIKey)
	assert.Equal(t, 5, cfg.Upload.MaxMB)
	assert.Equal(t, "/srv/data", cfg.Storage.DataDir)
	assert.True(t, cfg.Filestore.Minio.UseSSL)
}

func TestLoad_BadEnvNumber(t *testing.T) {
	chdir(t)
	t.Setenv("MAX_UPLOAD_MB", "lots")

	_, err := Load("")
	assert.ErrorContains(t, err, "MAX_UPLOAD_MB")
}

func TestLoad_BadYAML(t *testing.T) {
	dir := chdir(t)
	p := writeFile(t, dir, "bad.yaml", "server: [")

	_, err := Load(p)
	assert.ErrorContains(t, err, "decode")
}
