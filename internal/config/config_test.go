package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  addr: ":8080"
  mode: debug
  auth_secret: secret
database:
  type: sqlite
  dsn: ":memory:"
ws:
  max_connections: 500
  heartbeat_interval: 15s
`

func writeTestConfig(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, "questhub.yaml", testYAML)

	c := New(WithConfigFile(path))
	require.NoError(t, c.Load())

	assert.Equal(t, ":8080", c.GetString("server.addr"))
	assert.Equal(t, 500, c.GetInt("ws.max_connections"))
	assert.True(t, c.IsSet("database.dsn"))
}

func TestLoadNotFound(t *testing.T) {
	c := New(
		WithConfigName("does-not-exist"),
		WithConfigType("yaml"),
		WithConfigPaths(t.TempDir()),
	)
	err := c.Load()
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, "questhub.yaml", "server:\n  addr: \":9000\"\n")

	c := New(
		WithConfigFile(path),
		WithDefaults(Defaults()),
	)
	require.NoError(t, c.Load())

	// 文件中的值覆盖默认值，未配置的键落在默认值上
	assert.Equal(t, ":9000", c.GetString("server.addr"))
	assert.Equal(t, "release", c.GetString("server.mode"))
	assert.Equal(t, 10000, c.GetInt("ws.max_connections"))
}

func TestUnmarshalAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, "questhub.yaml", testYAML)

	c := New(WithConfigFile(path), WithDefaults(Defaults()))
	require.NoError(t, c.Load())

	var app AppConfig
	require.NoError(t, c.Unmarshal(&app))

	assert.Equal(t, ":8080", app.Server.Addr)
	assert.Equal(t, "secret", app.Server.AuthSecret)
	assert.Equal(t, "sqlite", app.Database.Type)
	assert.Equal(t, 500, app.WS.MaxConnections)
	// 默认值填充
	assert.Equal(t, int64(64*1024), app.WS.MaxMessageSize)
}

func TestEnvOnlyStartup(t *testing.T) {
	t.Setenv("QUESTHUB_SERVER_AUTH_SECRET", "from-env")
	t.Setenv("QUESTHUB_DATABASE_DSN", "host=db user=questhub")

	// 无配置文件时仅靠默认值与环境变量启动
	c := New(
		WithConfigName("does-not-exist"),
		WithConfigType("yaml"),
		WithConfigPaths(t.TempDir()),
		WithDefaults(Defaults()),
		WithEnvPrefix("QUESTHUB"),
	)
	err := c.Load()
	require.ErrorIs(t, err, ErrConfigNotFound)

	var app AppConfig
	require.NoError(t, c.Unmarshal(&app))

	// 必填键没有文件来源时，环境变量必须生效
	assert.Equal(t, "from-env", app.Server.AuthSecret)
	assert.Equal(t, "host=db user=questhub", app.Database.DSN)
	assert.Equal(t, ":5000", app.Server.Addr)
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeTestConfig(t, dir, "questhub.yaml", testYAML)

	t.Setenv("QUESTHUB_SERVER_ADDR", ":7000")

	c := New(
		WithConfigFile(path),
		WithEnvPrefix("QUESTHUB"),
	)
	require.NoError(t, c.Load())

	assert.Equal(t, ":7000", c.GetString("server.addr"))
}
