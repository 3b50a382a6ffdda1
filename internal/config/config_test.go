package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  baseUrl: https://gw.example
  nodeId: ND01
`)
	root, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", root.Server.Port)
	assert.Equal(t, "bill-gateway", root.Project.Name)
	assert.Equal(t, "https://gw.example", root.Gateway.BaseURL)
	assert.Equal(t, "ND01", root.Gateway.NodeID)
	assert.Equal(t, "v1.3.0", root.Gateway.Version)
	assert.Equal(t, "SAPI", root.Gateway.BillFetchMode)
	assert.Equal(t, 10*time.Second, root.Gateway.Timeout)
	assert.Equal(t, 5, root.Gateway.Retry.Times)
	assert.Equal(t, time.Second, root.Gateway.Retry.BackoffFactor)
	assert.Equal(t, 86400, root.Gateway.BillersSyncFrequency)
	assert.Equal(t, CacheDriverRedis, root.Cache.Driver)
	assert.Equal(t, time.Minute, root.Cache.SweepInterval)
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
gateway:
  billersSyncFrequency: 600
  timeout: 3s
  retry:
    times: 2
    backoffFactor: 250ms
`)
	root, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", root.Server.Port)
	assert.Equal(t, 600, root.Gateway.BillersSyncFrequency)
	assert.Equal(t, 3*time.Second, root.Gateway.Timeout)
	assert.Equal(t, 2, root.Gateway.Retry.Times)
	assert.Equal(t, 250*time.Millisecond, root.Gateway.Retry.BackoffFactor)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_CacheDriver(t *testing.T) {
	root, err := Load(writeConfig(t, `
cache:
  driver: Memory
  sweepInterval: 30s
`))
	require.NoError(t, err)
	assert.Equal(t, CacheDriverMemory, root.Cache.Driver)
	assert.Equal(t, 30*time.Second, root.Cache.SweepInterval)

	_, err = Load(writeConfig(t, `
cache:
  driver: memcached
`))
	assert.ErrorContains(t, err, "unsupported cache driver")
}
