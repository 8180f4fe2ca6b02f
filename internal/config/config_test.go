package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testToml = `
listen = "0.0.0.0:4000"
http_listen = ":8545"
token = "secret"
transport = "graphql"
endpoint = "http://localhost:8080/graphql"
address = "0x0c03fba782b07bcf810deb3b7f0595024a444f4e"
timeout = "3s"
store_interval = "1m"
max_array_length = 128
`

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "kvschema.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, testToml))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:4000", conf.Listen)
	require.Equal(t, ":8545", conf.HTTPListen)
	require.Equal(t, "secret", conf.Token)
	require.Equal(t, TransportGraphQL, conf.Transport)
	require.Equal(t, 3*time.Second, conf.Timeout)
	require.Equal(t, time.Minute, conf.StoreInterval)
	require.EqualValues(t, 128, conf.MaxArrayLength)
	require.True(t, conf.Insecure) // untouched default

	conf, err = Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), conf)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, `transport = "carrier pigeon"`))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, `listen = `))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	path := writeConfig(t, testToml)

	conf, err := Parse([]string{"-CONFIG", path, "-LISTEN", "127.0.0.1:5000", "-STORE_FILE", "db/kv.json"})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:5000", conf.Listen)
	require.Equal(t, "db/kv.json", conf.StoreFile)
	require.Equal(t, "secret", conf.Token) // from file, not reset by the unset flag

	conf, err = Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), conf)

	_, err = Parse([]string{"-NO_SUCH_FLAG"})
	require.Error(t, err)
}
