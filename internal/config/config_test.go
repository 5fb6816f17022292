package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "setting.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDecodesTOML(t *testing.T) {
	path := writeTempConfig(t, `
server_address = "[::1]:50055"
public_key_file = "key.pem"

[logger]
level = "info"
format = "json"
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "[::1]:50055", c.ServerAddress)
	require.Equal(t, "key.pem", c.PublicKeyFile)
	require.Equal(t, "json", c.Logger.Format)
}

func TestValidateRequiresServerAddressAndKeyFile(t *testing.T) {
	require.Error(t, Config{}.Validate())
	require.Error(t, Config{ServerAddress: "[::1]:50055"}.Validate())
	require.NoError(t, Config{ServerAddress: "[::1]:50055", PublicKeyFile: "key.pem"}.Validate())
}

func TestApplyEnvOverridesOverridesDecodedValue(t *testing.T) {
	path := writeTempConfig(t, `
server_address = "[::1]:50055"
public_key_file = "key.pem"
`)

	t.Setenv("APP_SERVERADDRESS", "[::1]:9999")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "[::1]:9999", c.ServerAddress)
}

func TestApplyEnvOverridesLeavesUnsetFieldsAlone(t *testing.T) {
	path := writeTempConfig(t, `
server_address = "[::1]:50055"
public_key_file = "key.pem"
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "key.pem", c.PublicKeyFile)
}
