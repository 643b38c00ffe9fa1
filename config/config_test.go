package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8645", cfg.RPCAddress)
	assert.Equal(t, "./streampay-data", cfg.DataDir)
	assert.Equal(t, "streampayd", cfg.ServiceName)
	assert.Empty(t, cfg.AdminAddresses)

	// The default file must be written and loadable.
	_, err = os.Stat(path)
	require.NoError(t, err)
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestLoadParsesAdmins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
RPCAddress = "0.0.0.0:9900"
DataDir = "/var/lib/streampay"
AdminAddresses = ["0xadadadadadadadadadadadadadadadadadadadad"]
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9900", cfg.RPCAddress)
	assert.Equal(t, "streampayd", cfg.ServiceName)

	admins, err := cfg.AdminSet()
	require.NoError(t, err)
	require.Len(t, admins, 1)
	addr, err := ParseAddress("0xADADADADADADADADADADADADADADADADADADADAD")
	require.NoError(t, err)
	_, ok := admins[addr]
	assert.True(t, ok)
}

func TestLoadRejectsBadAdminAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `AdminAddresses = ["not-an-address"]`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x0102030405060708090a0b0c0d0e0f1011121314")
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), addr[0])
	assert.Equal(t, byte(0x14), addr[19])

	_, err = ParseAddress("0x0102")
	assert.Error(t, err)
	_, err = ParseAddress("")
	assert.Error(t, err)
}
