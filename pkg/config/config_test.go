package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, Address(0x3c), cfg.Address)
	assert.True(t, cfg.Compensate)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ecprobe.yaml")
	err := os.WriteFile(path, []byte(`
adapter: devfs
device: /dev/i2c-1
address: 0x3d
little_endian: true
compensate: false
interval: 2500ms
count: 10
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Adapter:      AdapterDevfs,
		Device:       "/dev/i2c-1",
		Bus:          -1,
		Address:      0x3d,
		LittleEndian: true,
		Compensate:   false,
		Interval:     2500 * time.Millisecond,
		Count:        10,
	}, cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     string
	}{
		{"bad address", "address: 0x80\n", "not a 7-bit address"},
		{"garbage address", "address: sixty\n", "invalid i2c address"},
		{"unknown adapter", "adapter: serial\n", "unknown adapter"},
		{"negative count", "count: -1\n", "negative count"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ecprobe.yaml")
			require.NoError(t, os.WriteFile(path, []byte(test.content), 0o600))
			_, err := Load(path)
			assert.ErrorContains(t, err, test.err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		given    string
		expected byte
	}{
		{"0x3c", 0x3c},
		{"60", 60},
		{"0X13", 0x13},
		{"0o77", 0x3f},
	}
	for _, test := range tests {
		t.Run(test.given, func(t *testing.T) {
			addr, err := ParseAddress(test.given)
			require.NoError(t, err)
			assert.Equal(t, test.expected, addr)
		})
	}
	_, err := ParseAddress("256")
	assert.Error(t, err)
}

func TestAddress_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Address Address `yaml:"address"`
	}{Address: 0x3c})
	require.NoError(t, err)
	assert.Equal(t, "address: \"0x3c\"\n", string(out))
}
