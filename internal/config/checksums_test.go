package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockThenLoadVerifies(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvLLMAPIKey, "sk")
	path := writeConfig(t, "service:\n  name: locked\n")

	manifest, err := Lock(path)
	require.NoError(t, err)
	assert.Equal(t, 1, manifest.Version)
	assert.Len(t, manifest.Hashes["scribe-gw.yaml"], 64)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "locked", cfg.Service.Name)
}

func TestLoadRejectsTamperedConfig(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvLLMAPIKey, "sk")
	path := writeConfig(t, "service:\n  name: locked\n")
	_, err := Lock(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: tampered\n"), 0600))

	_, err = Load(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestVerifyChecksumsMissingEntry(t *testing.T) {
	path := writeConfig(t, "service:\n  name: x\n")
	_, err := Lock(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("a: 1\n"), 0600))

	err = VerifyChecksums(dir, []string{"other.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no hash")
}

func TestLoadChecksumsErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadChecksums(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config lock")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ChecksumFile), []byte("version: 2\nhashes: {}\n"), 0600))
	_, err = LoadChecksums(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported checksums version")
}

func TestComputeBlake3HashIsStable(t *testing.T) {
	path := writeConfig(t, "abc")
	a, err := ComputeBlake3Hash(path)
	require.NoError(t, err)
	b, err := ComputeBlake3Hash(path)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
