package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAuthFile(t *testing.T, home string, v any) string {
	t.Helper()
	authDir := filepath.Join(home, ".folio")
	require.NoError(t, os.MkdirAll(authDir, 0700))

	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)

	authFile := filepath.Join(authDir, "auth.json")
	require.NoError(t, os.WriteFile(authFile, data, 0600))
	return authFile
}

func TestLoadToken_Success(t *testing.T) {
	tmpDir := t.TempDir()
	writeAuthFile(t, tmpDir, &StoredAuth{
		Token:     "fake_access_token",
		Username:  "MyUsername",
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	})
	t.Setenv("HOME", tmpDir)

	loaded, err := LoadToken()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "fake_access_token", loaded.Token)
	assert.Equal(t, "MyUsername", loaded.Username)
}

func TestLoadToken_FileNotExist(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	loaded, err := LoadToken()
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadToken_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	authDir := filepath.Join(tmpDir, ".folio")
	require.NoError(t, os.MkdirAll(authDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(authDir, "auth.json"), []byte("invalid json {"), 0600))
	t.Setenv("HOME", tmpDir)

	loaded, err := LoadToken()
	assert.Error(t, err)
	assert.Nil(t, loaded)
	assert.Contains(t, err.Error(), "parse auth")
}

func TestLoadToken_ExpiredToken(t *testing.T) {
	tmpDir := t.TempDir()
	writeAuthFile(t, tmpDir, &StoredAuth{
		Token:     "expired_token",
		Username:  "MyUsername",
		ExpiresAt: time.Now().Add(-1 * time.Hour),
		CreatedAt: time.Now().Add(-25 * time.Hour),
	})
	t.Setenv("HOME", tmpDir)

	loaded, err := LoadToken()
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveToken_RoundTripsThroughLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, SaveToken(&StoredAuth{
		Token:     "save_token",
		Username:  "saveuser",
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}))

	loaded, err := LoadToken()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "save_token", loaded.Token)
	assert.True(t, expiresAt.Equal(loaded.ExpiresAt))

	assert.NoFileExists(t, filepath.Join(tmpDir, ".folio", "auth.json.tmp"))
}

func TestSaveToken_Permissions(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	require.NoError(t, SaveToken(&StoredAuth{
		Token:     "perm_token",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	dirInfo, err := os.Stat(filepath.Join(tmpDir, ".folio"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())

	fileInfo, err := os.Stat(filepath.Join(tmpDir, ".folio", "auth.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fileInfo.Mode().Perm())
}

func TestSaveToken_OverwritesExistingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, SaveToken(&StoredAuth{Token: "first", Username: "user1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, SaveToken(&StoredAuth{Token: "second", Username: "user2", ExpiresAt: time.Now().Add(time.Hour)}))

	loaded, err := LoadToken()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "second", loaded.Token)
	assert.Equal(t, "user2", loaded.Username)
}

func TestDeleteToken(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	require.NoError(t, SaveToken(&StoredAuth{Token: "to_delete", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, DeleteToken())
	assert.NoFileExists(t, filepath.Join(tmpDir, ".folio", "auth.json"))

	// deleting twice is fine
	assert.NoError(t, DeleteToken())
}

func TestIsAuthenticated(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	assert.False(t, IsAuthenticated())

	writeAuthFile(t, tmpDir, &StoredAuth{Token: "valid", ExpiresAt: time.Now().Add(time.Hour)})
	assert.True(t, IsAuthenticated())

	writeAuthFile(t, tmpDir, &StoredAuth{Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)})
	assert.False(t, IsAuthenticated())
}

func TestTokenPath_Format(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	assert.Equal(t, filepath.Join(tmpDir, ".folio", "auth.json"), TokenPath())
}

func TestNewStoredAuth_UsesAccessExpiry(t *testing.T) {
	s := &Session{AccessToken: "fake_access_token", AccessExpiry: 1594771200}

	stored := NewStoredAuth("MyUsername", s)
	assert.Equal(t, "fake_access_token", stored.Token)
	assert.Equal(t, "MyUsername", stored.Username)
	assert.Equal(t, int64(1594771200), stored.ExpiresAt.Unix())
	assert.False(t, stored.CreatedAt.IsZero())
}
