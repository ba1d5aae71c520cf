package identity_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybridge-project/skybridge/identity"
)

func TestMemoryTrustStoreRoundTrip(t *testing.T) {
	store := identity.NewMemoryTrustStore()
	require.NoError(t, store.Put(identity.TrustRecord{DeviceID: "device-1", PubKeyFingerprint: "abc"}))

	rec, ok, err := store.Get("device-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", rec.PubKeyFingerprint)

	ids, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"device-1"}, ids)

	require.NoError(t, store.Delete("device-1"))
	_, ok, err = store.Get("device-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileTrustStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trust.json")

	store, err := identity.OpenFileTrustStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(identity.TrustRecord{DeviceID: "device-1", PubKeyFingerprint: "fingerprint-1"}))

	reopened, err := identity.OpenFileTrustStore(path)
	require.NoError(t, err)
	rec, ok, err := reopened.Get("device-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fingerprint-1", rec.PubKeyFingerprint)
}

func TestOpenFileTrustStoreMissingFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.json")

	store, err := identity.OpenFileTrustStore(path)
	require.NoError(t, err)
	ids, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
