package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocalProvider(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	dir := t.TempDir()
	provider, err := NewLocalProvider(dir)
	require.NoError(t, err)
	return provider, dir
}

func TestLocalProvider_PutObject(t *testing.T) {
	provider, baseDir := setupLocalProvider(t)

	bucket := "agent-audio"
	key := "abc123.opus"
	content := []byte("opus bytes")

	err := provider.PutObject(context.Background(), bucket, key, bytes.NewReader(content))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(baseDir, bucket, key))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalProvider_GetObject(t *testing.T) {
	provider, _ := setupLocalProvider(t)

	bucket := "agent-audio"
	key := "abc123.opus"
	content := []byte("opus bytes")

	require.NoError(t, provider.PutObject(context.Background(), bucket, key, bytes.NewReader(content)))

	data, err := provider.GetObject(context.Background(), bucket, key)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	_, err = provider.GetObject(context.Background(), bucket, "missing.opus")
	assert.Error(t, err)
}

func TestLocalProvider_DeleteObject(t *testing.T) {
	provider, _ := setupLocalProvider(t)

	bucket := "agent-audio"
	key := "abc123.opus"

	require.NoError(t, provider.PutObject(context.Background(), bucket, key, bytes.NewReader([]byte("opus bytes"))))
	require.NoError(t, provider.DeleteObject(context.Background(), bucket, key))

	_, err := provider.GetObject(context.Background(), bucket, key)
	assert.Error(t, err)

	// deleting a missing key is not an error
	assert.NoError(t, provider.DeleteObject(context.Background(), bucket, key))
}

func TestLocalProvider_ListObjects(t *testing.T) {
	provider, _ := setupLocalProvider(t)

	bucket := "agent-audio"
	require.NoError(t, provider.PutObject(context.Background(), bucket, "a1.opus", bytes.NewReader([]byte("one"))))
	require.NoError(t, provider.PutObject(context.Background(), bucket, "a2.opus", bytes.NewReader([]byte("two"))))
	require.NoError(t, provider.PutObject(context.Background(), bucket, "b1.opus", bytes.NewReader([]byte("three"))))

	keys, err := provider.ListObjects(context.Background(), bucket, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1.opus", "a2.opus"}, keys)

	keys, err = provider.ListObjects(context.Background(), "empty-bucket", "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
