package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localnerve/docsdb/internal/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	fs, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "documents/abc/1", strings.NewReader("hello"), 5, "text/plain"))
	data, err := ReadAll(ctx, fs, "documents/abc/1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, fs.Save(ctx, "documents/abc/1", strings.NewReader("replaced"), -1, ""))
	data, err = ReadAll(ctx, fs, "documents/abc/1")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))

	require.NoError(t, fs.Delete(ctx, "documents/abc/1"))
	require.NoError(t, fs.Delete(ctx, "documents/abc/1"))
	_, err = fs.Open(ctx, "documents/abc/1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageStaysInRoot(t *testing.T) {
	fs, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Save(ctx, "../../escape", strings.NewReader("x"), 1, ""))
	data, err := ReadAll(ctx, fs, "escape")
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	assert.Error(t, fs.Save(ctx, "/", strings.NewReader("x"), 1, ""))
}

func TestNewSelectsBackend(t *testing.T) {
	fs, err := New(context.Background(), &config.Config{StorageBackend: "local", MediaRoot: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, fs)

	fs, err = New(context.Background(), &config.Config{
		StorageBackend: "s3",
		S3Bucket:       "docs",
		S3Endpoint:     "http://localhost:4566",
		S3Region:       "us-east-1",
		S3AccessKey:    "test",
		S3SecretKey:    "test",
	})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, fs)

	_, err = New(context.Background(), &config.Config{StorageBackend: "ftp"})
	assert.EqualError(t, err, "unsupported storage backend: ftp")
}
