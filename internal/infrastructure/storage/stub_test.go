package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage_GenerateUploadURL(t *testing.T) {
	stub := NewStubObjectStorage()

	url, expiresAt, err := stub.GenerateUploadURL(context.Background(), "products/img.png", "image/png", 15*time.Minute)

	require.NoError(t, err)
	assert.Contains(t, url, "/upload/products/img.png")
	assert.True(t, expiresAt.After(time.Now()))
}

func TestStubObjectStorage_GenerateUploadURL_RequiresKey(t *testing.T) {
	stub := NewStubObjectStorage()

	_, _, err := stub.GenerateUploadURL(context.Background(), "", "image/png", time.Minute)

	assert.Error(t, err)
}

func TestStubObjectStorage_GenerateDownloadURL(t *testing.T) {
	stub := NewStubObjectStorage()

	url, _, err := stub.GenerateDownloadURL(context.Background(), "products/img.png", time.Hour)

	require.NoError(t, err)
	assert.Contains(t, url, "/download/products/img.png")
}

func TestStubObjectStorage_ObjectExists(t *testing.T) {
	stub := NewStubObjectStorage()

	exists, err := stub.ObjectExists(context.Background(), "products/img.png")

	require.NoError(t, err)
	assert.True(t, exists)
}
