package storage_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsmarket/storefront/pkg/storage"
)

func TestLocalDisk(t *testing.T) {
	ctx := context.Background()
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://shop.test/storage/")
	require.NoError(t, err)

	key := "products/1700000000000_case.jpg"
	require.NoError(t, disk.Put(ctx, key, strings.NewReader("jpeg"), "image/jpeg"))
	assert.True(t, disk.Exists(ctx, key))

	data, err := disk.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, "http://shop.test/storage/products/1700000000000_case.jpg", disk.URL(key))

	require.NoError(t, disk.Delete(ctx, key))
	assert.False(t, disk.Exists(ctx, key))
	assert.NoError(t, disk.Delete(ctx, key), "missing objects are not an error")
}

func TestLocalDiskRejectsTraversal(t *testing.T) {
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://shop.test/storage")
	require.NoError(t, err)

	for _, key := range []string{"", "../secrets", "products/../../x"} {
		err := disk.Put(context.Background(), key, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, storage.ErrInvalidPath, key)
	}
}
