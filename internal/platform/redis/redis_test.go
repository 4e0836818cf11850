package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("Should connect to a reachable server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := New(context.Background(), Options{Addr: mr.Addr()})
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	})

	t.Run("Should fail when the server is down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		_, err := New(context.Background(), Options{Addr: addr})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ping redis failed")
	})
}
