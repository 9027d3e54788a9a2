package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHint(t *testing.T) {
	t.Run("empty payload is no hint", func(t *testing.T) {
		_, ok := DecodeHint(nil)
		assert.False(t, ok)
		_, ok = DecodeHint([]byte{})
		assert.False(t, ok)
	})

	t.Run("undecodable payload is no hint", func(t *testing.T) {
		_, ok := DecodeHint([]byte("not json"))
		assert.False(t, ok)
	})

	t.Run("zero fids are no hint", func(t *testing.T) {
		_, ok := DecodeHint([]byte(`{"fromFid":0,"toFid":0}`))
		assert.False(t, ok)
	})

	t.Run("valid hint decodes", func(t *testing.T) {
		h, ok := DecodeHint([]byte(`{"fromFid":12,"toFid":34}`))
		require.True(t, ok)
		assert.Equal(t, int64(12), h.FromFID)
		assert.Equal(t, int64(34), h.ToFID)
	})
}

func TestPick(t *testing.T) {
	candidates := []Identity{
		{FID: 300, Username: "carol"},
		{FID: 100, Username: "alice"},
		{FID: 200, Username: "bob"},
	}

	t.Run("empty candidates pick nothing", func(t *testing.T) {
		_, ok := Pick(nil, 100)
		assert.False(t, ok)
	})

	t.Run("matching hint wins over lower fid", func(t *testing.T) {
		id, ok := Pick(candidates, 200)
		require.True(t, ok)
		assert.Equal(t, "bob", id.Username)
	})

	t.Run("non-matching hint falls back to lowest fid", func(t *testing.T) {
		id, ok := Pick(candidates, 999)
		require.True(t, ok)
		assert.Equal(t, "alice", id.Username)
	})

	t.Run("no hint picks lowest fid regardless of order", func(t *testing.T) {
		id, ok := Pick(candidates, 0)
		require.True(t, ok)
		assert.Equal(t, int64(100), id.FID)

		reversed := []Identity{candidates[2], candidates[0], candidates[1]}
		id2, ok := Pick(reversed, 0)
		require.True(t, ok)
		assert.Equal(t, id, id2)
	})
}
