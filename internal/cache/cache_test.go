package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/partpricing/internal/pricing"
)

func TestEncodeDecode_PreservesPricing(t *testing.T) {
	snap := pricing.DefaultSnapshot()
	snap.Version = 7
	snap.TakenAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	raw, err := encode(snap)
	require.NoError(t, err)
	got, err := decode(raw)
	require.NoError(t, err)

	assert.Equal(t, snap.Version, got.Version)
	assert.True(t, snap.TakenAt.Equal(got.TakenAt))
	assert.Equal(t, snap.Markup.Bands(), got.Markup.Bands())
	assert.Equal(t, snap.Multipliers.Map(), got.Multipliers.Map())
}

func TestDecode_RejectsCorruptEntries(t *testing.T) {
	_, err := decode([]byte(`{"bands":[{"from_price":10,"to_price":1,"rrpp_markup":1}]}`))
	assert.Error(t, err)

	_, err = decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "partpricing:snapshot:42", key(42))
}

func TestNoop(t *testing.T) {
	var c SnapshotCache = Noop{}
	require.NoError(t, c.Set(context.Background(), pricing.DefaultSnapshot()))
	_, ok, err := c.Get(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedis_DefaultTTL(t *testing.T) {
	r := NewRedis(nil, 0)
	assert.Equal(t, defaultTTL, r.ttl)
}
