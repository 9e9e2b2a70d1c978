package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablero/internal/pipeline"
)

func TestSessionStoreExpires(t *testing.T) {
	clock := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	store := newSessionStore(time.Hour, 10)
	store.now = func() time.Time { return clock }

	sess := store.put(pipeline.Dataset{Source: "a.xlsx"})
	_, ok := store.get(sess.ID)
	require.True(t, ok)

	clock = clock.Add(61 * time.Minute)
	_, ok = store.get(sess.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.count())
}

func TestSessionStoreCap(t *testing.T) {
	clock := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	store := newSessionStore(time.Hour, 2)
	store.now = func() time.Time { return clock }

	var ids []string
	for _, src := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		ids = append(ids, store.put(pipeline.Dataset{Source: src}).ID)
		clock = clock.Add(time.Minute)
	}

	assert.Equal(t, 2, store.count())
	_, ok := store.get(ids[0])
	assert.False(t, ok, "the oldest session is evicted")
	for _, id := range ids[1:] {
		_, ok := store.get(id)
		assert.True(t, ok)
	}
}

func TestSessionStoreDefaults(t *testing.T) {
	store := newSessionStore(0, 0)
	assert.Equal(t, defaultSessionTTL, store.ttl)
	assert.Equal(t, defaultSessionMax, store.max)
}
