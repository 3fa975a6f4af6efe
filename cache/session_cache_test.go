package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"seraphina/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCache_RecordAndLookup(t *testing.T) {
	cache := NewSessionCache(time.Hour)

	err := cache.Record("user-1", Entry{
		ChannelID:     "chan-1",
		GuildID:       "guild-1",
		OriginalQuery: "why is the sky blue",
	})
	require.NoError(t, err)

	entry, ok := cache.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, "chan-1", entry.ChannelID)
	assert.Equal(t, "why is the sky blue", entry.OriginalQuery)
	assert.False(t, entry.RecordedAt.IsZero())
}

func TestSessionCache_Validation(t *testing.T) {
	cache := NewSessionCache(time.Hour)

	err := cache.Record("", Entry{ChannelID: "chan-1"})
	assert.ErrorIs(t, err, models.ErrInvalidUserID)

	err = cache.Record("user-1", Entry{ChannelID: ""})
	assert.ErrorIs(t, err, models.ErrInvalidChannel)

	_, ok := cache.Lookup("user-1")
	assert.False(t, ok)
}

func TestSessionCache_LastWriteWins(t *testing.T) {
	cache := NewSessionCache(time.Hour)

	require.NoError(t, cache.Record("user-1", Entry{ChannelID: "chan-1", OriginalQuery: "first"}))
	require.NoError(t, cache.Record("user-1", Entry{ChannelID: "chan-2", OriginalQuery: "second"}))

	entry, ok := cache.Lookup("user-1")
	require.True(t, ok)
	assert.Equal(t, "chan-2", entry.ChannelID)
	assert.Equal(t, "second", entry.OriginalQuery)
	assert.Equal(t, 1, cache.Len())
}

func TestSessionCache_ClearIsIdempotent(t *testing.T) {
	cache := NewSessionCache(time.Hour)

	require.NoError(t, cache.Record("user-1", Entry{ChannelID: "chan-1"}))

	cache.Clear("user-1")
	_, ok := cache.Lookup("user-1")
	assert.False(t, ok)

	// Clearing again, or clearing a user never recorded, must not panic
	cache.Clear("user-1")
	cache.Clear("never-seen")
}

func TestSessionCache_ConcurrentUse(t *testing.T) {
	cache := NewSessionCache(time.Hour)

	const users = 8
	const opsPerUser = 200

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("user-%d", u)

		wg.Add(3)
		go func() {
			defer wg.Done()
			for i := 0; i < opsPerUser; i++ {
				_ = cache.Record(userID, Entry{ChannelID: "chan-1", OriginalQuery: "q"})
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < opsPerUser; i++ {
				if entry, ok := cache.Lookup(userID); ok {
					assert.Equal(t, "chan-1", entry.ChannelID)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < opsPerUser; i++ {
				cache.Clear(userID)
			}
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, the cache is still coherent
	require.NoError(t, cache.Record("user-0", Entry{ChannelID: "chan-2"}))
	entry, ok := cache.Lookup("user-0")
	require.True(t, ok)
	assert.Equal(t, "chan-2", entry.ChannelID)
}

func TestSessionCache_CleanupRemovesStaleEntries(t *testing.T) {
	cache := NewSessionCache(10 * time.Millisecond)

	require.NoError(t, cache.Record("stale", Entry{ChannelID: "chan-1"}))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cache.Record("fresh", Entry{ChannelID: "chan-2"}))

	cache.cleanup()

	_, ok := cache.Lookup("stale")
	assert.False(t, ok)
	_, ok = cache.Lookup("fresh")
	assert.True(t, ok)
}
