package cache

import (
	"sync"
	"time"

	"seraphina/models"

	log "github.com/sirupsen/logrus"
)

// Entry is the per-user interaction context recorded at submission time
// and consumed at delivery time.
type Entry struct {
	ChannelID     string
	GuildID       string
	OriginalQuery string
	RecordedAt    time.Time
}

// SessionCache maps a user to their most recent pending interaction.
// One live entry per user: a second submission before delivery
// overwrites the first (last write wins).
type SessionCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
}

// NewSessionCache creates a session cache. Entries older than ttl are
// removed by the periodic sweep.
func NewSessionCache(ttl time.Duration) *SessionCache {
	return &SessionCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
	}
}

// Record stores the interaction context for a user
func (c *SessionCache) Record(userID string, entry Entry) error {
	if userID == "" {
		return models.ErrInvalidUserID
	}
	if entry.ChannelID == "" {
		return models.ErrInvalidChannel
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry.RecordedAt = time.Now()
	c.entries[userID] = entry
	return nil
}

// Lookup returns the pending entry for a user
func (c *SessionCache) Lookup(userID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[userID]
	return entry, ok
}

// Clear removes a user's entry. Clearing an absent user is a no-op.
func (c *SessionCache) Clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
}

// Len returns the number of live entries
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// cleanup removes entries older than the TTL. An entry this old means
// delivery never ran for it, usually a crashed or abandoned job.
func (c *SessionCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for userID, entry := range c.entries {
		if now.Sub(entry.RecordedAt) > c.ttl {
			delete(c.entries, userID)
			log.WithField("userID", userID).Warn("Removed stale session entry")
		}
	}
}

// StartCleanup runs the periodic sweep until stop is closed
func (c *SessionCache) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}
