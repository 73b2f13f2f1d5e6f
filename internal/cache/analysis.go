// Package cache holds the in-memory state owned by the service layer: AI
// analysis payloads that expire with their event's day, and the remaining
// preparation tasks per event.
package cache

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"calendar-assistant/internal/localtime"
)

// EventFingerprint addresses one event in the caches. The provider's own id
// wins; otherwise title, date and time are combined.
func EventFingerprint(id, title, date, clock string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return strings.TrimSpace(title) + "|" + strings.TrimSpace(date) + "|" + strings.TrimSpace(clock)
}

// AnalysisMetadata records that an event has been analyzed.
type AnalysisMetadata struct {
	Key        string    `json:"key"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type analysisEntry struct {
	payload   json.RawMessage
	eventDate time.Time
	expiresAt time.Time
}

// AnalysisCache keeps analysis payloads until the end of the event's local
// day. The "analyzed" flag lives in a separate map but shares the expiry of
// the payload it was recorded with.
type AnalysisCache struct {
	mu       sync.RWMutex
	entries  map[string]analysisEntry
	metadata map[string]AnalysisMetadata

	clock  localtime.Clock
	local  localtime.LocalTime
	logger *slog.Logger
}

func NewAnalysisCache(clock localtime.Clock, loc *time.Location, logger *slog.Logger) *AnalysisCache {
	if clock == nil {
		clock = localtime.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisCache{
		entries:  make(map[string]analysisEntry),
		metadata: make(map[string]AnalysisMetadata),
		clock:    clock,
		local:    localtime.New(loc),
		logger:   logger,
	}
}

func clonePayload(p json.RawMessage) json.RawMessage {
	if p == nil {
		return nil
	}
	out := make(json.RawMessage, len(p))
	copy(out, p)
	return out
}

// Set stores payload for key until the end of eventDate's local day and
// records the analyzed flag with the same expiry. A later Set for the same
// key replaces the earlier one.
func (c *AnalysisCache) Set(key string, payload json.RawMessage, eventDate time.Time) time.Time {
	now := c.clock.Now()
	expiresAt := c.local.EndOfDay(eventDate)

	c.mu.Lock()
	c.entries[key] = analysisEntry{
		payload:   clonePayload(payload),
		eventDate: eventDate,
		expiresAt: expiresAt,
	}
	c.metadata[key] = AnalysisMetadata{Key: key, AnalyzedAt: now, ExpiresAt: expiresAt}
	c.mu.Unlock()

	c.logger.Debug("analysis cached", "key", key, "expires_at", expiresAt)
	return expiresAt
}

// Refresh swaps the payload of a live entry, e.g. after a weather update,
// keeping its event date. It reports false when there is nothing to refresh.
// The check and the swap happen under one lock, so a concurrent Delete is
// never undone.
func (c *AnalysisCache) Refresh(key string, payload json.RawMessage) bool {
	now := c.clock.Now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok || c.expired(entry.expiresAt) {
		c.mu.Unlock()
		return false
	}
	entry.payload = clonePayload(payload)
	c.entries[key] = entry
	c.metadata[key] = AnalysisMetadata{Key: key, AnalyzedAt: now, ExpiresAt: entry.expiresAt}
	c.mu.Unlock()

	c.logger.Debug("analysis refreshed", "key", key, "expires_at", entry.expiresAt)
	return true
}

// Get returns the cached payload while the entry is live. Expired entries
// are evicted on the spot.
func (c *AnalysisCache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.expired(entry.expiresAt) {
		c.evictPayload(key)
		return nil, false
	}
	return clonePayload(entry.payload), true
}

// Metadata returns the analyzed record for key if it has not expired.
func (c *AnalysisCache) Metadata(key string) (AnalysisMetadata, bool) {
	c.mu.RLock()
	meta, ok := c.metadata[key]
	c.mu.RUnlock()
	if !ok {
		return AnalysisMetadata{}, false
	}
	if c.expired(meta.ExpiresAt) {
		c.evictMetadata(key)
		return AnalysisMetadata{}, false
	}
	return meta, true
}

func (c *AnalysisCache) IsAnalyzed(key string) bool {
	_, ok := c.Metadata(key)
	return ok
}

// Delete drops both the payload and the analyzed flag for key.
func (c *AnalysisCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	delete(c.metadata, key)
	c.mu.Unlock()
}

// Len reports the number of stored payloads, expired or not.
func (c *AnalysisCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes every expired payload and metadata record. Expired keys are
// collected under the read lock and removed one by one, so foreground calls
// only ever wait for a single delete.
func (c *AnalysisCache) Sweep() int {
	var payloadKeys, metaKeys []string

	c.mu.RLock()
	for k, e := range c.entries {
		if c.expired(e.expiresAt) {
			payloadKeys = append(payloadKeys, k)
		}
	}
	for k, m := range c.metadata {
		if c.expired(m.ExpiresAt) {
			metaKeys = append(metaKeys, k)
		}
	}
	c.mu.RUnlock()

	removed := 0
	for _, k := range payloadKeys {
		if c.evictPayload(k) {
			removed++
		}
	}
	for _, k := range metaKeys {
		if c.evictMetadata(k) {
			removed++
		}
	}
	if removed > 0 {
		c.logger.Info("analysis cache swept", "removed", removed)
	}
	return removed
}

func (c *AnalysisCache) expired(expiresAt time.Time) bool {
	return c.clock.Now().After(expiresAt)
}

// evictPayload deletes key only if the stored entry is still expired; a
// concurrent Set may have replaced it in the meantime.
func (c *AnalysisCache) evictPayload(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && c.expired(e.expiresAt) {
		delete(c.entries, key)
		return true
	}
	return false
}

func (c *AnalysisCache) evictMetadata(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.metadata[key]; ok && c.expired(m.ExpiresAt) {
		delete(c.metadata, key)
		return true
	}
	return false
}
