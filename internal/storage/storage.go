// Package storage keeps recent report snapshots: an in-memory TTL cache so
// repeated dashboard loads skip the warehouse, plus an optional S3 archive
// of everything served.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"
)

// Storage caches serialized report payloads by request key. Safe for
// concurrent use.
type Storage struct {
	ttl time.Duration

	mu        sync.RWMutex
	snapshots map[string]entry

	// S3 archive (optional)
	archive *S3Archive
}

type entry struct {
	payload   json.RawMessage
	expiresAt time.Time
}

// New creates a snapshot store with the given entry lifetime.
func New(ttl time.Duration) *Storage {
	return &Storage{
		ttl:       ttl,
		snapshots: make(map[string]entry),
	}
}

// SetArchive attaches an S3 archive. Archiving is best-effort; failures are
// logged and never affect the request path.
func (s *Storage) SetArchive(a *S3Archive) {
	s.archive = a
}

// Key derives a deterministic cache key from request parameters.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached payload for a key, if present and fresh.
func (s *Storage) Get(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	e, ok := s.snapshots[key]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.payload, true
}

// Put serializes and caches a report payload, and archives it when an
// archive is attached.
func (s *Storage) Put(ctx context.Context, key string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[storage.Storage] marshal snapshot %s: %v", key, err)
		return
	}

	s.mu.Lock()
	s.snapshots[key] = entry{payload: raw, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	if s.archive != nil {
		go func() {
			actx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.archive.Save(actx, key, raw); err != nil {
				log.Printf("[storage.Storage] archive snapshot %s: %v", key, err)
			}
		}()
	}
}

// Sweep drops expired entries. Call periodically from a background loop.
func (s *Storage) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.snapshots {
		if now.After(e.expiresAt) {
			delete(s.snapshots, key)
			removed++
		}
	}
	return removed
}
