// Package adsmeta resolves ad identifiers to ad/ad-set/campaign names.
//
// Names live in the shop metadata database and change rarely, so lookups go
// through a Redis cache. Identifiers the store does not know are simply
// omitted from the result; an unknown ad is not an error.
package adsmeta

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AdMeta names one ad and its ancestors in the hierarchy.
type AdMeta struct {
	AdID         string `json:"ad_id"`
	AdName       string `json:"ad_name"`
	AdSetID      string `json:"ad_set_id"`
	AdSetName    string `json:"ad_set_name"`
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
}

// Lookup resolves a set of ad identifiers. Absent identifiers are omitted
// from the returned map.
type Lookup interface {
	Lookup(ctx context.Context, adIDs []string) (map[string]AdMeta, error)
}

// Store reads ad hierarchy metadata from Postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a Postgres-backed lookup.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Lookup fetches metadata for the given ad IDs.
func (s *Store) Lookup(ctx context.Context, adIDs []string) (map[string]AdMeta, error) {
	if len(adIDs) == 0 {
		return map[string]AdMeta{}, nil
	}

	placeholders := make([]string, len(adIDs))
	args := make([]interface{}, len(adIDs))
	for i, id := range adIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT ad_id, ad_name, ad_set_id, ad_set_name, campaign_id, campaign_name
		FROM ad_hierarchy
		WHERE ad_id IN (%s)
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ad hierarchy lookup: %w", err)
	}
	defer rows.Close()

	result := make(map[string]AdMeta)
	for rows.Next() {
		var m AdMeta
		if err := rows.Scan(&m.AdID, &m.AdName, &m.AdSetID, &m.AdSetName, &m.CampaignID, &m.CampaignName); err != nil {
			return nil, fmt.Errorf("ad hierarchy scan: %w", err)
		}
		result[m.AdID] = m
	}
	return result, rows.Err()
}

// CachedLookup fronts another Lookup with Redis. Cache failures degrade to
// the inner lookup; they are logged, never surfaced.
type CachedLookup struct {
	inner Lookup
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCachedLookup wraps a lookup with a Redis cache.
func NewCachedLookup(inner Lookup, rdb *redis.Client, ttl time.Duration) *CachedLookup {
	return &CachedLookup{inner: inner, rdb: rdb, ttl: ttl}
}

func cacheKey(adID string) string {
	return "adsmeta:" + adID
}

// Lookup resolves IDs from the cache first and falls back to the inner
// lookup for the rest.
func (c *CachedLookup) Lookup(ctx context.Context, adIDs []string) (map[string]AdMeta, error) {
	result := make(map[string]AdMeta, len(adIDs))
	var misses []string

	for _, id := range adIDs {
		raw, err := c.rdb.Get(ctx, cacheKey(id)).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("[adsmeta.CachedLookup] cache read for %s failed: %v", id, err)
			}
			misses = append(misses, id)
			continue
		}
		var m AdMeta
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			misses = append(misses, id)
			continue
		}
		result[id] = m
	}

	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := c.inner.Lookup(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, m := range fetched {
		result[id] = m
		if raw, err := json.Marshal(m); err == nil {
			if err := c.rdb.Set(ctx, cacheKey(id), raw, c.ttl).Err(); err != nil {
				log.Printf("[adsmeta.CachedLookup] cache write for %s failed: %v", id, err)
			}
		}
	}
	return result, nil
}
