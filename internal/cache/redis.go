// Package cache stores taste profiles, exclusion sets and library fingerprints in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/taste-service/internal/domain"
	"github.com/actuallystonmai/taste-service/internal/metrics"
)

const (
	defaultTTL = 24 * time.Hour
	keyPrefix  = "taste"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache writing entries with ttl. Non-positive ttl falls back to a day.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func buildKey(kind, userID string, ct domain.ContentType) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, kind, userID, ct)
}

// GetProfile returns nil without error on a miss.
func (c *Cache) GetProfile(ctx context.Context, userID string, ct domain.ContentType) (*domain.TasteProfile, error) {
	var p domain.TasteProfile
	found, err := c.get(ctx, buildKey("profile", userID, ct), &p)
	metrics.RecordCacheLookup("profile", found)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (c *Cache) SetProfile(ctx context.Context, userID string, p *domain.TasteProfile) error {
	if p == nil {
		return nil
	}
	return c.set(ctx, buildKey("profile", userID, p.ContentType), p)
}

// watchedSet is the stored form of an exclusion set.
type watchedSet struct {
	IDs            []int    `json:"ids"`
	IMDbIDs        []string `json:"imdb_ids"`
	ExcludedGenres []int    `json:"excluded_genres,omitempty"`
}

// GetExclusions returns nil without error on a miss.
func (c *Cache) GetExclusions(ctx context.Context, userID string, ct domain.ContentType) (*domain.Exclusions, error) {
	var ws watchedSet
	found, err := c.get(ctx, buildKey("watched", userID, ct), &ws)
	metrics.RecordCacheLookup("watched", found)
	if err != nil || !found {
		return nil, err
	}
	ex := domain.NewExclusions()
	for _, id := range ws.IDs {
		ex.IDs[id] = struct{}{}
	}
	for _, id := range ws.IMDbIDs {
		ex.IMDbIDs[id] = struct{}{}
	}
	ex.ExcludedGenres = ws.ExcludedGenres
	return ex, nil
}

func (c *Cache) SetExclusions(ctx context.Context, userID string, ct domain.ContentType, ex *domain.Exclusions) error {
	if ex == nil {
		return nil
	}
	ws := watchedSet{ExcludedGenres: ex.ExcludedGenres}
	for id := range ex.IDs {
		ws.IDs = append(ws.IDs, id)
	}
	for id := range ex.IMDbIDs {
		ws.IMDbIDs = append(ws.IMDbIDs, id)
	}
	sort.Ints(ws.IDs)
	sort.Strings(ws.IMDbIDs)
	return c.set(ctx, buildKey("watched", userID, ct), ws)
}

// LibraryHash fingerprints a library id set independent of order and duplicates.
func LibraryHash(ids []string) string {
	uniq := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for id := range uniq {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)
	return strconv.FormatUint(xxhash.Sum64String(strings.Join(sorted, "\n")), 16)
}

// LibraryChanged reports whether ids differ from the last stored fingerprint.
// A missing fingerprint counts as changed.
func (c *Cache) LibraryChanged(ctx context.Context, userID string, ct domain.ContentType, ids []string) (bool, error) {
	stored, err := c.client.Get(ctx, buildKey("libhash", userID, ct)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, fmt.Errorf("get library hash: %w", err)
	}
	return stored != LibraryHash(ids), nil
}

func (c *Cache) SetLibraryHash(ctx context.Context, userID string, ct domain.ContentType, ids []string) error {
	if err := c.client.Set(ctx, buildKey("libhash", userID, ct), LibraryHash(ids), c.ttl).Err(); err != nil {
		return fmt.Errorf("set library hash: %w", err)
	}
	return nil
}

var (
	entryKinds   = []string{"profile", "watched", "libhash"}
	contentTypes = []domain.ContentType{domain.ContentMovie, domain.ContentSeries}
)

// ClearUser drops every entry for a user: used when their library is reset.
// Keys are named exactly, so the user id is never read as a pattern.
func (c *Cache) ClearUser(ctx context.Context, userID string) error {
	keys := make([]string, 0, len(entryKinds)*len(contentTypes))
	for _, kind := range entryKinds {
		for _, ct := range contentTypes {
			keys = append(keys, buildKey(kind, userID, ct))
		}
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete user %s: %w", userID, err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
