package transcription

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/imchangchang/video2markdown/errors"
	"github.com/imchangchang/video2markdown/logger"
	"github.com/imchangchang/video2markdown/storage"
)

// cachePrefix is the object-key namespace for transcript entries.
const cachePrefix = "transcripts/"

// CacheEntry is the persisted cache record for one fingerprint.
type CacheEntry struct {
	// MediaHash is the content hash of the media file prefix.
	MediaHash string `json:"media_hash"`
	// Model is the transcription model identifier.
	Model string `json:"model"`
	// Language is the requested language code ("auto" when unset).
	Language string `json:"language"`
	// CreatedAt records when the entry was written.
	CreatedAt time.Time `json:"created_at"`
	// Response is the cached transcription result.
	Response *TranscriptionResponse `json:"response"`
}

// ComputeFunc performs the actual transcription on a cache miss.
type ComputeFunc func(ctx context.Context) (*TranscriptionResponse, error)

// Cache is a content-addressed transcript store. Keys combine a hash of the
// media file's leading bytes with model and language, so changing any of the
// three recomputes while re-runs on identical inputs hit the cache.
type Cache struct {
	client storage.ByteClient
	bypass bool
	log    *logger.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithBypass makes GetOrCreate always invoke the compute function and
// overwrite any existing entry.
func WithBypass(bypass bool) CacheOption {
	return func(c *Cache) { c.bypass = bypass }
}

// NewCache creates a transcript cache backed by the given byte client.
func NewCache(client storage.ByteClient, opts ...CacheOption) *Cache {
	c := &Cache{
		client: client,
		log:    logger.Get("transcription-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the cached transcription for (mediaPath, model,
// language) or invokes fn and persists its result. The hit return reports
// whether the response came from the cache.
//
// Cache read failures degrade to recomputation; cache write failures degrade
// to returning the fresh result uncached. Only fn's own failure is returned.
func (c *Cache) GetOrCreate(ctx context.Context, mediaPath, model, language string, fn ComputeFunc) (resp *TranscriptionResponse, hit bool, err error) {
	mediaHash, err := MediaHash(mediaPath)
	if err != nil {
		return nil, false, apperrors.MediaRead(mediaPath, err)
	}
	key := c.entryKey(mediaHash, model, language)

	if !c.bypass {
		if cached := c.read(ctx, key); cached != nil {
			c.log.Info("transcript cache hit", map[string]interface{}{
				"media": mediaPath,
				"key":   key,
			})
			return cached, true, nil
		}
	}

	resp, err = fn(ctx)
	if err != nil {
		return nil, false, err
	}

	c.write(ctx, key, &CacheEntry{
		MediaHash: mediaHash,
		Model:     model,
		Language:  normalizeLanguage(language),
		CreatedAt: time.Now().UTC(),
		Response:  resp,
	})
	return resp, false, nil
}

// Clear removes every cached entry for the media file, regardless of model
// and language, so a cross-model rerun never reads stale content.
func (c *Cache) Clear(ctx context.Context, mediaPath string) (int, error) {
	mediaHash, err := MediaHash(mediaPath)
	if err != nil {
		return 0, apperrors.MediaRead(mediaPath, err)
	}

	prefix := cachePrefix + mediaHash
	objects, err := c.client.List(ctx, prefix)
	if err != nil {
		return 0, apperrors.CacheError("list", err)
	}

	removed := 0
	for _, obj := range objects {
		if err := c.client.Delete(ctx, obj.Key); err != nil {
			return removed, apperrors.CacheError("delete", err)
		}
		removed++
	}
	c.log.Info("transcript cache cleared", map[string]interface{}{
		"media":   mediaPath,
		"removed": removed,
	})
	return removed, nil
}

func (c *Cache) entryKey(mediaHash, model, language string) string {
	return cachePrefix + Fingerprint(mediaHash, model, language) + ".json"
}

// read returns the cached response for key, or nil on miss or any read error.
func (c *Cache) read(ctx context.Context, key string) *TranscriptionResponse {
	exists, err := c.client.Exists(ctx, key)
	if err != nil || !exists {
		if err != nil {
			c.log.Warn("cache existence check failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil
	}

	data, err := c.client.Download(ctx, key)
	if err != nil {
		c.log.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return nil
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn("cache entry corrupt, recomputing", map[string]interface{}{"key": key, "error": err.Error()})
		return nil
	}
	if entry.Response == nil {
		return nil
	}
	return entry.Response
}

// write persists an entry. Failures are logged, not propagated: a run with a
// broken cache still produces output.
func (c *Cache) write(ctx context.Context, key string, entry *CacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.log.Warn("cache entry marshal failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	if err := c.client.Upload(ctx, key, data); err != nil {
		c.log.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}
	c.log.Debug("transcript cached", map[string]interface{}{"key": key})
}

func normalizeLanguage(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return "auto"
	}
	return language
}
