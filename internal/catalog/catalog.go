// Package catalog resolves log asset tags against the media reference data.
//
// Lookups are cache-aside: Redis first, Postgres on a miss. The same tag is
// typically hit many times within one log file, so a short TTL is enough to
// keep the database out of the per-line path. Cache failures degrade to
// direct database reads; the scanner never fails a bucket because Redis is
// down.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/accesslog-scanner/internal/logging"
	"github.com/accesslog-scanner/internal/models"
	"github.com/accesslog-scanner/internal/storage"
	"github.com/redis/go-redis/v9"
)

// VideoFinder looks up a video by its streaming tag.
type VideoFinder interface {
	FindByBeHLSTag(ctx context.Context, tag string) (*models.Video, error)
}

// AnimationGifFinder looks up an animation GIF by hash together with its
// parent video.
type AnimationGifFinder interface {
	FindByHash(ctx context.Context, hash string) (*models.AnimationGif, *models.Video, error)
}

// Catalog provides cached reference lookups for the scanner.
type Catalog struct {
	videos VideoFinder
	gifs   AnimationGifFinder
	cache  *storage.RedisCache
	ttl    time.Duration
}

// New creates a catalog. cache may be nil, in which case every lookup goes
// straight to the repositories.
func New(videos VideoFinder, gifs AnimationGifFinder, cache *storage.RedisCache, ttl time.Duration) *Catalog {
	return &Catalog{
		videos: videos,
		gifs:   gifs,
		cache:  cache,
		ttl:    ttl,
	}
}

// cachedGif bundles a GIF with its parent video for cache storage.
type cachedGif struct {
	Gif   *models.AnimationGif `json:"gif"`
	Video *models.Video        `json:"video"`
}

// FindVideoByTag resolves a streaming tag to a video. An unknown tag
// returns (nil, nil): stale tags are expected in logs and are not errors.
func (c *Catalog) FindVideoByTag(ctx context.Context, tag string) (*models.Video, error) {
	key := fmt.Sprintf("video:tag:%s", tag)

	var cached models.Video
	if c.getCached(ctx, key, &cached) {
		return &cached, nil
	}

	video, err := c.videos.FindByBeHLSTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, nil
	}

	c.setCached(ctx, key, video)

	return video, nil
}

// FindAnimationGifByHash resolves a content hash to an animation GIF and
// its parent video. An unknown hash returns (nil, nil, nil).
func (c *Catalog) FindAnimationGifByHash(ctx context.Context, hash string) (*models.AnimationGif, *models.Video, error) {
	key := fmt.Sprintf("anigif:hash:%s", hash)

	var cached cachedGif
	if c.getCached(ctx, key, &cached) {
		return cached.Gif, cached.Video, nil
	}

	gif, video, err := c.gifs.FindByHash(ctx, hash)
	if err != nil {
		return nil, nil, err
	}
	if gif == nil {
		return nil, nil, nil
	}

	c.setCached(ctx, key, &cachedGif{Gif: gif, Video: video})

	return gif, video, nil
}

// getCached loads a JSON cache entry into dest and reports whether it hit.
func (c *Catalog) getCached(ctx context.Context, key string, dest interface{}) bool {
	if c.cache == nil {
		return false
	}

	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).WithError(err).Debugf("catalog cache read failed for %s", key)
		}
		return false
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		logging.FromContext(ctx).WithError(err).Debugf("catalog cache entry corrupt for %s", key)
		return false
	}

	return true
}

// setCached stores a JSON cache entry, best effort.
func (c *Catalog) setCached(ctx context.Context, key string, value interface{}) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		logging.FromContext(ctx).WithError(err).Debugf("catalog cache write failed for %s", key)
	}
}
