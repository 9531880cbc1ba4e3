package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/murattal/recite/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	recitersKey           = "catalog:reciters"
	chapterAudioKeyPrefix = "catalog:chapter_audio:"
)

// CachedCatalog wraps a RecitationCatalogPort with a Redis cache. Reciter
// lists and chapter audio metadata are static content, so an hour-scale
// staleness window is acceptable.
type CachedCatalog struct {
	client          *redis.Client
	inner           domain.RecitationCatalogPort
	recitersTTL     time.Duration
	chapterAudioTTL time.Duration
}

func NewCachedCatalog(uri string, inner domain.RecitationCatalogPort, recitersTTL, chapterAudioTTL time.Duration) (*CachedCatalog, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis URI: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &CachedCatalog{
		client:          client,
		inner:           inner,
		recitersTTL:     recitersTTL,
		chapterAudioTTL: chapterAudioTTL,
	}, nil
}

func (c *CachedCatalog) Close() error {
	return c.client.Close()
}

// GetReciters returns the cached reciter list, fetching on a miss
func (c *CachedCatalog) GetReciters(ctx context.Context) ([]domain.Reciter, error) {
	val, err := c.client.Get(ctx, recitersKey).Result()
	if err == nil {
		var reciters []domain.Reciter
		if err := json.Unmarshal([]byte(val), &reciters); err == nil {
			return reciters, nil
		}
		// Corrupt entry, fall through to refetch.
		logrus.WithField("key", recitersKey).Warn("discarding unparseable cache entry")
	} else if !errors.Is(err, redis.Nil) {
		logrus.WithError(err).Warn("reciters cache read failed")
	}

	reciters, err := c.inner.GetReciters(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, recitersKey, reciters, c.recitersTTL)
	return reciters, nil
}

// GetChapterAudio returns cached chapter audio metadata, fetching on a miss.
// Not-available results are never cached so a reciter gaining a recording is
// picked up without waiting for expiry.
func (c *CachedCatalog) GetChapterAudio(ctx context.Context, reciterID, chapterID int) (*domain.ChapterAudioFile, error) {
	key := fmt.Sprintf("%s%d:%d", chapterAudioKeyPrefix, reciterID, chapterID)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var file domain.ChapterAudioFile
		if err := json.Unmarshal([]byte(val), &file); err == nil {
			return &file, nil
		}
		logrus.WithField("key", key).Warn("discarding unparseable cache entry")
	} else if !errors.Is(err, redis.Nil) {
		logrus.WithError(err).Warn("chapter audio cache read failed")
	}

	file, err := c.inner.GetChapterAudio(ctx, reciterID, chapterID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, file, c.chapterAudioTTL)
	return file, nil
}

// store writes through to Redis; cache write failures are logged, never
// surfaced to the caller.
func (c *CachedCatalog) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("marshal cache entry failed")
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}
