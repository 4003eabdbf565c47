package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/partforge/sourcing-backend/internal/domain"
	"github.com/partforge/sourcing-backend/internal/platform/logger"
)

// ReadingCache memoizes market pressure readings for a short TTL so bursts of
// customer-facing views do not recompute the census scans. Absence of redis
// degrades to cache misses; the cache is never authoritative.
type ReadingCache interface {
	Get(ctx context.Context, rfqID uuid.UUID) (*domain.MarketPressureReading, bool)
	Set(ctx context.Context, reading *domain.MarketPressureReading)
	Close() error
}

type readingCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewReadingCache(log *logger.Logger) (ReadingCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := 30 * time.Second
	if v := strings.TrimSpace(os.Getenv("PRESSURE_CACHE_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &readingCache{
		log: log.With("service", "PressureReadingCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func cacheKey(rfqID uuid.UUID) string {
	return "pressure:" + rfqID.String()
}

func (c *readingCache) Get(ctx context.Context, rfqID uuid.UUID) (*domain.MarketPressureReading, bool) {
	if c == nil || c.rdb == nil || rfqID == uuid.Nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(rfqID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("pressure cache read failed", "error", err, "rfq_id", rfqID)
		}
		return nil, false
	}
	var reading domain.MarketPressureReading
	if err := json.Unmarshal(raw, &reading); err != nil {
		c.log.Warn("pressure cache entry corrupt", "error", err, "rfq_id", rfqID)
		return nil, false
	}
	return &reading, true
}

func (c *readingCache) Set(ctx context.Context, reading *domain.MarketPressureReading) {
	if c == nil || c.rdb == nil || reading == nil || reading.RFQID == uuid.Nil {
		return
	}
	raw, err := json.Marshal(reading)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(reading.RFQID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("pressure cache write failed", "error", err, "rfq_id", reading.RFQID)
	}
}

func (c *readingCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
