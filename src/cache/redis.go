package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"grid-observer/src/logger"
	"grid-observer/src/models"

	"github.com/go-redis/redis/v8"
)

// live stats entries expire if the engine stops refreshing them
const statsTTL = time.Hour

// -----------------------------------------------------------------------------
// RedisCache mirrors the live device statistics and the recent anomalies
// into Redis so external consumers can read them without tailing the
// changelog files.
// -----------------------------------------------------------------------------

type RedisCache struct {
	Client      *redis.Client
	Logger      *logger.Logger
	RecentLimit int64

	ctx context.Context
}

// -----------------------------------------------------------------------------

func NewRedisCache(addr string, recentLimit int64, log *logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   "",
		DB:         0,
		MaxRetries: 3,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &RedisCache{
		Client:      client,
		Logger:      log,
		RecentLimit: recentLimit,
		ctx:         ctx,
	}, nil
}

// -----------------------------------------------------------------------------

// StoreStats overwrites the live row for one device type.
func (r *RedisCache) StoreStats(stats models.MDeviceStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	key := fmt.Sprintf("stats:%s", stats.DeviceType)
	if err := r.Client.Set(r.ctx, key, data, statsTTL).Err(); err != nil {
		return fmt.Errorf("failed to store stats in redis: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// PushAnomaly prepends one anomaly to the recent list, trimmed to the
// configured limit.
func (r *RedisCache) PushAnomaly(anomaly models.MAnomaly) error {
	data, err := json.Marshal(anomaly)
	if err != nil {
		return fmt.Errorf("failed to marshal anomaly: %w", err)
	}

	listKey := "anomalies:recent"
	if err := r.Client.LPush(r.ctx, listKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push anomaly to redis: %w", err)
	}
	r.Client.LTrim(r.ctx, listKey, 0, r.RecentLimit-1)

	return nil
}

// -----------------------------------------------------------------------------

// GetAllStats reads back the live row of every device type.
func (r *RedisCache) GetAllStats() (map[string]models.MDeviceStats, error) {
	stats := make(map[string]models.MDeviceStats)

	iter := r.Client.Scan(r.ctx, 0, "stats:*", 0).Iterator()
	for iter.Next(r.ctx) {
		data, err := r.Client.Get(r.ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var row models.MDeviceStats
		if err := json.Unmarshal([]byte(data), &row); err != nil {
			continue
		}
		stats[row.DeviceType] = row
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan stats keys: %w", err)
	}
	return stats, nil
}

// -----------------------------------------------------------------------------

// GetRecentAnomalies reads back up to count anomalies, newest first.
func (r *RedisCache) GetRecentAnomalies(count int64) ([]models.MAnomaly, error) {
	items, err := r.Client.LRange(r.ctx, "anomalies:recent", 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent anomalies: %w", err)
	}

	var anomalies []models.MAnomaly
	for _, item := range items {
		var anomaly models.MAnomaly
		if err := json.Unmarshal([]byte(item), &anomaly); err != nil {
			continue
		}
		anomalies = append(anomalies, anomaly)
	}
	return anomalies, nil
}

// -----------------------------------------------------------------------------

func (r *RedisCache) Close() error {
	return r.Client.Close()
}
