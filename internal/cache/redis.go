package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/EduardoVBF/frota-mirim-sub000/config"
	"github.com/EduardoVBF/frota-mirim-sub000/internal/model"
)

// CacheClient defines the interface for cache operations
type CacheClient interface {
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	SetVehicle(ctx context.Context, vehicle *model.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error

	// Latest usage event per user, backing the current-vehicle lookup.
	GetLatestUsageByUser(ctx context.Context, userID string) (*model.UsageEvent, error)
	SetLatestUsageByUser(ctx context.Context, userID string, event *model.UsageEvent) error
	DeleteLatestUsageByUser(ctx context.Context, userID string) error

	FlushAll(ctx context.Context) error
}

// RedisClient implements CacheClient using Redis
type RedisClient struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg config.RedisConfig) (CacheClient, error) {
	if !cfg.Enabled {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:  client,
		enabled: true,
		ttl:     time.Hour,
	}, nil
}

// Prefix keys to avoid collisions
func vehicleKey(id string) string {
	return fmt.Sprintf("vehicle:%s", id)
}

func userUsageKey(userID string) string {
	return fmt.Sprintf("usage_latest:user:%s", userID)
}

// GetVehicle retrieves a vehicle from cache
func (c *RedisClient) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, vehicleKey(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var vehicle model.Vehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		return nil, err
	}

	return &vehicle, nil
}

// SetVehicle caches a vehicle
func (c *RedisClient) SetVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, vehicleKey(vehicle.UUID), data, c.ttl).Err()
}

// DeleteVehicle removes a vehicle from cache
func (c *RedisClient) DeleteVehicle(ctx context.Context, id string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, vehicleKey(id)).Err()
}

// GetLatestUsageByUser retrieves a user's latest usage event from cache
func (c *RedisClient) GetLatestUsageByUser(ctx context.Context, userID string) (*model.UsageEvent, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, userUsageKey(userID)).Bytes()
	if err != nil {
		return nil, err
	}

	var event model.UsageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

// SetLatestUsageByUser caches a user's latest usage event
func (c *RedisClient) SetLatestUsageByUser(ctx context.Context, userID string, event *model.UsageEvent) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, userUsageKey(userID), data, c.ttl).Err()
}

// DeleteLatestUsageByUser removes a user's latest usage event from cache
func (c *RedisClient) DeleteLatestUsageByUser(ctx context.Context, userID string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, userUsageKey(userID)).Err()
}

// FlushAll clears all cache
func (c *RedisClient) FlushAll(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	return c.client.FlushAll(ctx).Err()
}
