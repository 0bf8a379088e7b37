package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
	"github.com/redis/go-redis/v9"
)

const redisDialTimeout = 5 * time.Second

// RedisStore keeps the state record and fetch stamps as JSON values in Redis.
type RedisStore struct {
	settings conf.RedisSettings
	rdb      *redis.Client
	metrics  *metrics.WeatherMetrics
}

// NewRedisStore creates an unopened Redis store
func NewRedisStore(settings conf.RedisSettings, m *metrics.WeatherMetrics) *RedisStore {
	return &RedisStore{settings: settings, metrics: m}
}

func (s *RedisStore) key(name string) string {
	if s.settings.KeyPrefix == "" {
		return name
	}
	return s.settings.KeyPrefix + ":" + name
}

func (s *RedisStore) redisError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("backend", "redis").
		Build()
}

// Open connects to Redis and verifies the connection
func (s *RedisStore) Open() error {
	s.rdb = redis.NewClient(&redis.Options{
		Addr:     s.settings.Addr,
		Password: s.settings.Password,
		DB:       s.settings.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		getLogger().Error("Failed to connect to Redis", "addr", s.settings.Addr, "error", err)
		return s.redisError(fmt.Errorf("failed to connect to redis at %s: %w", s.settings.Addr, err), "open")
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// LoadState reads the state record
func (s *RedisStore) LoadState(ctx context.Context) (state *AppState, err error) {
	defer func(start time.Time) { observe(s.metrics, "load_state", start, err) }(time.Now())

	b, err := s.rdb.Get(ctx, s.key(StateKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewAppState(), nil
	}
	if err != nil {
		return nil, s.redisError(err, "load_state")
	}

	state = &AppState{}
	if err := json.Unmarshal(b, state); err != nil {
		return nil, s.redisError(fmt.Errorf("decoding state record: %w", err), "load_state")
	}
	return state.Normalize(), nil
}

// SaveState writes the state record
func (s *RedisStore) SaveState(ctx context.Context, state *AppState) (err error) {
	defer func(start time.Time) { observe(s.metrics, "save_state", start, err) }(time.Now())

	data, err := json.Marshal(state)
	if err != nil {
		return s.redisError(fmt.Errorf("encoding state: %w", err), "save_state")
	}
	if err := s.rdb.Set(ctx, s.key(StateKey), data, 0).Err(); err != nil {
		return s.redisError(err, "save_state")
	}
	return nil
}

// SaveFetchStamp writes the fetch stamp of a city
func (s *RedisStore) SaveFetchStamp(ctx context.Context, stamp FetchStamp) (err error) {
	defer func(start time.Time) { observe(s.metrics, "save_fetch_stamp", start, err) }(time.Now())

	data, err := json.Marshal(stamp)
	if err != nil {
		return s.redisError(fmt.Errorf("encoding fetch stamp: %w", err), "save_fetch_stamp")
	}
	if err := s.rdb.Set(ctx, s.key(FetchStampKey(stamp.City)), data, 0).Err(); err != nil {
		return s.redisError(err, "save_fetch_stamp")
	}
	return nil
}

// LoadFetchStamps scans all fetch stamp keys
func (s *RedisStore) LoadFetchStamps(ctx context.Context) (stamps []FetchStamp, err error) {
	defer func(start time.Time) { observe(s.metrics, "load_fetch_stamps", start, err) }(time.Now())

	stamps = []FetchStamp{}
	iter := s.rdb.Scan(ctx, 0, s.key(FetchStampPrefix+"*"), 100).Iterator()
	for iter.Next(ctx) {
		b, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, s.redisError(err, "load_fetch_stamps")
		}

		var stamp FetchStamp
		if err := json.Unmarshal(b, &stamp); err != nil {
			getLogger().Warn("Discarding undecodable fetch stamp", "key", iter.Val(), "error", err)
			continue
		}
		stamps = append(stamps, stamp)
	}
	if err := iter.Err(); err != nil {
		return nil, s.redisError(err, "load_fetch_stamps")
	}
	return stamps, nil
}

// DeleteFetchStamp removes the fetch stamp of a city
func (s *RedisStore) DeleteFetchStamp(ctx context.Context, city string) (err error) {
	defer func(start time.Time) { observe(s.metrics, "delete_fetch_stamp", start, err) }(time.Now())

	if err := s.rdb.Del(ctx, s.key(FetchStampKey(city))).Err(); err != nil {
		return s.redisError(err, "delete_fetch_stamp")
	}
	return nil
}
