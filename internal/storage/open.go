package storage

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config selects and configures a storage backend.
type Config struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the backend named by cfg.Driver. The returned closer releases
// the backend's resources.
func Open(ctx context.Context, cfg Config) (Store, io.Closer, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), nopCloser{}, nil
	case DriverFile, "":
		fs, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using file storage at %s", cfg.Path)
		return fs, fs, nil
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Printf("Redis ping succeeded at %s", cfg.RedisAddr)
		rs := NewRedisStore(client)
		return rs, rs, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
