// Package rdx holds the Redis client and the Redis-backed delete confirmations.
package rdx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"tripsheet/config"
	"tripsheet/workflow"
)

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "redis ping %s", cfg.Addr)
	}
	return rdb, nil
}

const confirmPrefix = "tripsheet:confirm:"

// Confirmations keeps pending delete confirmations in Redis so they survive
// across requests and server instances. Redis expiry is the implicit decline.
type Confirmations struct {
	rdb *redis.Client
}

func NewConfirmations(rdb *redis.Client) *Confirmations {
	return &Confirmations{rdb: rdb}
}

func (c *Confirmations) Put(ctx context.Context, conf workflow.Confirmation, ttl time.Duration) error {
	data, err := json.Marshal(conf)
	if err != nil {
		return errors.Wrap(err, "marshal confirmation")
	}
	if err := c.rdb.Set(ctx, confirmPrefix+conf.Token, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "store confirmation")
	}
	return nil
}

func (c *Confirmations) Peek(ctx context.Context, token string) (workflow.Confirmation, bool, error) {
	return c.read(c.rdb.Get(ctx, confirmPrefix+token))
}

// Take uses GETDEL so a token can be confirmed at most once.
func (c *Confirmations) Take(ctx context.Context, token string) (workflow.Confirmation, bool, error) {
	return c.read(c.rdb.GetDel(ctx, confirmPrefix+token))
}

func (c *Confirmations) read(cmd *redis.StringCmd) (workflow.Confirmation, bool, error) {
	data, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return workflow.Confirmation{}, false, nil
	}
	if err != nil {
		return workflow.Confirmation{}, false, errors.Wrap(err, "read confirmation")
	}
	var conf workflow.Confirmation
	if err := json.Unmarshal(data, &conf); err != nil {
		return workflow.Confirmation{}, false, errors.Wrap(err, "decode confirmation")
	}
	return conf, true, nil
}
