// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package state

import (
	"context"
	"errors"
	"net/url"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the state in a single Redis string key.
type Redis struct {
	rdb redis.UniversalClient
	key string
}

// NewRedis returns a Redis store using key on rdb.
func NewRedis(rdb redis.UniversalClient, key string) *Redis {
	return &Redis{rdb: rdb, key: key}
}

func openRedis(ctx context.Context, u *url.URL, defaultKey string) (*Redis, error) {
	q := u.Query()
	key := q.Get("key")
	if key == "" {
		key = defaultKey
	}
	// go-redis rejects options it doesn't know about.
	q.Del("key")
	u.RawQuery = q.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(err, rdb.Close())
	}
	return NewRedis(rdb, key), nil
}

// Load implements [Store].
func (r *Redis) Load(ctx context.Context) (string, error) {
	v, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Save implements [Store].
func (r *Redis) Save(ctx context.Context, value string) error {
	return r.rdb.Set(ctx, r.key, value, 0).Err()
}

// Close implements [Store].
func (r *Redis) Close() error { return r.rdb.Close() }

var _ Store = (*Redis)(nil)
