package upload

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Sessions are stored as JSON under key: "upload:<token>" with TTL =
// expiresAt - now, so abandoned sessions expire without a reaper. Consume
// relies on GETDEL, which makes the lookup-and-delete a single atomic
// operation on the Redis side.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

var _ Repository = (*RedisRepository)(nil)

// NewRedisRepository creates a Redis-based pending-upload repository.
// Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "upload:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(token string) string {
	return r.prefix + token
}

func (r *RedisRepository) Create(ctx context.Context, p *PendingUpload) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	exp := time.Until(p.ExpiresAt)
	if exp <= 0 {
		// ensure a minimal TTL so Redis won't store expired sessions
		exp = time.Second
	}
	return r.client.Set(ctx, r.key(p.Token), b, exp).Err()
}

func (r *RedisRepository) Get(ctx context.Context, token string) (*PendingUpload, error) {
	b, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return decodePending(b)
}

func (r *RedisRepository) Consume(ctx context.Context, token string) (*PendingUpload, error) {
	b, err := r.client.GetDel(ctx, r.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return decodePending(b)
}

func decodePending(b []byte) (*PendingUpload, error) {
	var p PendingUpload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
