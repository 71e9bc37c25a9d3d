package verify

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"hemolink/pkg/domain"
)

const codeKeyPrefix = "verify:code:"

// RedisCodeStore is the production CodeStore. Expiry is enforced by Redis
// TTLs; redemption uses GETDEL so a code can only be taken once across
// instances.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Put(ctx context.Context, userID domain.UserID, code string, ttl time.Duration) error {
	return s.client.Set(ctx, codeKeyPrefix+userID.String(), code, ttl).Err()
}

func (s *RedisCodeStore) Take(ctx context.Context, userID domain.UserID) (string, error) {
	code, err := s.client.GetDel(ctx, codeKeyPrefix+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}
