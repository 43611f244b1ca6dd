package walletcache

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const addressKeyPrefix = "usdt:address:user:"

var ErrNotFound = errors.New("wallet address not cached")

// IStore caches the deposit address issued for a user. Addresses are stable
// for the lifetime of every intent referencing them, so entries never expire.
type IStore interface {
	Get(ctx context.Context, userID int64) (string, error)
	Set(ctx context.Context, userID int64, address string) error
}

type store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) IStore {
	return &store{rdb: rdb}
}

func addressKey(userID int64) string {
	return addressKeyPrefix + strconv.FormatInt(userID, 10)
}

func (s *store) Get(ctx context.Context, userID int64) (string, error) {
	address, err := s.rdb.Get(ctx, addressKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", errors.Wrap(err, "get cached wallet address")
	}
	return address, nil
}

func (s *store) Set(ctx context.Context, userID int64, address string) error {
	return s.rdb.Set(ctx, addressKey(userID), address, 0).Err()
}
