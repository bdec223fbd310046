package dedup

import (
	ps "github.com/gomodule/redigo/redis"
)

// redisStore is a Store backed by a shared Redis instance, letting
// independent pkgqa processes (e.g. one per category, fanned out by
// the host) dedup MetadataError results against each other. Grounded
// on the teacher's subscriptions/redis connection-pool usage.
type redisStore struct {
	pool *ps.Pool
}

// NewRedisStore returns a Store that records seen keys as Redis SETNX
// entries against pool.
func NewRedisStore(pool *ps.Pool) Store {
	return &redisStore{pool: pool}
}

func (r *redisStore) Seen(packageIdentity, errorIdentity string) bool {
	conn := r.pool.Get()
	defer conn.Close()

	key := "pkgqa:dedup:" + packageIdentity + "\x00" + errorIdentity

	reply, err := ps.Int(conn.Do("SETNX", key, 1))
	if err != nil {
		// Fail open: if Redis is unreachable, treat as unseen rather
		// than silently dropping a MetadataError the host should know
		// about.
		return false
	}

	return reply == 0
}
