package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStore keeps cached responses in Redis so several storefront
// processes share one cache. Tags are Redis sets of keys.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	log    logrus.FieldLogger
}

func NewRedisStore(rdb *redis.Client, prefix string, log logrus.FieldLogger) *RedisStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisStore{rdb: rdb, prefix: prefix, log: log}
}

func (s *RedisStore) key(k string) string { return s.prefix + "k:" + k }
func (s *RedisStore) tag(t string) string { return s.prefix + "t:" + t }

func (s *RedisStore) Get(key string) ([]byte, bool) {
	b, err := s.rdb.Get(context.Background(), s.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.WithError(err).WithField("key", key).Warn("redis cache get failed")
		}
		return nil, false
	}
	return b, true
}

func (s *RedisStore) Set(key string, value []byte, ttl time.Duration, tags []string) {
	ctx := context.Background()
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(key), value, ttl)
	for _, t := range tags {
		pipe.SAdd(ctx, s.tag(t), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("redis cache set failed")
	}
}

func (s *RedisStore) Delete(key string) {
	if err := s.rdb.Del(context.Background(), s.key(key)).Err(); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("redis cache delete failed")
	}
}

func (s *RedisStore) DeleteByTag(tag string) {
	ctx := context.Background()
	keys, err := s.rdb.SMembers(ctx, s.tag(tag)).Result()
	if err != nil {
		s.log.WithError(err).WithField("tag", tag).Warn("redis cache tag lookup failed")
		return
	}
	del := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		del = append(del, s.key(k))
	}
	del = append(del, s.tag(tag))
	if err := s.rdb.Del(ctx, del...).Err(); err != nil {
		s.log.WithError(err).WithField("tag", tag).Warn("redis cache invalidate failed")
	}
}
