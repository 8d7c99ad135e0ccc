package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore ttl 防止进程崩溃后遗留的房间集合
func NewRedisStore(rdb *redis.Client, ttl time.Duration) Store {
	return &redisStore{rdb: rdb, ttl: ttl}
}

// key 约定：
//
//	set: rps:room:{roomID}   -> Set(participant,...)
func roomKey(roomID string) string {
	return fmt.Sprintf("rps:room:%s", roomID)
}

func (r *redisStore) Add(ctx context.Context, roomID, participant string) error {
	p := r.rdb.Pipeline()
	p.SAdd(ctx, roomKey(roomID), participant)
	if r.ttl > 0 {
		p.Expire(ctx, roomKey(roomID), r.ttl)
	}
	_, err := p.Exec(ctx)
	return err
}

// Lua 脚本：移除成员；若集合空则删除集合
// KEYS[1] = roomKey, ARGV[1] = participant
var removeScript = redis.NewScript(`
    redis.call("SREM", KEYS[1], ARGV[1])
    if redis.call("SCARD", KEYS[1]) == 0 then
        redis.call("DEL", KEYS[1])
    end
    return 1
`)

func (r *redisStore) Remove(ctx context.Context, roomID, participant string) error {
	key := roomKey(roomID)
	if err := removeScript.Run(ctx, r.rdb, []string{key}, participant).Err(); err != nil {
		// 回退到非原子实现
		if err := r.rdb.SRem(ctx, key, participant).Err(); err != nil {
			return err
		}
		if n, _ := r.rdb.SCard(ctx, key).Result(); n == 0 {
			return r.rdb.Del(ctx, key).Err()
		}
	}
	return nil
}

func (r *redisStore) Count(ctx context.Context, roomID string) (int64, error) {
	return r.rdb.SCard(ctx, roomKey(roomID)).Result()
}
