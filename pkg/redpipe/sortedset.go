package redpipe

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// SortedSet is a keyspace of redis sorted sets.
type SortedSet struct {
	Keyspace
	// Member encodes members; defaults to TextField.
	Member Field
}

// SortedSetOps are SortedSet commands bound to a pipeline.
type SortedSetOps struct {
	bound
	member Field
}

// Bind ties the keyspace to p. A nil p executes every command immediately.
func (z SortedSet) Bind(p Pipe) SortedSetOps {
	return SortedSetOps{bound: z.bind(p), member: codec(z.Member)}
}

func (o SortedSetOps) decodeAll(vals []string) ([]any, error) {
	return decodeStrings(o.member, vals)
}

func (o SortedSetOps) rangeOf(ctx context.Context, build func(ctx context.Context, rp redis.Pipeliner) *redis.StringSliceCmd) *Future[[]any] {
	return queue(ctx, o.bound, func(p Pipe) *Future[[]any] {
		return enqueueMap(ctx, p, build, o.decodeAll)
	})
}

// ZAdd adds scored members and returns how many were new.
func (o SortedSetOps) ZAdd(ctx context.Context, key string, members ...redis.Z) *Future[int64] {
	enc := make([]redis.Z, len(members))
	for i, m := range members {
		s, err := o.member.Encode(m.Member)
		if err != nil {
			return failed[int64](ctx, err)
		}
		enc[i] = redis.Z{Score: m.Score, Member: s}
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.ZAdd(ctx, rk, enc...)
		})
	})
}

// ZRem removes members and returns how many existed.
func (o SortedSetOps) ZRem(ctx context.Context, key string, members ...any) *Future[int64] {
	enc, err := encodeAll(o.member, members)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.ZRem(ctx, rk, enc...)
		})
	})
}

// ZScore returns the score of member. Missing members resolve as nil.
func (o SortedSetOps) ZScore(ctx context.Context, key string, member any) *Future[float64] {
	enc, err := o.member.Encode(member)
	if err != nil {
		return failed[float64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[float64] {
		return enqueue[float64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.FloatCmd {
			return rp.ZScore(ctx, rk, enc)
		})
	})
}

// ZIncrBy adds incr to the score of member.
func (o SortedSetOps) ZIncrBy(ctx context.Context, key string, incr float64, member any) *Future[float64] {
	enc, err := o.member.Encode(member)
	if err != nil {
		return failed[float64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[float64] {
		return enqueue[float64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.FloatCmd {
			return rp.ZIncrBy(ctx, rk, incr, enc)
		})
	})
}

// ZCard returns the number of members.
func (o SortedSetOps) ZCard(ctx context.Context, key string) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.ZCard(ctx, rk)
		})
	})
}

// ZCount counts members with scores between min and max ("-inf", "(1", ...).
func (o SortedSetOps) ZCount(ctx context.Context, key, min, max string) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.ZCount(ctx, rk, min, max)
		})
	})
}

// ZRange returns members by rank, lowest score first.
func (o SortedSetOps) ZRange(ctx context.Context, key string, start, stop int64) *Future[[]any] {
	rk := o.ks.RedisKey(key)
	return o.rangeOf(ctx, func(ctx context.Context, rp redis.Pipeliner) *redis.StringSliceCmd {
		return rp.ZRange(ctx, rk, start, stop)
	})
}

// ZRangeWithScores returns members and scores by rank. Members are decoded.
func (o SortedSetOps) ZRangeWithScores(ctx context.Context, key string, start, stop int64) *Future[[]redis.Z] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[[]redis.Z] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.ZSliceCmd {
			return rp.ZRangeWithScores(ctx, rk, start, stop)
		}, func(zs []redis.Z) ([]redis.Z, error) {
			out := make([]redis.Z, len(zs))
			for i, z := range zs {
				m, _ := z.Member.(string)
				d, err := o.member.Decode(m)
				if err != nil {
					return nil, err
				}
				out[i] = redis.Z{Score: z.Score, Member: d}
			}
			return out, nil
		})
	})
}

// ZRevRange returns members by rank, highest score first.
func (o SortedSetOps) ZRevRange(ctx context.Context, key string, start, stop int64) *Future[[]any] {
	rk := o.ks.RedisKey(key)
	return o.rangeOf(ctx, func(ctx context.Context, rp redis.Pipeliner) *redis.StringSliceCmd {
		return rp.ZRevRange(ctx, rk, start, stop)
	})
}

// ZRangeByScore returns members with scores inside by.
func (o SortedSetOps) ZRangeByScore(ctx context.Context, key string, by *redis.ZRangeBy) *Future[[]any] {
	rk := o.ks.RedisKey(key)
	return o.rangeOf(ctx, func(ctx context.Context, rp redis.Pipeliner) *redis.StringSliceCmd {
		return rp.ZRangeByScore(ctx, rk, by)
	})
}

// ZRank returns the rank of member, lowest score first.
func (o SortedSetOps) ZRank(ctx context.Context, key string, member any) *Future[int64] {
	return o.rank(ctx, key, member, false)
}

// ZRevRank returns the rank of member, highest score first.
func (o SortedSetOps) ZRevRank(ctx context.Context, key string, member any) *Future[int64] {
	return o.rank(ctx, key, member, true)
}

func (o SortedSetOps) rank(ctx context.Context, key string, member any, rev bool) *Future[int64] {
	enc, err := o.member.Encode(member)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			if rev {
				return rp.ZRevRank(ctx, rk, enc)
			}
			return rp.ZRank(ctx, rk, enc)
		})
	})
}

// ZRemRangeByRank removes members with rank between start and stop.
func (o SortedSetOps) ZRemRangeByRank(ctx context.Context, key string, start, stop int64) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.ZRemRangeByRank(ctx, rk, start, stop)
		})
	})
}

// ZRemRangeByScore removes members with scores between min and max.
func (o SortedSetOps) ZRemRangeByScore(ctx context.Context, key, min, max string) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.ZRemRangeByScore(ctx, rk, min, max)
		})
	})
}
