package redpipe

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Set is a keyspace of redis sets.
type Set struct {
	Keyspace
	// Member encodes set members; defaults to TextField.
	Member Field
}

// SetOps are Set commands bound to a pipeline.
type SetOps struct {
	bound
	member Field
}

// Bind ties the keyspace to p. A nil p executes every command immediately.
func (s Set) Bind(p Pipe) SetOps {
	return SetOps{bound: s.bind(p), member: codec(s.Member)}
}

func (o SetOps) decodeAll(vals []string) ([]any, error) {
	return decodeStrings(o.member, vals)
}

// SAdd adds members and returns how many were new.
func (o SetOps) SAdd(ctx context.Context, key string, members ...any) *Future[int64] {
	enc, err := encodeAll(o.member, members)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.SAdd(ctx, rk, enc...)
		})
	})
}

// SRem removes members and returns how many existed.
func (o SetOps) SRem(ctx context.Context, key string, members ...any) *Future[int64] {
	enc, err := encodeAll(o.member, members)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.SRem(ctx, rk, enc...)
		})
	})
}

// SMembers returns every member, in no particular order.
func (o SetOps) SMembers(ctx context.Context, key string) *Future[[]any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[[]any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringSliceCmd {
			return rp.SMembers(ctx, rk)
		}, o.decodeAll)
	})
}

// SIsMember reports whether member is in the set.
func (o SetOps) SIsMember(ctx context.Context, key string, member any) *Future[bool] {
	enc, err := o.member.Encode(member)
	if err != nil {
		return failed[bool](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueue[bool](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.BoolCmd {
			return rp.SIsMember(ctx, rk, enc)
		})
	})
}

// SCard returns the set size.
func (o SetOps) SCard(ctx context.Context, key string) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.SCard(ctx, rk)
		})
	})
}

// SPop removes and returns a random member. Empty sets resolve as nil.
func (o SetOps) SPop(ctx context.Context, key string) *Future[any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringCmd {
			return rp.SPop(ctx, rk)
		}, o.member.Decode)
	})
}

// SRandMember returns a random member without removing it.
func (o SetOps) SRandMember(ctx context.Context, key string) *Future[any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringCmd {
			return rp.SRandMember(ctx, rk)
		}, o.member.Decode)
	})
}
