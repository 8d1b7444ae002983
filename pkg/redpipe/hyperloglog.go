package redpipe

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// HyperLogLog is a keyspace of redis HyperLogLog counters.
type HyperLogLog struct {
	Keyspace
	// Value encodes added elements; defaults to TextField.
	Value Field
}

// HyperLogLogOps are HyperLogLog commands bound to a pipeline.
type HyperLogLogOps struct {
	bound
	value Field
}

// Bind ties the keyspace to p. A nil p executes every command immediately.
func (h HyperLogLog) Bind(p Pipe) HyperLogLogOps {
	return HyperLogLogOps{bound: h.bind(p), value: codec(h.Value)}
}

// PFAdd adds elements and reports 1 when the estimate changed.
func (o HyperLogLogOps) PFAdd(ctx context.Context, key string, elements ...any) *Future[int64] {
	enc, err := encodeAll(o.value, elements)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.PFAdd(ctx, rk, enc...)
		})
	})
}

// PFCount returns the estimated cardinality of the union of keys.
func (o HyperLogLogOps) PFCount(ctx context.Context, keys ...string) *Future[int64] {
	rks := o.ks.redisKeys(keys)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.PFCount(ctx, rks...)
		})
	})
}

// PFMerge merges sources into dest.
func (o HyperLogLogOps) PFMerge(ctx context.Context, dest string, sources ...string) *Future[bool] {
	rk := o.ks.RedisKey(dest)
	rks := o.ks.redisKeys(sources)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StatusCmd {
			return rp.PFMerge(ctx, rk, rks...)
		}, statusOK)
	})
}
