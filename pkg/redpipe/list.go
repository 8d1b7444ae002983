package redpipe

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// List is a keyspace of redis lists.
type List struct {
	Keyspace
	// Value encodes list elements; defaults to TextField.
	Value Field
}

// ListOps are List commands bound to a pipeline.
type ListOps struct {
	bound
	value Field
}

// Bind ties the keyspace to p. A nil p executes every command immediately.
func (l List) Bind(p Pipe) ListOps {
	return ListOps{bound: l.bind(p), value: codec(l.Value)}
}

func (o ListOps) push(ctx context.Context, key string, left bool, values []any) *Future[int64] {
	enc, err := encodeAll(o.value, values)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			if left {
				return rp.LPush(ctx, rk, enc...)
			}
			return rp.RPush(ctx, rk, enc...)
		})
	})
}

// LPush prepends values and returns the new length.
func (o ListOps) LPush(ctx context.Context, key string, values ...any) *Future[int64] {
	return o.push(ctx, key, true, values)
}

// RPush appends values and returns the new length.
func (o ListOps) RPush(ctx context.Context, key string, values ...any) *Future[int64] {
	return o.push(ctx, key, false, values)
}

// LPop removes and returns the first element. Empty lists resolve as nil.
func (o ListOps) LPop(ctx context.Context, key string) *Future[any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringCmd {
			return rp.LPop(ctx, rk)
		}, o.value.Decode)
	})
}

// RPop removes and returns the last element. Empty lists resolve as nil.
func (o ListOps) RPop(ctx context.Context, key string) *Future[any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringCmd {
			return rp.RPop(ctx, rk)
		}, o.value.Decode)
	})
}

// LRange returns elements between start and stop, inclusive.
func (o ListOps) LRange(ctx context.Context, key string, start, stop int64) *Future[[]any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[[]any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringSliceCmd {
			return rp.LRange(ctx, rk, start, stop)
		}, func(vals []string) ([]any, error) { return decodeStrings(o.value, vals) })
	})
}

// LLen returns the list length.
func (o ListOps) LLen(ctx context.Context, key string) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.LLen(ctx, rk)
		})
	})
}

// LIndex returns the element at index. Out-of-range indexes resolve as nil.
func (o ListOps) LIndex(ctx context.Context, key string, index int64) *Future[any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringCmd {
			return rp.LIndex(ctx, rk, index)
		}, o.value.Decode)
	})
}

// LSet replaces the element at index.
func (o ListOps) LSet(ctx context.Context, key string, index int64, value any) *Future[bool] {
	enc, err := o.value.Encode(value)
	if err != nil {
		return failed[bool](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StatusCmd {
			return rp.LSet(ctx, rk, index, enc)
		}, statusOK)
	})
}

// LRem removes up to count occurrences of value.
func (o ListOps) LRem(ctx context.Context, key string, count int64, value any) *Future[int64] {
	enc, err := o.value.Encode(value)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.LRem(ctx, rk, count, enc)
		})
	})
}

// LTrim keeps only the elements between start and stop.
func (o ListOps) LTrim(ctx context.Context, key string, start, stop int64) *Future[bool] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StatusCmd {
			return rp.LTrim(ctx, rk, start, stop)
		}, statusOK)
	})
}
