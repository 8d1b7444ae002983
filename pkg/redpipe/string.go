package redpipe

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// String is a keyspace of plain redis string values.
type String struct {
	Keyspace
	// Value encodes stored values; defaults to TextField.
	Value Field
}

// StringOps are String commands bound to a pipeline.
type StringOps struct {
	bound
	value Field
}

// Bind ties the keyspace to p. A nil p executes every command immediately.
func (s String) Bind(p Pipe) StringOps {
	return StringOps{bound: s.bind(p), value: codec(s.Value)}
}

func (o StringOps) decode(v string) (any, error) {
	return o.value.Decode(v)
}

// Get returns the decoded value of key. Missing keys resolve as nil.
func (o StringOps) Get(ctx context.Context, key string) *Future[any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringCmd {
			return rp.Get(ctx, rk)
		}, o.decode)
	})
}

// Set stores value under key. A positive ttl sets an expiry.
func (o StringOps) Set(ctx context.Context, key string, value any, ttl time.Duration) *Future[bool] {
	enc, err := o.value.Encode(value)
	if err != nil {
		return failed[bool](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StatusCmd {
			return rp.Set(ctx, rk, enc, ttl)
		}, statusOK)
	})
}

// SetNX stores value only if key does not exist.
func (o StringOps) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *Future[bool] {
	enc, err := o.value.Encode(value)
	if err != nil {
		return failed[bool](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueue[bool](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.BoolCmd {
			return rp.SetNX(ctx, rk, enc, ttl)
		})
	})
}

// SetEX stores value with an expiry.
func (o StringOps) SetEX(ctx context.Context, key string, value any, ttl time.Duration) *Future[bool] {
	enc, err := o.value.Encode(value)
	if err != nil {
		return failed[bool](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StatusCmd {
			return rp.SetEx(ctx, rk, enc, ttl)
		}, statusOK)
	})
}

// GetSet stores value and returns the previous one.
func (o StringOps) GetSet(ctx context.Context, key string, value any) *Future[any] {
	enc, err := o.value.Encode(value)
	if err != nil {
		return failed[any](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringCmd {
			return rp.GetSet(ctx, rk, enc)
		}, o.decode)
	})
}

// Append appends value and returns the new length.
func (o StringOps) Append(ctx context.Context, key string, value any) *Future[int64] {
	enc, err := o.value.Encode(value)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.Append(ctx, rk, enc)
		})
	})
}

// Incr increments key by one.
func (o StringOps) Incr(ctx context.Context, key string) *Future[int64] {
	return o.IncrBy(ctx, key, 1)
}

// IncrBy increments key by n.
func (o StringOps) IncrBy(ctx context.Context, key string, n int64) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.IncrBy(ctx, rk, n)
		})
	})
}

// IncrByFloat increments key by f.
func (o StringOps) IncrByFloat(ctx context.Context, key string, f float64) *Future[float64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[float64] {
		return enqueue[float64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.FloatCmd {
			return rp.IncrByFloat(ctx, rk, f)
		})
	})
}

// Decr decrements key by one.
func (o StringOps) Decr(ctx context.Context, key string) *Future[int64] {
	return o.IncrBy(ctx, key, -1)
}

// DecrBy decrements key by n.
func (o StringOps) DecrBy(ctx context.Context, key string, n int64) *Future[int64] {
	return o.IncrBy(ctx, key, -n)
}

// MGet returns the decoded values of keys. Missing keys are nil.
func (o StringOps) MGet(ctx context.Context, keys ...string) *Future[[]any] {
	rks := o.ks.redisKeys(keys)
	return queue(ctx, o.bound, func(p Pipe) *Future[[]any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.SliceCmd {
			return rp.MGet(ctx, rks...)
		}, o.decodeSlice)
	})
}

// StrLen returns the length of the stored value.
func (o StringOps) StrLen(ctx context.Context, key string) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.StrLen(ctx, rk)
		})
	})
}

func (o StringOps) decodeSlice(vals []any) ([]any, error) {
	out := make([]any, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		d, err := o.value.Decode(s)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
