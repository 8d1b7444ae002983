package redpipe

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"
)

// Hash is a keyspace of redis hashes.
type Hash struct {
	Keyspace
	// Fields holds per-member codecs.
	Fields map[string]Field
	// Value encodes members without an entry in Fields; defaults to TextField.
	Value Field
}

// HashOps are Hash commands bound to a pipeline.
type HashOps struct {
	bound
	fields map[string]Field
	value  Field
}

// Bind ties the keyspace to p. A nil p executes every command immediately.
func (h Hash) Bind(p Pipe) HashOps {
	return HashOps{bound: h.bind(p), fields: h.Fields, value: codec(h.Value)}
}

func (o HashOps) codecFor(member string) Field {
	if f, ok := o.fields[member]; ok && f != nil {
		return f
	}
	return o.value
}

// Encode encodes v the way member is stored.
func (o HashOps) Encode(member string, v any) (string, error) {
	return o.codecFor(member).Encode(v)
}

// Decode decodes a stored member value.
func (o HashOps) Decode(member, v string) (any, error) {
	return o.codecFor(member).Decode(v)
}

// HGet returns the decoded value of member. Missing members resolve as nil.
func (o HashOps) HGet(ctx context.Context, key, member string) *Future[any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringCmd {
			return rp.HGet(ctx, rk, member)
		}, func(v string) (any, error) { return o.Decode(member, v) })
	})
}

// HSet sets member and returns 1 when it was created.
func (o HashOps) HSet(ctx context.Context, key, member string, value any) *Future[int64] {
	enc, err := o.Encode(member, value)
	if err != nil {
		return failed[int64](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.HSet(ctx, rk, member, enc)
		})
	})
}

// HSetNX sets member only if it does not exist.
func (o HashOps) HSetNX(ctx context.Context, key, member string, value any) *Future[bool] {
	enc, err := o.Encode(member, value)
	if err != nil {
		return failed[bool](ctx, err)
	}
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueue[bool](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.BoolCmd {
			return rp.HSetNX(ctx, rk, member, enc)
		})
	})
}

// HMSet sets several members at once.
func (o HashOps) HMSet(ctx context.Context, key string, values map[string]any) *Future[bool] {
	members := make([]string, 0, len(values))
	for m := range values {
		members = append(members, m)
	}
	sort.Strings(members)

	args := make([]any, 0, 2*len(values))
	for _, m := range members {
		enc, err := o.Encode(m, values[m])
		if err != nil {
			return failed[bool](ctx, err)
		}
		args = append(args, m, enc)
	}
	if len(args) == 0 {
		return Resolved(true)
	}

	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.HSet(ctx, rk, args...)
		}, func(int64) (bool, error) { return true, nil })
	})
}

// HMGet returns the decoded values of members in order. Missing members are nil.
func (o HashOps) HMGet(ctx context.Context, key string, members ...string) *Future[[]any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[[]any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.SliceCmd {
			return rp.HMGet(ctx, rk, members...)
		}, func(vals []any) ([]any, error) {
			out := make([]any, len(vals))
			for i, v := range vals {
				s, ok := v.(string)
				if !ok || i >= len(members) {
					continue
				}
				d, err := o.Decode(members[i], s)
				if err != nil {
					return nil, err
				}
				out[i] = d
			}
			return out, nil
		})
	})
}

// HGetAll returns every member decoded. Missing keys yield an empty map.
func (o HashOps) HGetAll(ctx context.Context, key string) *Future[map[string]any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[map[string]any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.MapStringStringCmd {
			return rp.HGetAll(ctx, rk)
		}, func(vals map[string]string) (map[string]any, error) {
			out := make(map[string]any, len(vals))
			for m, v := range vals {
				d, err := o.Decode(m, v)
				if err != nil {
					return nil, err
				}
				out[m] = d
			}
			return out, nil
		})
	})
}

// HDel removes members and returns how many existed.
func (o HashOps) HDel(ctx context.Context, key string, members ...string) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.HDel(ctx, rk, members...)
		})
	})
}

// HExists reports whether member is set.
func (o HashOps) HExists(ctx context.Context, key, member string) *Future[bool] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[bool] {
		return enqueue[bool](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.BoolCmd {
			return rp.HExists(ctx, rk, member)
		})
	})
}

// HLen returns the number of members.
func (o HashOps) HLen(ctx context.Context, key string) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.HLen(ctx, rk)
		})
	})
}

// HKeys returns the member names.
func (o HashOps) HKeys(ctx context.Context, key string) *Future[[]string] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[[]string] {
		return enqueue[[]string](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringSliceCmd {
			return rp.HKeys(ctx, rk)
		})
	})
}

// HVals returns the member values decoded with the default value codec.
func (o HashOps) HVals(ctx context.Context, key string) *Future[[]any] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[[]any] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StringSliceCmd {
			return rp.HVals(ctx, rk)
		}, func(vals []string) ([]any, error) { return decodeStrings(o.value, vals) })
	})
}

// HIncrBy increments member by n.
func (o HashOps) HIncrBy(ctx context.Context, key, member string, n int64) *Future[int64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.HIncrBy(ctx, rk, member, n)
		})
	})
}

// HIncrByFloat increments member by f.
func (o HashOps) HIncrByFloat(ctx context.Context, key, member string, f float64) *Future[float64] {
	rk := o.ks.RedisKey(key)
	return queue(ctx, o.bound, func(p Pipe) *Future[float64] {
		return enqueue[float64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.FloatCmd {
			return rp.HIncrByFloat(ctx, rk, member, f)
		})
	})
}
