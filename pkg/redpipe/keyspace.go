package redpipe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyspaceTemplate wraps the record key in a hash tag so every key of
// one record lands on the same cluster slot.
const DefaultKeyspaceTemplate = "%s{%s}"

// Keyspace maps logical keys to redis keys under a shared prefix.
type Keyspace struct {
	// Name is the prefix. An empty name leaves keys untouched.
	Name string
	// Connection is the connection name. Empty means the pipeline's.
	Connection string
	// Template formats Name and the key; defaults to DefaultKeyspaceTemplate.
	Template string
	// Registry resolves the connection for immediate calls. Nil means the
	// default registry.
	Registry *Registry
}

func (k Keyspace) template() string {
	if k.Template == "" {
		return DefaultKeyspaceTemplate
	}
	return k.Template
}

// RedisKey returns the redis key for a logical key.
func (k Keyspace) RedisKey(key string) string {
	if k.Name == "" {
		return key
	}
	return fmt.Sprintf(k.template(), k.Name, key)
}

// ParseKey turns a redis key back into the logical key. It reports false
// when redisKey does not belong to the keyspace.
func (k Keyspace) ParseKey(redisKey string) (string, bool) {
	if k.Name == "" {
		return redisKey, true
	}
	const marker = "\x00"
	prefix, suffix, _ := strings.Cut(fmt.Sprintf(k.template(), k.Name, marker), marker)
	if len(redisKey) < len(prefix)+len(suffix) ||
		!strings.HasPrefix(redisKey, prefix) ||
		!strings.HasSuffix(redisKey, suffix) {
		return "", false
	}
	return redisKey[len(prefix) : len(redisKey)-len(suffix)], true
}

func (k Keyspace) redisKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = k.RedisKey(key)
	}
	return out
}

func (k Keyspace) bind(p Pipe) bound {
	return bound{ks: k, pipe: p}
}

// bound is a keyspace tied to an optional pipeline. It carries the commands
// every redis type shares.
type bound struct {
	ks   Keyspace
	pipe Pipe
}

// queue runs q against the bound pipeline, or against a fresh pipeline that
// is executed immediately when none is bound.
func queue[T any](ctx context.Context, b bound, q func(p Pipe) *Future[T]) *Future[T] {
	var f *Future[T]
	// Failures land in f; the execute error is the same error.
	_ = autoExec(ctx, b.ks.Registry, b.pipe, b.ks.Connection, func(p Pipe) error {
		f = q(p)
		return nil
	})
	return f
}

func failed[T any](ctx context.Context, err error) *Future[T] {
	f := newFuture[T](statsFrom(ctx))
	f.Fail(err)
	return f
}

// target resolves where immediate (non-pipelined) calls go.
func (b bound) target() (*Registry, string) {
	reg, conn := b.ks.Registry, b.ks.Connection
	if b.pipe != nil {
		if reg == nil {
			reg = b.pipe.registry()
		}
		if conn == "" {
			conn = b.pipe.Connection()
		}
	}
	if reg == nil {
		reg = defaultRegistry
	}
	return reg, conn
}

// Delete removes keys and returns how many existed.
func (b bound) Delete(ctx context.Context, keys ...string) *Future[int64] {
	rks := b.ks.redisKeys(keys)
	return queue(ctx, b, func(p Pipe) *Future[int64] {
		return enqueue[int64](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.Del(ctx, rks...)
		})
	})
}

// Exists reports whether key exists.
func (b bound) Exists(ctx context.Context, key string) *Future[bool] {
	rk := b.ks.RedisKey(key)
	return queue(ctx, b, func(p Pipe) *Future[bool] {
		return enqueueMap(ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.IntCmd {
			return rp.Exists(ctx, rk)
		}, func(n int64) (bool, error) { return n > 0, nil })
	})
}

// Expire sets a time-to-live on key.
func (b bound) Expire(ctx context.Context, key string, ttl time.Duration) *Future[bool] {
	rk := b.ks.RedisKey(key)
	return queue(ctx, b, func(p Pipe) *Future[bool] {
		return enqueue[bool](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.BoolCmd {
			return rp.Expire(ctx, rk, ttl)
		})
	})
}

// ExpireAt expires key at tm.
func (b bound) ExpireAt(ctx context.Context, key string, tm time.Time) *Future[bool] {
	rk := b.ks.RedisKey(key)
	return queue(ctx, b, func(p Pipe) *Future[bool] {
		return enqueue[bool](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.BoolCmd {
			return rp.ExpireAt(ctx, rk, tm)
		})
	})
}

// Persist removes the time-to-live of key.
func (b bound) Persist(ctx context.Context, key string) *Future[bool] {
	rk := b.ks.RedisKey(key)
	return queue(ctx, b, func(p Pipe) *Future[bool] {
		return enqueue[bool](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.BoolCmd {
			return rp.Persist(ctx, rk)
		})
	})
}

// TTL returns the remaining time-to-live of key. Redis reports -1 for keys
// without expiry and -2 for missing keys.
func (b bound) TTL(ctx context.Context, key string) *Future[time.Duration] {
	rk := b.ks.RedisKey(key)
	return queue(ctx, b, func(p Pipe) *Future[time.Duration] {
		return enqueue[time.Duration](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.DurationCmd {
			return rp.TTL(ctx, rk)
		})
	})
}

// Type returns the redis type of key.
func (b bound) Type(ctx context.Context, key string) *Future[string] {
	rk := b.ks.RedisKey(key)
	return queue(ctx, b, func(p Pipe) *Future[string] {
		return enqueue[string](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.StatusCmd {
			return rp.Type(ctx, rk)
		})
	})
}

// Eval runs a lua script. Keys are mapped into the keyspace.
func (b bound) Eval(ctx context.Context, script string, keys []string, args ...any) *Future[any] {
	rks := b.ks.redisKeys(keys)
	return queue(ctx, b, func(p Pipe) *Future[any] {
		return enqueue[any](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.Cmd {
			return rp.Eval(ctx, script, rks, args...)
		})
	})
}

// EvalSmart runs a registered script with EVALSHA or EVAL, as the script's
// callback decides at queue time.
func (b bound) EvalSmart(ctx context.Context, s *SmartScript, keys []string, args ...any) *Future[any] {
	rks := b.ks.redisKeys(keys)
	useSHA := s.UseEvalSHA()
	return queue(ctx, b, func(p Pipe) *Future[any] {
		return enqueue[any](ctx, p, func(ctx context.Context, rp redis.Pipeliner) *redis.Cmd {
			if useSHA {
				return rp.EvalSha(ctx, s.SHA, rks, args...)
			}
			return rp.Eval(ctx, s.Code, rks, args...)
		})
	})
}

// Scan returns one page of logical keys matching match (default "*").
//
// Scan is not pipelined: it runs immediately against the keyspace
// connection. On a cluster client the cursor walks every primary in turn.
func (b bound) Scan(ctx context.Context, cursor uint64, match string, count int64) (uint64, []string, error) {
	if match == "" {
		match = "*"
	}
	reg, conn := b.target()
	client, err := reg.Client(conn)
	if err != nil {
		return 0, nil, err
	}

	var (
		next uint64
		keys []string
	)
	if cc, ok := client.(*redis.ClusterClient); ok {
		next, keys, err = ScanCluster(ctx, cc, cursor, b.ks.RedisKey(match), count)
	} else {
		keys, next, err = client.Scan(ctx, cursor, b.ks.RedisKey(match), count).Result()
	}
	if err != nil {
		return 0, nil, err
	}

	out := make([]string, 0, len(keys))
	for _, rk := range keys {
		if key, ok := b.ks.ParseKey(rk); ok {
			out = append(out, key)
		}
	}
	return next, out, nil
}

// ScanIter calls fn for every logical key matching match until the scan
// completes, fn fails, or ctx is done.
func (b bound) ScanIter(ctx context.Context, match string, count int64, fn func(key string) error) error {
	var cursor uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, keys, err := b.Scan(ctx, cursor, match, count)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := fn(key); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// codec returns f, or TextField when f is nil.
func codec(f Field) Field {
	if f == nil {
		return TextField
	}
	return f
}

func decodeStrings(f Field, vals []string) ([]any, error) {
	out := make([]any, len(vals))
	for i, v := range vals {
		d, err := f.Decode(v)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func encodeAll(f Field, vals []any) ([]any, error) {
	out := make([]any, len(vals))
	for i, v := range vals {
		s, err := f.Encode(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func statusOK(s string) (bool, error) {
	return s == "OK", nil
}
