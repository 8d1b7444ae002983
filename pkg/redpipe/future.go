package redpipe

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// futureSeq hands out process-unique future ids for stats accounting.
var futureSeq atomic.Uint64

// Future is the deferred result of a queued command.
//
// A future resolves exactly once, when the root pipeline that carries its
// command executes. Reading it earlier yields ErrResultNotReady.
type Future[T any] struct {
	id    uint64
	done  chan struct{}
	once  sync.Once
	val   T
	err   error
	isNil bool
	stats *Stats
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return newFuture[T](nil)
}

// Resolved returns a future that already holds v.
func Resolved[T any](v T) *Future[T] {
	f := newFuture[T](nil)
	f.Set(v)
	return f
}

func newFuture[T any](stats *Stats) *Future[T] {
	f := &Future[T]{
		id:    futureSeq.Add(1),
		done:  make(chan struct{}),
		stats: stats,
	}
	stats.created()
	return f
}

// Set resolves the future with a value.
func (f *Future[T]) Set(v T) {
	f.once.Do(func() {
		f.val = v
		close(f.done)
	})
}

// SetNil resolves the future as a redis nil reply.
func (f *Future[T]) SetNil() {
	f.once.Do(func() {
		f.isNil = true
		close(f.done)
	})
}

// Fail resolves the future with an error.
func (f *Future[T]) Fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Ready reports whether the future has resolved.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the resolved value and command error.
func (f *Future[T]) Result() (T, error) {
	if !f.Ready() {
		var zero T
		return zero, ErrResultNotReady
	}
	f.stats.accessed(f.id)
	return f.val, f.err
}

// Val returns the resolved value, or the zero value when unresolved or failed.
func (f *Future[T]) Val() T {
	v, _ := f.Result()
	return v
}

// Err returns the command error, or ErrResultNotReady.
func (f *Future[T]) Err() error {
	_, err := f.Result()
	return err
}

// IsNil reports whether redis answered with a nil reply.
func (f *Future[T]) IsNil() bool {
	return f.Ready() && f.isNil
}

// Wait blocks until the future resolves or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// MarshalJSON encodes the resolved value. Nil replies encode as null.
func (f *Future[T]) MarshalJSON() ([]byte, error) {
	v, err := f.Result()
	if err != nil {
		return nil, err
	}
	if f.isNil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *Future[T]) String() string {
	if !f.Ready() {
		return "<Future pending>"
	}
	if f.err != nil {
		return fmt.Sprintf("<Future error: %v>", f.err)
	}
	if f.isNil {
		return "<nil>"
	}
	return fmt.Sprint(f.val)
}
