package redpipe

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// StatsEnv is the environment variable that switches on future accounting.
const StatsEnv = "ENABLE_REDPIPE_STATS"

var statsEnabled atomic.Bool

func init() {
	statsEnabled.Store(os.Getenv(StatsEnv) == "true")
}

// EnableStats turns future accounting on or off at runtime.
func EnableStats(on bool) {
	statsEnabled.Store(on)
}

// StatsEnabled reports whether future accounting is on.
func StatsEnabled() bool {
	return statsEnabled.Load()
}

// Stats counts futures created within a scope and how many of them were read.
//
// A nil *Stats is valid and counts nothing.
type Stats struct {
	mu              sync.Mutex
	futuresCreated  int64
	futuresAccessed int64
	accessedIDs     map[uint64]struct{}
}

func (s *Stats) created() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.futuresCreated++
	s.mu.Unlock()
}

func (s *Stats) accessed(id uint64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.accessedIDs[id]; seen {
		return
	}
	if s.accessedIDs == nil {
		s.accessedIDs = make(map[uint64]struct{})
	}
	s.accessedIDs[id] = struct{}{}
	s.futuresAccessed++
}

// Created returns the number of futures created in scope.
func (s *Stats) Created() int64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.futuresCreated
}

// Accessed returns the number of distinct futures read in scope.
func (s *Stats) Accessed() int64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.futuresAccessed
}

// Consumption returns accessed/created, or 0 when nothing was created.
func (s *Stats) Consumption() float64 {
	created := s.Created()
	if created == 0 {
		return 0
	}
	return float64(s.Accessed()) / float64(created)
}

type statsKey struct{}

// WithStats attaches a fresh counter to ctx. Commands queued under the
// returned context register their futures with it.
func WithStats(ctx context.Context) (context.Context, *Stats) {
	s := &Stats{}
	return context.WithValue(ctx, statsKey{}, s), s
}

// statsFrom returns the counter in ctx, or nil when accounting is off.
func statsFrom(ctx context.Context) *Stats {
	if ctx == nil || !StatsEnabled() {
		return nil
	}
	s, _ := ctx.Value(statsKey{}).(*Stats)
	return s
}

// LogStats runs fn with a fresh counter and logs REDPIPE_STATS afterwards.
// When accounting is off it only runs fn.
func LogStats(ctx context.Context, name string, log Logger, pid int, fn func(ctx context.Context) error) error {
	if !StatsEnabled() {
		return fn(ctx)
	}

	ctx, s := WithStats(ctx)
	err := fn(ctx)

	if log == nil {
		log = nopLogger{}
	}
	log.Info("REDPIPE_STATS",
		"pid", pid,
		"name", name,
		"futures_accessed", s.Accessed(),
		"futures_created", s.Created(),
		"consumption_percentage", fmt.Sprintf("%.0f%%", s.Consumption()*100),
	)
	return err
}
