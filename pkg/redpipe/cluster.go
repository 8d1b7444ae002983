package redpipe

import (
	"context"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	shardShift     = 48
	nodeCursorMask = 1<<shardShift - 1
)

// ScanCluster runs one SCAN step across a whole cluster with a single cursor.
//
// The high 16 bits of cursor select a primary, in address order, and the low
// 48 bits are that primary's own cursor. When a primary is exhausted the
// returned cursor points at the start of the next one; after the last one it
// is 0.
func ScanCluster(ctx context.Context, client *redis.ClusterClient, cursor uint64, match string, count int64) (uint64, []string, error) {
	nodes, err := sortedPrimaries(ctx, client)
	if err != nil {
		return 0, nil, err
	}
	return scanNodes(ctx, nodes, cursor, match, count)
}

func sortedPrimaries(ctx context.Context, client *redis.ClusterClient) ([]*redis.Client, error) {
	var (
		mu    sync.Mutex
		nodes []*redis.Client
	)
	err := client.ForEachMaster(ctx, func(_ context.Context, c *redis.Client) error {
		mu.Lock()
		nodes = append(nodes, c)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortByAddr(nodes)
	return nodes, nil
}

// sortByAddr orders nodes by address so every ScanCluster call maps a shard
// index to the same primary.
func sortByAddr(nodes []*redis.Client) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Options().Addr < nodes[j].Options().Addr
	})
}

func scanNodes(ctx context.Context, nodes []*redis.Client, cursor uint64, match string, count int64) (uint64, []string, error) {
	shard := cursor >> shardShift
	if shard >= uint64(len(nodes)) {
		return 0, nil, ErrInvalidCursor.WithDetails("shard %d of %d", shard, len(nodes))
	}

	keys, next, err := nodes[shard].Scan(ctx, cursor&nodeCursorMask, match, count).Result()
	if err != nil {
		return 0, nil, err
	}
	if next == 0 {
		shard++
	}
	if shard < uint64(len(nodes)) {
		next |= shard << shardShift
	}
	return next, keys, nil
}
