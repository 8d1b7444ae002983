package redpipe

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanNodes(t *testing.T) {
	ctx := testContext(t)
	mr1 := miniredis.RunT(t)
	mr2 := miniredis.RunT(t)
	require.NoError(t, mr1.Set("a", "1"))
	require.NoError(t, mr1.Set("b", "1"))
	require.NoError(t, mr2.Set("c", "1"))

	c1 := redis.NewClient(&redis.Options{Addr: mr1.Addr()})
	c2 := redis.NewClient(&redis.Options{Addr: mr2.Addr()})
	t.Cleanup(func() {
		_ = c1.Close()
		_ = c2.Close()
	})
	nodes := []*redis.Client{c1, c2}

	next, keys, err := scanNodes(ctx, nodes, 0, "*", 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
	assert.Equal(t, uint64(1)<<48, next, "exhausted first shard moves to the second")

	next, keys, err = scanNodes(ctx, nodes, next, "*", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keys)
	assert.Equal(t, uint64(0), next)
}

func TestScanNodes_InvalidCursor(t *testing.T) {
	ctx := testContext(t)
	_, _, err := scanNodes(ctx, nil, 0, "*", 10)
	assert.ErrorIs(t, err, ErrInvalidCursor)

	_, _, err = scanNodes(ctx, make([]*redis.Client, 2), 2<<48, "*", 10)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestSortByAddr(t *testing.T) {
	var nodes []*redis.Client
	for _, addr := range []string{"10.0.0.3:7000", "10.0.0.1:7001", "10.0.0.1:7000", "10.0.0.2:7000"} {
		c := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { _ = c.Close() })
		nodes = append(nodes, c)
	}

	sortByAddr(nodes)

	var got []string
	for _, n := range nodes {
		got = append(got, n.Options().Addr)
	}
	assert.Equal(t, []string{"10.0.0.1:7000", "10.0.0.1:7001", "10.0.0.2:7000", "10.0.0.3:7000"}, got)
}

func TestScanCluster(t *testing.T) {
	ctx := testContext(t)
	// miniredis answers CLUSTER SLOTS as a single primary owning every slot.
	mr := miniredis.RunT(t)
	for _, k := range []string{"U{1}", "U{2}", "U{3}", "other"} {
		require.NoError(t, mr.Set(k, "1"))
	}
	client := redis.NewClusterClient(&redis.ClusterOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { _ = client.Close() })

	var (
		cursor uint64
		keys   []string
	)
	for {
		next, page, err := ScanCluster(ctx, client, cursor, "U*", 2)
		require.NoError(t, err)
		keys = append(keys, page...)
		if next == 0 {
			break
		}
		assert.Zero(t, next>>48, "a single primary stays on shard 0")
		cursor = next
	}
	assert.ElementsMatch(t, []string{"U{1}", "U{2}", "U{3}"}, keys)

	_, _, err := ScanCluster(ctx, client, 1<<48, "*", 10)
	assert.ErrorIs(t, err, ErrInvalidCursor)
}
