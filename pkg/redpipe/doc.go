// Package redpipe makes redis pipelining composable.
//
// Commands are queued on a Pipe and return a Future right away. The future
// resolves when the root Pipeline executes, which sends one round trip per
// connection:
//
//   - connections.go: named connection registry (ConnectRedis, Registry)
//   - pipeline.go: root and nested pipelines, AutoExec, Do
//   - future.go: Future, the deferred result of a queued command
//   - keyspace.go: Keyspace plus String, Hash, Set, List, SortedSet and
//     HyperLogLog command sets with per-member codecs (fields.go)
//   - structs.go: StructType and Struct, an object view over a hash
//   - cluster.go: single-cursor SCAN across a cluster
//   - scripts.go: SmartScript, EVALSHA with an EVAL fallback
//   - stats.go: optional accounting of created vs. read futures
//
// Functions that accept a nil Pipe execute immediately. Passing a pipe joins
// the caller's round trip instead:
//
//	users := redpipe.Hash{Keyspace: redpipe.Keyspace{Name: "U"}}
//	pipe := redpipe.NewPipeline()
//	name := users.Bind(pipe).HGet(ctx, "1", "name")
//	age := users.Bind(pipe).HGet(ctx, "1", "age")
//	if err := pipe.Execute(ctx); err != nil {
//		return err
//	}
//	fmt.Println(name.Val(), age.Val())
package redpipe
