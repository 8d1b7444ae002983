package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/yndnr/redpipe-go/pkg/redpipe"
)

// BenchmarkString_Pipelined queues every GET on one pipeline.
func BenchmarkString_Pipelined(b *testing.B) {
	for _, n := range KeyCounts {
		b.Run(fmt.Sprintf("keys=%d", n), func(b *testing.B) {
			reg, mr := newBenchRegistry(b)
			for i := 0; i < n; i++ {
				_ = mr.Set("S{"+keyName(i)+"}", "v")
			}
			ks := redpipe.String{Keyspace: redpipe.Keyspace{Name: "S"}}
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				p := redpipe.NewPipeline(redpipe.WithRegistry(reg))
				ops := ks.Bind(p)
				for j := 0; j < n; j++ {
					ops.Get(ctx, keyName(j))
				}
				if err := p.Execute(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkString_Immediate sends one round trip per GET.
func BenchmarkString_Immediate(b *testing.B) {
	for _, n := range KeyCounts {
		b.Run(fmt.Sprintf("keys=%d", n), func(b *testing.B) {
			reg, mr := newBenchRegistry(b)
			for i := 0; i < n; i++ {
				_ = mr.Set("S{"+keyName(i)+"}", "v")
			}
			ops := redpipe.String{Keyspace: redpipe.Keyspace{Name: "S", Registry: reg}}.Bind(nil)
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for j := 0; j < n; j++ {
					if err := ops.Get(ctx, keyName(j)).Err(); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}

// BenchmarkStruct_Load loads many structs in one round trip.
func BenchmarkStruct_Load(b *testing.B) {
	for _, n := range KeyCounts {
		b.Run(fmt.Sprintf("structs=%d", n), func(b *testing.B) {
			reg, mr := newBenchRegistry(b)
			users := &redpipe.StructType{
				Name:     "User",
				Fields:   map[string]redpipe.Field{"age": redpipe.IntegerField},
				Registry: reg,
			}
			for i := 0; i < n; i++ {
				mr.HSet(users.RedisKey(keyName(i)), "name", "bill")
				mr.HSet(users.RedisKey(keyName(i)), "age", "30")
			}
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				p := redpipe.NewPipeline(redpipe.WithRegistry(reg))
				for j := 0; j < n; j++ {
					if _, err := users.New(ctx, keyName(j), redpipe.WithPipe(p)); err != nil {
						b.Fatal(err)
					}
				}
				if err := p.Execute(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
