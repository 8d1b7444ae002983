package repl

import (
	"sort"
	"strings"
)

// metaCommands are handled by the shell itself.
var metaCommands = []string{"exec", "discard", "use", "queue", "history", "help", "exit", "quit"}

// redisCommands are offered for completion. Any other command is still
// sent as typed.
var redisCommands = []string{
	"DBSIZE", "DEL", "EXISTS", "EXPIRE", "GET", "HDEL", "HGET", "HGETALL",
	"HINCRBY", "HMGET", "HSET", "INCR", "INCRBY", "KEYS", "LLEN", "LPOP",
	"LPUSH", "LRANGE", "MGET", "MSET", "PFADD", "PFCOUNT", "PING", "PTTL",
	"RPOP", "RPUSH", "SADD", "SCAN", "SCARD", "SET", "SETNX", "SISMEMBER",
	"SMEMBERS", "SREM", "TTL", "TYPE", "ZADD", "ZCARD", "ZINCRBY", "ZRANGE",
	"ZRANK", "ZREM", "ZSCORE",
}

// Completer provides command completion for the shell.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over the meta and redis commands.
func NewCompleter() *Completer {
	commands := make([]string, 0, len(metaCommands)+len(redisCommands))
	commands = append(commands, metaCommands...)
	commands = append(commands, redisCommands...)
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns the commands starting with prefix, ignoring case.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(strings.ToLower(cmd), strings.ToLower(prefix)) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
