// Package idgen provides ID generation implementations.
package idgen

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/artpar/invoicer/ports"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// UUID generates prefixed UUIDs, e.g. "inv_3b1f...".
type UUID struct {
	Prefix string
}

// New generates a new UUID v4.
func (g UUID) New() string {
	return g.Prefix + uuid.New().String()
}

// Ensure interface compliance.
var _ ports.IDGenerator = UUID{}

// Snowflake generates time-ordered 64-bit IDs, unique across up to 1024
// nodes as long as every process is given a distinct node number.
type Snowflake struct {
	prefix string
	node   *snowflake.Node
}

// NewSnowflake creates a snowflake generator for the given node (0-1023).
func NewSnowflake(prefix string, node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Snowflake{prefix: prefix, node: n}, nil
}

// New generates the next snowflake ID.
func (s *Snowflake) New() string {
	return s.prefix + s.node.Generate().String()
}

// Ensure interface compliance.
var _ ports.IDGenerator = (*Snowflake)(nil)

// New returns the generator for a configured strategy: "uuid" (default)
// or "snowflake".
func New(strategy, prefix string, node int64) (ports.IDGenerator, error) {
	switch strategy {
	case "", "uuid":
		return UUID{Prefix: prefix}, nil
	case "snowflake":
		return NewSnowflake(prefix, node)
	default:
		return nil, fmt.Errorf("unknown id strategy: %s", strategy)
	}
}

// Sequential generates sequential IDs (for testing).
type Sequential struct {
	prefix  string
	counter uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	n := atomic.AddUint64(&s.counter, 1)
	return s.prefix + strconv.FormatUint(n, 10)
}

// Reset resets the counter (for testing).
func (s *Sequential) Reset() {
	atomic.StoreUint64(&s.counter, 0)
}

// Ensure interface compliance.
var _ ports.IDGenerator = (*Sequential)(nil)
