// Package idgen provides cheap process-local identifier generators for
// orders and trades. IDs are unique within one simulation run only.
package idgen

import (
	"fmt"
	"sync/atomic"
)

type Generator struct {
	id int64
}

func New() *Generator {
	return &Generator{id: 1000}
}

func (g *Generator) Next() int64 {
	return atomic.AddInt64(&g.id, 1)
}

// NextOrderID returns an order id of the form "o-1001".
func (g *Generator) NextOrderID() string {
	return fmt.Sprintf("o-%d", g.Next())
}
