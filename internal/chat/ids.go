package chat

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces identifiers that are unique for the lifetime of a
// session. Timestamp-derived IDs collide when several messages are created
// within the same instant, so this is a dedicated collaborator.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// SequentialGenerator yields msg-1, msg-2, ... and exists for deterministic
// tests.
type SequentialGenerator struct {
	counter int64
}

func (g *SequentialGenerator) NewID() string {
	return fmt.Sprintf("msg-%d", atomic.AddInt64(&g.counter, 1))
}
