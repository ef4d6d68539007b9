package delivery

import (
	"context"
	"fmt"
	"sync"

	"github.com/dubinc/partner-integrity/internal/ports"
)

// MemoryQueue records published messages in memory. Used by tests and
// local runs without a delivery queue.
type MemoryQueue struct {
	mu       sync.Mutex
	Messages []ports.DeliveryMessage
	Err      error
}

func NewMemoryQueue() *MemoryQueue { return &MemoryQueue{} }

func (q *MemoryQueue) Publish(_ context.Context, msg ports.DeliveryMessage) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return "", q.Err
	}
	q.Messages = append(q.Messages, msg)
	return fmt.Sprintf("msg_%d", len(q.Messages)), nil
}
