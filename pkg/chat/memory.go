package chat

import (
	"context"
	"sync"
)

// MemoryHistory keeps chat history in process memory. Used when no Redis is
// configured; history is lost on restart.
type MemoryHistory struct {
	mu    sync.RWMutex
	rooms map[string][]Message
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{rooms: make(map[string][]Message)}
}

func (h *MemoryHistory) Append(ctx context.Context, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rooms[msg.RoomName] = append(h.rooms[msg.RoomName], msg)
	return nil
}

func (h *MemoryHistory) Messages(ctx context.Context, roomName string) ([]Message, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msgs := h.rooms[roomName]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
