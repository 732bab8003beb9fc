package agent

import (
	"sync"

	"github.com/voidlock/tether/internal/agent/models"
)

// History is the append-only conversation record. Messages are never
// edited in place; pruning drops whole messages oldest first once the
// byte budget is exceeded.
type History struct {
	mu       sync.Mutex
	messages []models.Message
	maxBytes int
}

// NewHistory creates a history bounded to maxBytes of content.
func NewHistory(maxBytes int) *History {
	return &History{maxBytes: maxBytes}
}

// Append adds a message and prunes if over budget.
func (h *History) Append(msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	h.prune()
}

// Messages returns a copy of the current history.
func (h *History) Messages() []models.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]models.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

// Clear drops the entire history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

func (h *History) prune() {
	if h.maxBytes <= 0 {
		return
	}
	total := 0
	for _, m := range h.messages {
		total += m.ContentLen()
	}
	// Keep at least the newest message regardless of size.
	for total > h.maxBytes && len(h.messages) > 1 {
		total -= h.messages[0].ContentLen()
		h.messages = h.messages[1:]
	}
}
