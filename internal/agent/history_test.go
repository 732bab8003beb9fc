package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voidlock/tether/internal/agent/models"
)

func TestHistoryAppendAndClear(t *testing.T) {
	h := NewHistory(0)
	h.Append(models.Message{Role: "user", Content: "hi"})
	h.Append(models.Message{Role: "model", Content: "hello"})

	assert.Equal(t, 2, h.Len())

	h.Clear()
	assert.Equal(t, 0, h.Len())
}

func TestHistoryMessagesReturnsCopy(t *testing.T) {
	h := NewHistory(0)
	h.Append(models.Message{Role: "user", Content: "hi"})

	msgs := h.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "hi", h.Messages()[0].Content)
}

func TestHistoryPrunesOldestFirst(t *testing.T) {
	h := NewHistory(100)
	for i := 0; i < 10; i++ {
		h.Append(models.Message{
			Role:    "user",
			Content: fmt.Sprintf("message number %02d padded out to length", i),
		})
	}

	msgs := h.Messages()
	assert.Less(t, len(msgs), 10, "old messages must be evicted")

	// The newest message always survives.
	assert.Contains(t, msgs[len(msgs)-1].Content, "09")

	// Whatever remains is a contiguous suffix.
	first := msgs[0].Content
	assert.Greater(t, first, "message number 00")
}

func TestHistoryKeepsNewestEvenWhenOversized(t *testing.T) {
	h := NewHistory(10)
	h.Append(models.Message{Role: "user", Content: "this message alone exceeds the whole budget"})

	assert.Equal(t, 1, h.Len())
}
