package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("typed handlers", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newTestHandler()
		registry.Register(handler, "ReturnApproved", "ReturnRejected")

		assert.Len(t, registry.GetHandlers("ReturnApproved"), 1)
		assert.Len(t, registry.GetHandlers("ReturnRejected"), 1)
		assert.Empty(t, registry.GetHandlers("StockAdded"))
		assert.Equal(t, 1, registry.Count())
	})

	t.Run("wildcard handlers come last", func(t *testing.T) {
		registry := NewHandlerRegistry()
		typed := newTestHandler()
		wildcard := newTestHandler()
		registry.Register(wildcard)
		registry.Register(typed, "StockAdded")

		handlers := registry.GetHandlers("StockAdded")
		assert.Len(t, handlers, 2)
		assert.Same(t, typed, handlers[0])
		assert.Same(t, wildcard, handlers[1])
		assert.Len(t, registry.GetHandlers("Anything"), 1)
	})

	t.Run("unregister removes every registration", func(t *testing.T) {
		registry := NewHandlerRegistry()
		handler := newTestHandler()
		other := newTestHandler()
		registry.Register(handler, "StockAdded", "StockRemoved")
		registry.Register(handler)
		registry.Register(other, "StockAdded")

		registry.Unregister(handler)

		assert.Equal(t, 1, registry.Count())
		assert.Len(t, registry.GetHandlers("StockAdded"), 1)
		assert.Empty(t, registry.GetHandlers("StockRemoved"))
	})
}
