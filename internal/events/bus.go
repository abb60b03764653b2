// Package events re-exports the platform event bus and defines the
// transaction events published by the orchestrator.
package events

import (
	platformevents "pasbridge/platform/events"
	"pasbridge/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
