// Package domain contains the core entities and value objects for watchlater.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (HTTP, database, logging) and
// contains only the business rules of position tracking.
//
// # Entities
//
//   - [PositionRecord]: The persisted playback position for a single file
//   - [Session]: An in-memory playback session for the currently open file
//   - [Window]: The runtime window inside which positions are persisted
//
// Domain entities are free of infrastructure dependencies and testable
// without mocks or external systems.
package domain
