// Package ports defines the interfaces that connect the application layer
// to infrastructure adapters.
//
// Ports are the boundaries between the application core and the outside
// world. They define what the application needs from external systems
// without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [PositionStore]: Persists and queries playback position records
//   - [Player]: Commands the host media player (load a file, seek)
//   - [Logger]: Structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters implement them with concrete backends (SQLite,
// an external player command, zerolog). This enables testing application
// logic with in-memory fakes and swapping backends without touching the
// business logic.
package ports
