package ports

import (
	"context"
	"time"
)

// Player commands the host media player. It is the outbound half of host
// integration: the tracker uses it to auto-resume the most recently played
// file on startup. Hosts that drive watchlater purely over the HTTP API
// (and decide about resuming themselves) run without one.
type Player interface {
	// Load instructs the player to open the file and seek to position.
	Load(ctx context.Context, path string, position time.Duration) error
}
