// Package execplayer implements the player port by launching an external
// command. It is the daemon-mode counterpart of an embedded host player:
// auto-resume runs a user-supplied command template such as
//
//	mpv --start={{position}} {{path}}
//
// with {{path}} replaced by the file path and {{position}} by the whole
// number of seconds to seek to.
package execplayer

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tapeworks/watchlater/internal/ports"
)

// Player launches a configured command to load a file.
type Player struct {
	template []string
	logger   ports.Logger
}

// New parses the command template. Returns an error when the template is
// empty or names no {{path}} placeholder.
func New(template string, logger ports.Logger) (*Player, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return nil, fmt.Errorf("execplayer: empty command template")
	}
	hasPath := false
	for _, field := range fields {
		if strings.Contains(field, "{{path}}") {
			hasPath = true
		}
	}
	if !hasPath {
		return nil, fmt.Errorf("execplayer: command template has no {{path}} placeholder")
	}
	return &Player{template: fields, logger: logger}, nil
}

// Load runs the command with placeholders substituted. The command is
// detached: Load returns once it has started, not when playback ends.
func (p *Player) Load(ctx context.Context, path string, position time.Duration) error {
	seconds := strconv.FormatInt(int64(position/time.Second), 10)
	args := make([]string, len(p.template))
	for i, field := range p.template {
		field = strings.ReplaceAll(field, "{{path}}", path)
		field = strings.ReplaceAll(field, "{{position}}", seconds)
		args[i] = field
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("execplayer: start %s: %w", args[0], err)
	}
	p.logger.Info("launched player",
		ports.String("command", args[0]),
		ports.String("path", path),
		ports.Duration("position", position),
	)

	// Reap the process when it exits so it does not linger as a zombie.
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

var _ ports.Player = (*Player)(nil)
