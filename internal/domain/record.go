package domain

import (
	"time"

	"github.com/google/uuid"
)

// PositionRecord is the persisted playback position for a single file.
// There is at most one record per path; saving again overwrites it.
type PositionRecord struct {
	// Path uniquely identifies the file. It is the key of the record.
	Path string

	// Position is the last saved playback offset, rewind already applied.
	Position time.Duration

	// Duration is the total length of the file as reported by the host
	// when the file was opened. Zero when the host never reported one.
	Duration time.Duration

	// UpdatedAt is when the record was last written. The most recently
	// updated record is the auto-resume candidate.
	UpdatedAt time.Time
}

// InBounds reports whether the stored position is a usable seek target for
// a file of the given length. A zero length disables the upper bound.
func (r PositionRecord) InBounds(length time.Duration) bool {
	if r.Position < 0 {
		return false
	}
	if length > 0 && r.Position >= length {
		return false
	}
	return true
}

// Session is the in-memory state of the currently open file. It exists from
// the host's file-opened signal until the file-closed signal and is never
// persisted itself; only gated snapshots of it are.
type Session struct {
	ID       uuid.UUID
	Path     string
	Duration time.Duration
	Position time.Duration
	OpenedAt time.Time
}

// Window is the part of a file's runtime inside which positions are
// persisted. Saves before Min or within Max of the end are dropped so that
// barely-started and almost-finished files do not leave stale records.
type Window struct {
	// Min is the minimum playback offset before saves begin.
	Min time.Duration

	// Max is the tail margin, measured from the end of the file.
	Max time.Duration

	// Rewind is subtracted from the position at save time so resumed
	// playback backs up a little for context.
	Rewind time.Duration
}

// Contains reports whether a position is inside the window for a file of
// the given length. A zero length disables the tail check.
func (w Window) Contains(position, length time.Duration) bool {
	if position < w.Min {
		return false
	}
	if length > 0 && position > length-w.Max {
		return false
	}
	return true
}

// Apply returns the position to persist: the input with rewind applied,
// clamped at zero.
func (w Window) Apply(position time.Duration) time.Duration {
	if position <= w.Rewind {
		return 0
	}
	return position - w.Rewind
}
