package profile

import (
	"time"

	"github.com/park285/chessmatch/internal/rules"
)

// Sender is the outbound half of a live connection.
type Sender interface {
	Send(line string) error
}

// State is the request/game phase of a profile.
type State uint8

const (
	Idle State = iota
	Requested
	InGame
)

func (s State) String() string {
	switch s {
	case Requested:
		return "requested"
	case InGame:
		return "in_game"
	}
	return "idle"
}

// Profile is a registered account plus its pairing.
//
// Opponent holds the paired profile's name. While paired the profile with
// Color == White owns the game; the other side reads it through the Store.
// Before accept the requester is the white side and the requested party the
// black side.
type Profile struct {
	Name     string
	Password string

	Client   Sender
	Opponent string
	Color    rules.Color

	game        *rules.State
	RequestTime time.Time
}

// Linked reports whether the profile is attached to a live connection.
func (p *Profile) Linked() bool { return p.Client != nil }

// Paired reports whether the profile has an opponent.
func (p *Profile) Paired() bool { return p.Opponent != "" }

// Owner reports whether this profile holds the shared game for its pair.
func (p *Profile) Owner() bool { return p.Paired() && p.Color == rules.White }

// Send writes to the live connection, if any. Failures surface through the
// client's closed flag; the return value only reports whether a write happened.
func (p *Profile) Send(line string) bool {
	if p == nil || p.Client == nil {
		return false
	}
	return p.Client.Send(line) == nil
}
