package match

import (
	"time"

	"github.com/park285/chessmatch/internal/archive"
	"github.com/park285/chessmatch/internal/profile"
	"github.com/park285/chessmatch/internal/rules"
)

// gameLog is the in-memory move record of a running game. It is not
// persisted; a game resumed after restart starts a new log at its saved
// position.
type gameLog struct {
	id       string
	white    string
	black    string
	startFEN string
	started  time.Time
	moves    []string
}

func newGameLog(white, black, startFEN string, started time.Time) *gameLog {
	return &gameLog{id: archive.NewID(), white: white, black: black, startFEN: startFEN, started: started}
}

func (l *gameLog) add(m rules.Move) { l.moves = append(l.moves, m.UCI()) }

func (l *gameLog) result(winner, method string, ended time.Time) archive.Result {
	return archive.Result{
		ID:       l.id,
		White:    l.white,
		Black:    l.black,
		Winner:   winner,
		Method:   method,
		StartFEN: l.startFEN,
		MovesUCI: append([]string(nil), l.moves...),
		Started:  l.started,
		Ended:    ended,
	}
}

// gameLogFor returns the log of p's game, opening one at the current
// position when the game predates this process.
func (c *Coordinator) gameLogFor(p *profile.Profile, g *rules.State) *gameLog {
	white, black := p, c.store.Opponent(p)
	if !p.Owner() {
		white, black = black, p
	}
	if l, ok := c.games[white.Name]; ok {
		return l
	}
	l := newGameLog(white.Name, black.Name, g.FEN(), time.Time{})
	c.games[white.Name] = l
	return l
}
