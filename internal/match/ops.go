package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/park285/chessmatch/internal/profile"
	"github.com/park285/chessmatch/internal/rules"
	"github.com/park285/chessmatch/pkg/wire"
	"go.uber.org/zap"
)

var (
	ErrNotInGame = errors.New("match: player has no game")
	ErrOffline   = errors.New("match: player is not online")
)

// PlayerInfo is a read-only view of one profile.
type PlayerInfo struct {
	Name     string `json:"name"`
	Online   bool   `json:"online"`
	State    string `json:"state"`
	Opponent string `json:"opponent,omitempty"`
	Color    string `json:"color,omitempty"`
}

// GameInfo is a read-only view of a running game. Position is a private copy.
type GameInfo struct {
	White    string       `json:"white"`
	Black    string       `json:"black"`
	Turn     string       `json:"turn"`
	State    string       `json:"state"`
	FEN      string       `json:"fen"`
	Status   string       `json:"status"`
	Plies    int          `json:"plies"`
	Position *rules.State `json:"-"`
}

// Players lists every profile in name order.
func (c *Coordinator) Players(ctx context.Context) ([]PlayerInfo, error) {
	var out []PlayerInfo
	err := c.do(ctx, func() {
		for _, p := range c.store.All() {
			info := PlayerInfo{Name: p.Name, Online: p.Linked(), State: c.store.StateOf(p).String()}
			if p.Paired() {
				info.Opponent = p.Opponent
				info.Color = p.Color.String()
			}
			out = append(out, info)
		}
	})
	return out, err
}

// Online lists authenticated connections in connection order.
func (c *Coordinator) Online(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, func() { out = c.onlineNames() })
	return out, err
}

// Game describes the game name is playing.
func (c *Coordinator) Game(ctx context.Context, name string) (GameInfo, error) {
	var (
		info GameInfo
		ferr error
	)
	err := c.do(ctx, func() {
		p, ok := c.store.Get(name)
		if !ok {
			ferr = fmt.Errorf("%w: %s", profile.ErrNotFound, name)
			return
		}
		g := c.store.Game(p)
		if g == nil {
			ferr = fmt.Errorf("%w: %s", ErrNotInGame, name)
			return
		}
		white, black := p.Name, p.Opponent
		if !p.Owner() {
			white, black = black, white
		}
		info = GameInfo{
			White:    white,
			Black:    black,
			Turn:     g.Turn().String(),
			State:    g.Encode(),
			FEN:      g.FEN(),
			Status:   g.TerminalState(g.Turn()).String(),
			Position: g.Clone(),
		}
		if l, ok := c.games[white]; ok {
			info.Plies = len(l.moves)
		}
	})
	if err != nil {
		return GameInfo{}, err
	}
	return info, ferr
}

// LegalMoves lists the moves available to the side to move in name's game.
func (c *Coordinator) LegalMoves(ctx context.Context, name string) ([]rules.Move, error) {
	info, err := c.Game(ctx, name)
	if err != nil {
		return nil, err
	}
	return info.Position.LegalMoves(info.Position.Turn()), nil
}

// Message relays an admin notice to one online player.
func (c *Coordinator) Message(ctx context.Context, name, text string) error {
	var ferr error
	err := c.do(ctx, func() {
		p, ok := c.store.Get(name)
		if !ok {
			ferr = fmt.Errorf("%w: %s", profile.ErrNotFound, name)
			return
		}
		if !p.Linked() {
			ferr = fmt.Errorf("%w: %s", ErrOffline, name)
			return
		}
		c.tell(p, "admin.message", map[string]any{"Text": text})
	})
	if err != nil {
		return err
	}
	return ferr
}

// Broadcast sends msg TEXT to every authenticated client and returns how many got it.
func (c *Coordinator) Broadcast(ctx context.Context, text string) (int, error) {
	n := 0
	err := c.do(ctx, func() {
		for _, cl := range c.clients {
			if cl.Profile == "" {
				continue
			}
			if cl.Send(wire.Msg(text)) == nil {
				n++
			}
		}
	})
	return n, err
}

// Save writes the profile table now.
func (c *Coordinator) Save(ctx context.Context) error {
	var ferr error
	err := c.do(ctx, func() {
		if ferr = c.store.Save(ctx); ferr == nil {
			c.dirty = false
		}
	})
	if err != nil {
		return err
	}
	return ferr
}

// Remove deletes an offline, unpaired profile.
func (c *Coordinator) Remove(ctx context.Context, name string) error {
	var ferr error
	err := c.do(ctx, func() {
		if ferr = c.store.Remove(name); ferr == nil {
			c.dirty = true
			c.logger.Info("profile_removed", zap.String("profile", name))
		}
	})
	if err != nil {
		return err
	}
	return ferr
}

// Shutdown asks the loop to persist and stop after the current tick. It does
// not wait for Run to return; use Done for that.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	err := c.do(ctx, func() { c.stopping = true })
	if errors.Is(err, ErrStopped) {
		return nil
	}
	return err
}
