package match

import (
	"errors"
	"strings"

	"github.com/park285/chessmatch/internal/archive"
	"github.com/park285/chessmatch/internal/profile"
	"github.com/park285/chessmatch/internal/registry"
	"github.com/park285/chessmatch/internal/rules"
	"github.com/park285/chessmatch/pkg/wire"
	"go.uber.org/zap"
)

func svrLine(text string) string { return wire.SvrMsg(text) }

func (c *Coordinator) dispatch(cl *registry.Client, line string) {
	defer c.recoverDispatch(cl, line)

	typ, data := wire.Split(line)
	if cl.Profile == "" {
		switch typ {
		case wire.CmdLogin:
			c.handleLogin(cl, data)
		case wire.CmdRegister:
			c.handleRegister(cl, data)
		default:
			c.logger.Debug("unauthenticated_line_ignored", zap.Uint64("client", cl.ID()), zap.String("type", typ))
		}
		return
	}

	p, ok := c.store.Get(cl.Profile)
	if !ok {
		// profile vanished under a live link; drop back to unauthenticated
		c.logger.Warn("linked_profile_missing", zap.Uint64("client", cl.ID()), zap.String("profile", cl.Profile))
		cl.Profile = ""
		return
	}

	switch typ {
	case wire.CmdLogin, wire.CmdRegister:
		c.svrmsg(cl, "login.already_authenticated", nil)
	case wire.CmdRefresh:
		_ = cl.Send(c.playersLine())
	case wire.CmdRequest:
		c.handleRequest(p, data)
	case wire.CmdAccept:
		c.handleAccept(p)
	case wire.CmdDecline:
		c.handleDecline(p)
	case wire.CmdCancel:
		c.handleCancel(p)
	case wire.CmdMove:
		c.handleMove(p, data)
	case wire.CmdResign:
		c.handleResign(p)
	case wire.CmdChat:
		if opp := c.store.Opponent(p); opp != nil {
			opp.Send(wire.Chat(data))
		}
	default:
		c.logger.Debug("unknown_line_ignored", zap.String("profile", p.Name), zap.String("type", typ))
	}
}

// playersLine lists authenticated clients in connection order.
func (c *Coordinator) playersLine() string {
	return wire.Players(c.onlineNames())
}

func (c *Coordinator) onlineNames() []string {
	names := make([]string, 0, len(c.clients))
	for _, cl := range c.clients {
		if cl.Profile != "" && !cl.Closed() {
			names = append(names, cl.Profile)
		}
	}
	return names
}

func (c *Coordinator) link(cl *registry.Client, p *profile.Profile) {
	p.Client = cl
	cl.Profile = p.Name
}

func (c *Coordinator) handleLogin(cl *registry.Client, data string) {
	name, password, err := wire.Credentials(data)
	if err != nil {
		c.logger.Info("login_malformed", zap.Uint64("client", cl.ID()))
		c.svrmsg(cl, "login.malformed", nil)
		return
	}
	p, ok := c.store.Get(name)
	switch {
	case !ok:
		c.svrmsg(cl, "login.unknown", nil)
		return
	case p.Password != password:
		c.logger.Info("login_bad_password", zap.String("profile", name), zap.String("remote", cl.Remote()))
		c.svrmsg(cl, "login.bad_password", nil)
		return
	case p.Linked():
		c.logger.Warn("login_already_online", zap.String("profile", name), zap.String("remote", cl.Remote()))
		c.svrmsg(cl, "login.already_online", nil)
		return
	}

	c.link(cl, p)
	c.logger.Info("login", zap.String("profile", name), zap.Uint64("client", cl.ID()))
	c.svrmsg(cl, "login.success", nil)
	_ = cl.Send(c.playersLine())

	if g := c.store.Game(p); g != nil {
		_ = cl.Send(wire.Init(p.Color.String(), g.Encode()))
		return
	}
	if c.store.StateOf(p) == profile.Requested && !p.Owner() {
		_ = cl.Send(wire.GameReq(p.Opponent))
	}
}

func (c *Coordinator) handleRegister(cl *registry.Client, data string) {
	name, password, err := wire.Credentials(data)
	if err != nil {
		c.logger.Info("register_malformed", zap.Uint64("client", cl.ID()))
		c.svrmsg(cl, "login.malformed", nil)
		return
	}
	p, err := c.store.Put(name, password)
	switch {
	case errors.Is(err, profile.ErrNameTaken):
		c.svrmsg(cl, "register.taken", nil)
		return
	case errors.Is(err, profile.ErrInvalidPassword):
		c.logger.Info("register_rejected", zap.String("name", name), zap.Error(err))
		c.svrmsg(cl, "register.invalid_password", nil)
		return
	case err != nil:
		c.logger.Info("register_rejected", zap.String("name", name), zap.Error(err))
		c.svrmsg(cl, "register.invalid_name", nil)
		return
	}
	c.dirty = true
	c.link(cl, p)
	c.logger.Info("register", zap.String("profile", name), zap.Uint64("client", cl.ID()))
	c.svrmsg(cl, "register.success", nil)
	_ = cl.Send(c.playersLine())
}

func (c *Coordinator) handleRequest(p *profile.Profile, data string) {
	name := strings.TrimSpace(data)
	if c.store.StateOf(p) != profile.Idle {
		c.tell(p, "request.busy_self", nil)
		return
	}
	if name == p.Name {
		c.tell(p, "request.self", nil)
		return
	}
	target, ok := c.store.Get(name)
	if !ok {
		c.tell(p, "request.not_found", nil)
		return
	}
	if c.store.StateOf(target) != profile.Idle {
		c.tell(p, "request.busy_target", nil)
		return
	}

	c.store.Pair(p, target, c.now())
	c.dirty = true
	c.logger.Info("match_request", zap.String("from", p.Name), zap.String("to", target.Name), zap.Bool("target_online", target.Linked()))
	target.Send(wire.GameReq(p.Name))
	c.tell(p, "request.sent", nil)
}

// pendingReceiver reports whether p is the requested side of a pending pair.
func (c *Coordinator) pendingReceiver(p *profile.Profile) bool {
	return c.store.StateOf(p) == profile.Requested && !p.Owner()
}

func (c *Coordinator) handleAccept(p *profile.Profile) {
	if !c.pendingReceiver(p) {
		c.tell(p, "request.none_pending", nil)
		return
	}
	color := rules.Color(c.rng.Intn(2))
	g, err := c.store.StartGame(p, color)
	if err != nil {
		c.logger.Error("match_accept_failed", zap.String("profile", p.Name), zap.Error(err))
		return
	}
	c.dirty = true
	requester := c.store.Opponent(p)
	white, black := p, requester
	if p.Color == rules.Black {
		white, black = requester, p
	}
	c.games[white.Name] = newGameLog(white.Name, black.Name, "", c.now())
	c.logger.Info("match_accept",
		zap.String("white", white.Name),
		zap.String("black", black.Name),
		zap.String("state", g.Encode()),
	)

	p.Send(wire.Init(p.Color.String(), ""))
	requester.Send(wire.Init(requester.Color.String(), ""))
}

func (c *Coordinator) handleDecline(p *profile.Profile) {
	if !c.pendingReceiver(p) {
		c.tell(p, "request.none_pending", nil)
		return
	}
	requester := c.store.Opponent(p)
	c.logger.Info("match_decline", zap.String("from", p.Name), zap.String("requester", requester.Name))
	requester.Send(wire.Decline())
	c.store.Unpair(p)
	c.dirty = true
}

func (c *Coordinator) handleCancel(p *profile.Profile) {
	if c.store.StateOf(p) != profile.Requested || !p.Owner() {
		c.tell(p, "request.none_pending", nil)
		return
	}
	if !p.RequestTime.IsZero() && c.now().Sub(p.RequestTime) < c.cancelWait {
		c.tell(p, "cancel.too_early", map[string]any{"Seconds": int(c.cancelWait.Seconds())})
		return
	}
	target := c.store.Opponent(p)
	c.store.Unpair(p)
	c.dirty = true
	c.logger.Info("match_cancel", zap.String("from", p.Name), zap.String("to", target.Name))
	c.tell(p, "cancel.done", nil)
	c.tell(target, "cancel.notify", map[string]any{"Name": p.Name})
}

func (c *Coordinator) handleMove(p *profile.Profile, data string) {
	g := c.store.Game(p)
	if g == nil {
		c.tell(p, "game.not_in_game", nil)
		return
	}
	if g.Turn() != p.Color {
		c.tell(p, "game.not_your_turn", nil)
		return
	}
	wm, err := wire.ParseMove(data)
	if err != nil {
		c.logger.Info("move_malformed", zap.String("profile", p.Name), zap.String("data", data))
		c.tell(p, "game.illegal_move", nil)
		return
	}

	log := c.gameLogFor(p, g)
	m := rules.Move{From: rules.Sq(wm.FromRank, wm.FromFile), To: rules.Sq(wm.ToRank, wm.ToFile)}
	if wm.Promotion != 0 {
		m.Promotion, _ = rules.PromotionKind(wm.Promotion)
	}
	played, err := g.Play(m)
	if err != nil {
		c.logger.Info("move_rejected", zap.String("profile", p.Name), zap.String("move", wm.String()), zap.Error(err))
		c.tell(p, "game.illegal_move", nil)
		return
	}
	c.dirty = true
	log.add(played)

	wm.Promotion = 0
	if played.Promotion != rules.Pawn {
		wm.Promotion = rules.NewPiece(rules.Black, played.Promotion).Letter()
	}
	opp := c.store.Opponent(p)
	opp.Send(wire.MoveLine(wm))

	switch g.TerminalState(p.Color.Opponent()) {
	case rules.Checkmate:
		p.Send(wire.GameOver(wire.ResultWin))
		opp.Send(wire.GameOver(wire.ResultLose))
		c.finishGame(p, p.Color.String(), archive.MethodCheckmate)
	case rules.Stalemate:
		p.Send(wire.GameOver(wire.ResultDraw))
		opp.Send(wire.GameOver(wire.ResultDraw))
		c.finishGame(p, archive.WinnerDraw, archive.MethodStalemate)
	}
}

func (c *Coordinator) handleResign(p *profile.Profile) {
	if c.store.StateOf(p) != profile.InGame {
		c.tell(p, "game.not_in_game", nil)
		return
	}
	opp := c.store.Opponent(p)
	p.Send(wire.GameOver(wire.ResultLose))
	opp.Send(wire.GameOver(wire.ResultWin))
	c.tell(opp, "game.opponent_resigned", nil)
	c.finishGame(p, opp.Color.String(), archive.MethodResign)
}

// finishGame archives the pair's game and returns both profiles to idle.
func (c *Coordinator) finishGame(p *profile.Profile, winner, method string) {
	white := p
	if !p.Owner() {
		white = c.store.Opponent(p)
	}
	log := c.games[white.Name]
	delete(c.games, white.Name)
	if log != nil {
		res := log.result(winner, method, c.now())
		c.logger.Info("match_finished",
			zap.String("game_id", res.ID),
			zap.String("white", res.White),
			zap.String("black", res.Black),
			zap.String("winner", winner),
			zap.String("method", method),
			zap.Int("plies", len(res.MovesUCI)),
		)
		c.archive.Record(res)
	}
	c.store.Unpair(p)
	c.dirty = true
}
