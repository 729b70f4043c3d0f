package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/profile"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// GameStatus is the /games/{name} payload.
type GameStatus struct {
	match.GameInfo
	Board []string `json:"board"`
}

type PlayersStatus struct {
	Online   []string           `json:"online"`
	Profiles []match.PlayerInfo `json:"profiles"`
}

// StatusServer exposes read-only state over HTTP.
type StatusServer struct {
	backend Backend
	logger  *zap.Logger
	srv     *fasthttp.Server
	timeout time.Duration
}

func NewStatusServer(b Backend, logger *zap.Logger) *StatusServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StatusServer{backend: b, logger: logger, timeout: 3 * time.Second}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler,
		Name:         "chessmatch",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Handler routes GET /healthz, /players and /games/{name}.
func (s *StatusServer) Handler(rc *fasthttp.RequestCtx) {
	if !rc.IsGet() {
		rc.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	path := string(rc.Path())
	switch {
	case path == "/healthz":
		s.writeJSON(rc, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case path == "/players":
		online, err := s.backend.Online(ctx)
		if err != nil {
			s.fail(rc, err)
			return
		}
		profiles, err := s.backend.Players(ctx)
		if err != nil {
			s.fail(rc, err)
			return
		}
		if online == nil {
			online = []string{}
		}
		if profiles == nil {
			profiles = []match.PlayerInfo{}
		}
		s.writeJSON(rc, fasthttp.StatusOK, PlayersStatus{Online: online, Profiles: profiles})
	case strings.HasPrefix(path, "/games/"):
		name := strings.TrimPrefix(path, "/games/")
		if name == "" || strings.Contains(name, "/") {
			rc.Error("not found", fasthttp.StatusNotFound)
			return
		}
		info, err := s.backend.Game(ctx, name)
		if err != nil {
			s.fail(rc, err)
			return
		}
		rows := info.Position.BoardRows()
		s.writeJSON(rc, fasthttp.StatusOK, GameStatus{GameInfo: info, Board: rows[:]})
	default:
		rc.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *StatusServer) fail(rc *fasthttp.RequestCtx, err error) {
	code := fasthttp.StatusInternalServerError
	switch {
	case errors.Is(err, profile.ErrNotFound), errors.Is(err, match.ErrNotInGame):
		code = fasthttp.StatusNotFound
	case errors.Is(err, match.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		code = fasthttp.StatusServiceUnavailable
	}
	if code == fasthttp.StatusInternalServerError {
		s.logger.Warn("status_request_failed", zap.ByteString("path", rc.Path()), zap.Error(err))
	}
	s.writeJSON(rc, code, map[string]string{"error": err.Error()})
}

func (s *StatusServer) writeJSON(rc *fasthttp.RequestCtx, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		rc.Error("encode failed", fasthttp.StatusInternalServerError)
		return
	}
	rc.SetStatusCode(code)
	rc.SetContentType("application/json")
	rc.SetBody(body)
}

// Serve handles requests on ln until ctx ends.
func (s *StatusServer) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()
	s.logger.Info("status_listen", zap.String("addr", ln.Addr().String()))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return s.srv.Shutdown()
	}
}

func (s *StatusServer) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
