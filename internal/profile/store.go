package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/park285/chessmatch/internal/rules"
	"go.uber.org/zap"
)

var (
	ErrNameTaken       = errors.New("profile: name already taken")
	ErrInvalidName     = errors.New("profile: invalid name")
	ErrInvalidPassword = errors.New("profile: invalid password")
	ErrNotFound        = errors.New("profile: not found")
	ErrLinked          = errors.New("profile: profile is online")
	ErrPaired          = errors.New("profile: profile is paired")
)

// Store is the in-memory profile table plus its persistence backend.
// It is not safe for concurrent use; the match coordinator owns it.
type Store struct {
	profiles map[string]*Profile
	backend  Backend
	logger   *zap.Logger
}

func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{profiles: make(map[string]*Profile), backend: backend, logger: logger}
}

// Get looks a profile up by name.
func (s *Store) Get(name string) (*Profile, bool) {
	p, ok := s.profiles[name]
	return p, ok
}

// Put registers a new profile.
func (s *Store) Put(name, password string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if strings.ContainsAny(password, "\t\r\n") {
		return nil, ErrInvalidPassword
	}
	if _, ok := s.profiles[name]; ok {
		return nil, ErrNameTaken
	}
	p := &Profile{Name: name, Password: password}
	s.profiles[name] = p
	return p, nil
}

// ValidateName rejects names that cannot survive the wire or the profile file.
func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return ErrInvalidName
	}
	return nil
}

// Remove deletes an offline, unpaired profile.
func (s *Store) Remove(name string) error {
	p, ok := s.profiles[name]
	if !ok {
		return ErrNotFound
	}
	if p.Linked() {
		return ErrLinked
	}
	if p.Paired() {
		return ErrPaired
	}
	delete(s.profiles, name)
	return nil
}

// Len returns the number of profiles.
func (s *Store) Len() int { return len(s.profiles) }

// All returns every profile sorted by name.
func (s *Store) All() []*Profile {
	out := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Iterate calls fn for every profile in name order until fn returns false.
func (s *Store) Iterate(fn func(*Profile) bool) {
	for _, p := range s.All() {
		if !fn(p) {
			return
		}
	}
}

// Opponent resolves p's paired profile.
func (s *Store) Opponent(p *Profile) *Profile {
	if p == nil || p.Opponent == "" {
		return nil
	}
	return s.profiles[p.Opponent]
}

// Game returns the shared game of p's pair, read from the owning side.
func (s *Store) Game(p *Profile) *rules.State {
	if p == nil || !p.Paired() {
		return nil
	}
	if p.Owner() {
		return p.game
	}
	if o := s.Opponent(p); o != nil {
		return o.game
	}
	return nil
}

// StateOf classifies p as idle, requested or in game.
func (s *Store) StateOf(p *Profile) State {
	switch {
	case p == nil || !p.Paired():
		return Idle
	case s.Game(p) != nil:
		return InGame
	default:
		return Requested
	}
}

// Pair records a pending request from requester to target. The requester
// takes the white placeholder side.
func (s *Store) Pair(requester, target *Profile, now time.Time) {
	requester.Opponent = target.Name
	target.Opponent = requester.Name
	requester.Color = rules.White
	target.Color = rules.Black
	requester.RequestTime = now
	target.RequestTime = time.Time{}
}

// StartGame turns a pending pair into a game. accepterColor is the accepter's
// side; the white profile becomes the game owner.
func (s *Store) StartGame(accepter *Profile, accepterColor rules.Color) (*rules.State, error) {
	requester := s.Opponent(accepter)
	if requester == nil {
		return nil, fmt.Errorf("%w: opponent of %s", ErrNotFound, accepter.Name)
	}
	accepter.Color = accepterColor
	requester.Color = accepterColor.Opponent()
	accepter.RequestTime = time.Time{}
	requester.RequestTime = time.Time{}
	accepter.game, requester.game = nil, nil

	g := rules.New()
	if accepter.Owner() {
		accepter.game = g
	} else {
		requester.game = g
	}
	return g, nil
}

// Unpair returns p and its opponent to idle and drops any game.
func (s *Store) Unpair(p *Profile) {
	if p == nil {
		return
	}
	if o := s.Opponent(p); o != nil && o.Opponent == p.Name {
		clearPairing(o)
	}
	clearPairing(p)
}

func clearPairing(p *Profile) {
	p.Opponent = ""
	p.Color = rules.White
	p.game = nil
	p.RequestTime = time.Time{}
}

// Save writes every profile through the backend.
func (s *Store) Save(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	data := Encode(s)
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("save profiles (%s): %w", s.backend.Name(), err)
	}
	s.logger.Info("profiles_saved", zap.String("backend", s.backend.Name()), zap.Int("count", len(s.profiles)), zap.Int("bytes", len(data)))
	return nil
}

// Load replaces the table with what the backend holds. Missing data is an empty
// store; malformed records are skipped and logged.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	data, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load profiles (%s): %w", s.backend.Name(), err)
	}
	loaded, problems := Decode(data)
	for _, perr := range problems {
		s.logger.Warn("profile_record_skipped", zap.String("backend", s.backend.Name()), zap.Error(perr))
	}
	s.profiles = make(map[string]*Profile, len(loaded))
	for _, p := range loaded {
		s.profiles[p.Name] = p
	}
	s.logger.Info("profiles_loaded", zap.String("backend", s.backend.Name()), zap.Int("count", len(loaded)), zap.Int("skipped", len(problems)))
	return nil
}
