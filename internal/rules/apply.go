package rules

import (
	"errors"
	"fmt"
)

// ErrIllegalMove is returned by Play when the move fails LegalMove.
var ErrIllegalMove = errors.New("rules: illegal move")

// Move is a source/destination pair with an optional promotion kind.
// Promotion == Pawn means "not given".
type Move struct {
	From      Square
	To        Square
	Promotion Kind
}

// UCI renders the move in long algebraic form, e.g. "e7e8q".
func (m Move) UCI() string {
	s := m.From.Algebraic() + m.To.Algebraic()
	if m.Promotion != Pawn {
		s += string(kindLetters[m.Promotion])
	}
	return s
}

func (m Move) String() string { return m.UCI() }

// IsPromotion reports whether moving the piece on m.From to m.To promotes a pawn.
func (s *State) IsPromotion(m Move) bool {
	p := s.at(m.From)
	return p.Kind() == Pawn && !p.IsEmpty() && m.To.Rank == promotionRank(p.Color())
}

// Apply plays src->dst. The caller is responsible for legality. promotion is
// only consulted when a pawn reaches the last rank; Pawn or King there means queen.
func (s *State) Apply(src, dst Square, promotion Kind) {
	p := s.at(src)
	if p.IsEmpty() {
		return
	}
	c := p.Color()
	dr := dst.Rank - src.Rank

	s.relocate(src, dst)

	if p.Kind() == Pawn && dst.Rank == promotionRank(c) {
		k := promotion
		if k == Pawn || k == King {
			k = Queen
		}
		s.put(dst, NewPiece(c, k))
	}

	if p.Kind() == King {
		s.castle[c] = [2]bool{false, false}
	}
	s.clearRookRight(src)
	s.clearRookRight(dst)

	if p.Kind() == Pawn && abs(dr) == 2 {
		s.epFile = src.File
	} else {
		s.epFile = NoEnPassant
	}
	s.turn = s.turn.Opponent()
}

// clearRookRight drops the castling right tied to a rook home square when a
// piece leaves it or something lands on it.
func (s *State) clearRookRight(sq Square) {
	for _, c := range [2]Color{White, Black} {
		if sq.Rank != homeRank(c) {
			continue
		}
		switch sq.File {
		case 0:
			s.castle[c][queenside] = false
		case 7:
			s.castle[c][kingside] = false
		}
	}
}

// Play checks side to move and legality and then applies m. It returns the
// move as applied (promotion normalized to the piece actually placed).
func (s *State) Play(m Move) (Move, error) {
	p := s.PieceAt(m.From.Rank, m.From.File)
	if p.IsEmpty() || p.Color() != s.turn {
		return m, fmt.Errorf("%w: %s does not hold a %s piece", ErrIllegalMove, m.From.Algebraic(), s.turn)
	}
	if !s.LegalMove(m.From, m.To) {
		return m, fmt.Errorf("%w: %s", ErrIllegalMove, m.UCI())
	}
	if s.IsPromotion(m) {
		if m.Promotion == Pawn || m.Promotion == King {
			m.Promotion = Queen
		}
	} else {
		m.Promotion = Pawn
	}
	s.Apply(m.From, m.To, m.Promotion)
	return m, nil
}
