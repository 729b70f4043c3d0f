package rules

// Status is the outcome of TerminalState.
type Status uint8

const (
	Running Status = iota
	Checkmate
	Stalemate
)

func (st Status) String() string {
	switch st {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "running"
}

var promotionKinds = [4]Kind{Queen, Rook, Bishop, Knight}

// forEachCandidate calls fn with every pseudo-legal destination of the piece on
// src until fn returns false. Slider rays stop at the first geometrically invalid
// square; self-check never cuts a ray short.
func (s *State) forEachCandidate(src Square, fn func(dst Square) bool) bool {
	p := s.at(src)
	try := func(r, f int) bool {
		dst := Sq(r, f)
		if !s.ValidMove(src, dst) {
			return true
		}
		return fn(dst)
	}
	ray := func(dirs [4][2]int) bool {
		for _, d := range dirs {
			for r, f := src.Rank+d[0], src.File+d[1]; ; r, f = r+d[0], f+d[1] {
				dst := Sq(r, f)
				if !s.ValidMove(src, dst) {
					break
				}
				if !fn(dst) {
					return false
				}
			}
		}
		return true
	}

	switch p.Kind() {
	case Pawn:
		dir := pawnDir(p.Color())
		for _, c := range [4][2]int{{dir, 0}, {2 * dir, 0}, {dir, -1}, {dir, 1}} {
			if !try(src.Rank+c[0], src.File+c[1]) {
				return false
			}
		}
	case Knight:
		for _, j := range knightJump {
			if !try(src.Rank+j[0], src.File+j[1]) {
				return false
			}
		}
	case King:
		for dr := -1; dr <= 1; dr++ {
			for df := -1; df <= 1; df++ {
				if (dr != 0 || df != 0) && !try(src.Rank+dr, src.File+df) {
					return false
				}
			}
		}
		if !try(src.Rank, src.File+2) || !try(src.Rank, src.File-2) {
			return false
		}
	case Bishop:
		return ray(diagonal)
	case Rook:
		return ray(orthogonal)
	case Queen:
		return ray(diagonal) && ray(orthogonal)
	}
	return true
}

// HasLegalMove reports whether c has at least one legal move.
func (s *State) HasLegalMove(c Color) bool {
	found := false
	for r := 0; r < boardSize && !found; r++ {
		for f := 0; f < boardSize && !found; f++ {
			if !s.ValidSelection(r, f, c) {
				continue
			}
			src := Sq(r, f)
			s.forEachCandidate(src, func(dst Square) bool {
				if !s.WouldLeaveOwnKingInCheck(src, dst) {
					found = true
					return false
				}
				return true
			})
		}
	}
	return found
}

// LegalMoves lists every legal move of c. Promotions appear once per promotion kind.
func (s *State) LegalMoves(c Color) []Move {
	var out []Move
	for r := 0; r < boardSize; r++ {
		for f := 0; f < boardSize; f++ {
			if !s.ValidSelection(r, f, c) {
				continue
			}
			src := Sq(r, f)
			s.forEachCandidate(src, func(dst Square) bool {
				if s.WouldLeaveOwnKingInCheck(src, dst) {
					return true
				}
				m := Move{From: src, To: dst}
				if s.IsPromotion(m) {
					for _, k := range promotionKinds {
						m.Promotion = k
						out = append(out, m)
					}
					return true
				}
				out = append(out, m)
				return true
			})
		}
	}
	return out
}

// TerminalState classifies the position from the point of view of sideToMove.
func (s *State) TerminalState(sideToMove Color) Status {
	if s.HasLegalMove(sideToMove) {
		return Running
	}
	if s.InCheck(sideToMove) {
		return Checkmate
	}
	return Stalemate
}
