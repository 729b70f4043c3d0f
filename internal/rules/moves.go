package rules

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// pawnDir is the rank delta of a forward pawn step.
func pawnDir(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

func pawnStartRank(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

// epTargetRank is the rank a pawn of color c lands on when capturing en passant.
func epTargetRank(c Color) int {
	if c == White {
		return 2
	}
	return 5
}

func promotionRank(c Color) int {
	if c == White {
		return 0
	}
	return 7
}

var (
	orthogonal = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonal   = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightJump = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
)

// ValidMove reports whether moving the piece on src to dst is geometrically legal:
// bounds, occupancy, movement pattern, clear paths, en passant and the castling
// preconditions. It does not consider whether the mover's own king ends up in check.
func (s *State) ValidMove(src, dst Square) bool {
	if !src.OnBoard() || !dst.OnBoard() || src == dst {
		return false
	}
	p := s.at(src)
	if p.IsEmpty() {
		return false
	}
	target := s.at(dst)
	if !target.IsEmpty() && target.Color() == p.Color() {
		return false
	}
	dr, df := dst.Rank-src.Rank, dst.File-src.File

	switch p.Kind() {
	case Pawn:
		return s.validPawn(p.Color(), src, dst, dr, df)
	case Knight:
		return (abs(dr) == 1 && abs(df) == 2) || (abs(dr) == 2 && abs(df) == 1)
	case Bishop:
		return abs(dr) == abs(df) && s.pathClear(src, dst)
	case Rook:
		return (dr == 0 || df == 0) && s.pathClear(src, dst)
	case Queen:
		return (abs(dr) == abs(df) || dr == 0 || df == 0) && s.pathClear(src, dst)
	case King:
		if abs(dr) <= 1 && abs(df) <= 1 {
			return true
		}
		return s.validCastle(p.Color(), src, dst, dr, df)
	}
	return false
}

func (s *State) validPawn(c Color, src, dst Square, dr, df int) bool {
	dir := pawnDir(c)
	target := s.at(dst)
	switch {
	case df == 0 && dr == dir:
		return target.IsEmpty()
	case df == 0 && dr == 2*dir:
		return src.Rank == pawnStartRank(c) && target.IsEmpty() && s.grid[src.Rank+dir][src.File].IsEmpty()
	case abs(df) == 1 && dr == dir:
		if !target.IsEmpty() {
			return true // own-color targets were rejected by the caller
		}
		if s.epFile != dst.File || dst.Rank != epTargetRank(c) {
			return false
		}
		return s.grid[src.Rank][dst.File].Is(c.Opponent(), Pawn)
	}
	return false
}

// validCastle checks the right, the king and rook on their home squares, every
// square between them empty and none of the king's start, transit or landing
// squares threatened.
func (s *State) validCastle(c Color, src, dst Square, dr, df int) bool {
	home := homeRank(c)
	if dr != 0 || abs(df) != 2 || src != Sq(home, kingFile) {
		return false
	}
	side, rookFile := kingside, 7
	if df < 0 {
		side, rookFile = queenside, 0
	}
	if !s.castle[c][side] || !s.grid[home][rookFile].Is(c, Rook) {
		return false
	}
	step := sign(df)
	for f := kingFile + step; f != rookFile; f += step {
		if !s.grid[home][f].IsEmpty() {
			return false
		}
	}
	for f := kingFile; f != dst.File+step; f += step {
		if s.Threatened(home, f, c) {
			return false
		}
	}
	return true
}

// pathClear reports whether every square strictly between src and dst is empty.
// Callers guarantee src and dst share a rank, file or diagonal.
func (s *State) pathClear(src, dst Square) bool {
	sr, sf := sign(dst.Rank-src.Rank), sign(dst.File-src.File)
	r, f := src.Rank+sr, src.File+sf
	for r != dst.Rank || f != dst.File {
		if !s.grid[r][f].IsEmpty() {
			return false
		}
		r += sr
		f += sf
	}
	return true
}

// Threatened reports whether any piece of the defender's opponent attacks (rank, file).
func (s *State) Threatened(rank, file int, defender Color) bool {
	enemy := defender.Opponent()

	scan := func(dirs [4][2]int, slider Kind) bool {
		for _, d := range dirs {
			r, f := rank+d[0], file+d[1]
			for dist := 1; Sq(r, f).OnBoard(); dist++ {
				p := s.grid[r][f]
				if !p.IsEmpty() {
					if p.Color() == enemy {
						switch p.Kind() {
						case slider, Queen:
							return true
						case King:
							if dist == 1 {
								return true
							}
						}
					}
					break
				}
				r += d[0]
				f += d[1]
			}
		}
		return false
	}
	if scan(orthogonal, Rook) || scan(diagonal, Bishop) {
		return true
	}

	for _, j := range knightJump {
		r, f := rank+j[0], file+j[1]
		if Sq(r, f).OnBoard() && s.grid[r][f].Is(enemy, Knight) {
			return true
		}
	}

	// An enemy pawn attacks from one step "behind" it in its own direction of travel.
	r := rank - pawnDir(enemy)
	for _, df := range [2]int{-1, 1} {
		if Sq(r, file+df).OnBoard() && s.grid[r][file+df].Is(enemy, Pawn) {
			return true
		}
	}
	return false
}

// InCheck reports whether c's king is attacked.
func (s *State) InCheck(c Color) bool {
	k := s.kings[c]
	return s.Threatened(k.Rank, k.File, c)
}

// WouldLeaveOwnKingInCheck plays src->dst on a scratch copy, including en-passant
// removal and castling rook relocation, and reports whether the mover's king is
// then attacked.
func (s *State) WouldLeaveOwnKingInCheck(src, dst Square) bool {
	p := s.at(src)
	if p.IsEmpty() {
		return false
	}
	scratch := s.Clone()
	scratch.relocate(src, dst)
	return scratch.InCheck(p.Color())
}

// LegalMove is ValidMove with the self-check filter applied.
func (s *State) LegalMove(src, dst Square) bool {
	return s.ValidMove(src, dst) && !s.WouldLeaveOwnKingInCheck(src, dst)
}

// relocate performs the board side of a move: the piece itself, an en-passant
// victim and the castling rook. It also keeps the king cache current. Rights,
// turn and promotion are handled by Apply.
func (s *State) relocate(src, dst Square) {
	p := s.at(src)
	df := dst.File - src.File
	if p.Kind() == Pawn && df != 0 && s.at(dst).IsEmpty() {
		s.grid[src.Rank][dst.File] = Empty
	}
	if p.Kind() == King && abs(df) == 2 {
		rookFrom, rookTo := 7, 5
		if df < 0 {
			rookFrom, rookTo = 0, 3
		}
		s.grid[src.Rank][rookTo] = s.grid[src.Rank][rookFrom]
		s.grid[src.Rank][rookFrom] = Empty
	}
	s.put(dst, p)
	s.put(src, Empty)
	if p.Kind() == King {
		s.kings[p.Color()] = dst
	}
}
