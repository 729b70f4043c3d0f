package rules

import (
	"errors"
	"fmt"
)

// NoEnPassant marks the absence of an en-passant file.
const NoEnPassant = -1

// Board geometry. Rank 0 is black's back rank, rank 7 is white's.
const (
	boardSize = 8
	kingFile  = 4
)

var ErrBadState = errors.New("rules: malformed game state")

// Square is a board coordinate.
type Square struct {
	Rank int
	File int
}

// Sq is shorthand for Square{rank, file}.
func Sq(rank, file int) Square { return Square{Rank: rank, File: file} }

// OnBoard reports whether both coordinates are within 0..7.
func (s Square) OnBoard() bool {
	return s.Rank >= 0 && s.Rank < boardSize && s.File >= 0 && s.File < boardSize
}

// Algebraic renders the square as e.g. "e2".
func (s Square) Algebraic() string {
	if !s.OnBoard() {
		return "??"
	}
	return string([]byte{byte('a' + s.File), byte('8' - s.Rank)})
}

func (s Square) String() string { return fmt.Sprintf("(%d,%d)", s.Rank, s.File) }

func homeRank(c Color) int {
	if c == White {
		return 7
	}
	return 0
}

// castling side indexes
const (
	queenside = 0
	kingside  = 1
)

// State is a full chess position: board, side to move, en-passant file,
// castling rights and cached king coordinates.
type State struct {
	grid   [boardSize][boardSize]Piece
	turn   Color
	epFile int
	castle [2][2]bool // [color][queenside|kingside]
	kings  [2]Square
}

var backRank = [boardSize]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// New returns the standard initial position with white to move.
func New() *State {
	s := &State{turn: White, epFile: NoEnPassant}
	for f := 0; f < boardSize; f++ {
		s.grid[0][f] = NewPiece(Black, backRank[f])
		s.grid[1][f] = NewPiece(Black, Pawn)
		s.grid[6][f] = NewPiece(White, Pawn)
		s.grid[7][f] = NewPiece(White, backRank[f])
	}
	s.castle = [2][2]bool{{true, true}, {true, true}}
	s.kings[White] = Sq(7, kingFile)
	s.kings[Black] = Sq(0, kingFile)
	return s
}

// Clone returns an independent copy. State holds only arrays so a value copy suffices.
func (s *State) Clone() *State {
	c := *s
	return &c
}

// PieceAt returns the piece at (rank, file); off-board coordinates read as empty.
func (s *State) PieceAt(rank, file int) Piece {
	if !Sq(rank, file).OnBoard() {
		return Empty
	}
	return s.grid[rank][file]
}

func (s *State) at(sq Square) Piece { return s.grid[sq.Rank][sq.File] }

func (s *State) put(sq Square, p Piece) { s.grid[sq.Rank][sq.File] = p }

// Turn returns the side to move.
func (s *State) Turn() Color { return s.turn }

// EnPassantFile returns the file of the pawn that just double-pushed, or NoEnPassant.
func (s *State) EnPassantFile() int { return s.epFile }

// CanCastle reports the castling right for c on the given side.
func (s *State) CanCastle(c Color, kingSide bool) bool {
	if kingSide {
		return s.castle[c][kingside]
	}
	return s.castle[c][queenside]
}

// KingSquare returns the cached king position of c.
func (s *State) KingSquare(c Color) Square { return s.kings[c] }

// ValidSelection reports whether (rank, file) holds a piece of color c.
func (s *State) ValidSelection(rank, file int, c Color) bool {
	p := s.PieceAt(rank, file)
	return !p.IsEmpty() && p.Color() == c
}

// Equal compares two positions including rights and side to move.
func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.grid == o.grid && s.turn == o.turn && s.epFile == o.epFile && s.castle == o.castle
}

// locateKings recomputes the king cache and verifies exactly one king per color.
func (s *State) locateKings() error {
	var found [2]int
	for r := 0; r < boardSize; r++ {
		for f := 0; f < boardSize; f++ {
			p := s.grid[r][f]
			if !p.IsEmpty() && p.Kind() == King {
				found[p.Color()]++
				s.kings[p.Color()] = Sq(r, f)
			}
		}
	}
	if found[White] != 1 || found[Black] != 1 {
		return fmt.Errorf("%w: want one king per side, got white=%d black=%d", ErrBadState, found[White], found[Black])
	}
	return nil
}
