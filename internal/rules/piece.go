package rules

import "fmt"

// Color is the side a piece belongs to. White moves first.
type Color uint8

const (
	White Color = 0
	Black Color = 1
)

// Opponent returns the other side.
func (c Color) Opponent() Color { return c ^ 1 }

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// ParseColor accepts "white"/"black" (and the single letters w/b).
func ParseColor(s string) (Color, bool) {
	switch s {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	}
	return White, false
}

// Kind is the piece type. The numeric values match the external piece code (code % 8).
type Kind uint8

const (
	Pawn Kind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

const kindLetters = "pnbrqk"

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Piece is either empty or a (color, kind) pair. The zero value is empty.
type Piece struct {
	set   bool
	color Color
	kind  Kind
}

// Empty is the empty square.
var Empty = Piece{}

// NewPiece builds an occupied square value.
func NewPiece(c Color, k Kind) Piece { return Piece{set: true, color: c, kind: k} }

func (p Piece) IsEmpty() bool { return !p.set }
func (p Piece) Color() Color  { return p.color }
func (p Piece) Kind() Kind    { return p.kind }

// Is reports whether p is an occupied square of the given color and kind.
func (p Piece) Is(c Color, k Kind) bool { return p.set && p.color == c && p.kind == k }

// Code returns the external integer encoding: -1 for empty, otherwise color*8+kind.
func (p Piece) Code() int {
	if !p.set {
		return -1
	}
	return int(p.color)*8 + int(p.kind)
}

// PieceFromCode is the inverse of Code. Values 6, 7, 14, 15 and anything out of range are rejected.
func PieceFromCode(v int) (Piece, error) {
	if v == -1 {
		return Empty, nil
	}
	if v < 0 || v > 13 || v%8 > int(King) {
		return Empty, fmt.Errorf("invalid piece code %d", v)
	}
	return NewPiece(Color(v/8), Kind(v%8)), nil
}

// Letter returns the serialization letter: '.' for empty, uppercase for white, lowercase for black.
func (p Piece) Letter() byte {
	if !p.set {
		return '.'
	}
	b := kindLetters[p.kind]
	if p.color == White {
		b -= 'a' - 'A'
	}
	return b
}

func pieceFromLetter(b byte) (Piece, bool) {
	if b == '.' {
		return Empty, true
	}
	c := Black
	if b >= 'A' && b <= 'Z' {
		c = White
		b += 'a' - 'A'
	}
	for i := 0; i < len(kindLetters); i++ {
		if kindLetters[i] == b {
			return NewPiece(c, Kind(i)), true
		}
	}
	return Empty, false
}

// PromotionKind maps a promotion character (q, n, r, b) to a kind.
func PromotionKind(b byte) (Kind, bool) {
	switch b {
	case 'q', 'Q':
		return Queen, true
	case 'n', 'N':
		return Knight, true
	case 'r', 'R':
		return Rook, true
	case 'b', 'B':
		return Bishop, true
	}
	return Pawn, false
}

func (p Piece) String() string {
	if !p.set {
		return "empty"
	}
	return p.color.String() + " " + p.kind.String()
}
