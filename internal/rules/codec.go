package rules

import (
	"fmt"
	"strings"
)

// EncodedLen is the length of the serialized state.
const EncodedLen = 70

// noneMarker is written in the en-passant slot when there is no en-passant file.
const noneMarker = '/'

// Encode serializes the state: 64 board characters in row-major order starting
// at rank 0, then turn, the four castling flags (wQ wK bQ bK) and the
// en-passant file.
func (s *State) Encode() string {
	var b [EncodedLen]byte
	i := 0
	for r := 0; r < boardSize; r++ {
		for f := 0; f < boardSize; f++ {
			b[i] = s.grid[r][f].Letter()
			i++
		}
	}
	b[64] = '0' + byte(s.turn)
	b[65] = flag(s.castle[White][queenside])
	b[66] = flag(s.castle[White][kingside])
	b[67] = flag(s.castle[Black][queenside])
	b[68] = flag(s.castle[Black][kingside])
	if s.epFile == NoEnPassant {
		b[69] = noneMarker
	} else {
		b[69] = '0' + byte(s.epFile)
	}
	return string(b[:])
}

func (s *State) String() string { return s.Encode() }

func flag(v bool) byte {
	if v {
		return '1'
	}
	return '0'
}

func parseFlag(b byte) (bool, error) {
	switch b {
	case '0':
		return false, nil
	case '1':
		return true, nil
	}
	return false, fmt.Errorf("%w: flag %q", ErrBadState, b)
}

// Decode parses the output of Encode. Any non-digit in the en-passant slot
// means "none".
func Decode(text string) (*State, error) {
	if len(text) != EncodedLen {
		return nil, fmt.Errorf("%w: length %d", ErrBadState, len(text))
	}
	s := &State{}
	for i := 0; i < 64; i++ {
		p, ok := pieceFromLetter(text[i])
		if !ok {
			return nil, fmt.Errorf("%w: piece %q at %d", ErrBadState, text[i], i)
		}
		s.grid[i/boardSize][i%boardSize] = p
	}
	switch text[64] {
	case '0':
		s.turn = White
	case '1':
		s.turn = Black
	default:
		return nil, fmt.Errorf("%w: turn %q", ErrBadState, text[64])
	}
	slots := [4]*bool{&s.castle[White][queenside], &s.castle[White][kingside], &s.castle[Black][queenside], &s.castle[Black][kingside]}
	for i, dst := range slots {
		v, err := parseFlag(text[65+i])
		if err != nil {
			return nil, err
		}
		*dst = v
	}
	switch ep := text[69]; {
	case ep >= '0' && ep <= '7':
		s.epFile = int(ep - '0')
	case ep >= '8' && ep <= '9':
		return nil, fmt.Errorf("%w: en-passant file %q", ErrBadState, ep)
	default:
		s.epFile = NoEnPassant
	}
	if err := s.locateKings(); err != nil {
		return nil, err
	}
	return s, nil
}

// BoardRows returns the eight 8-character board rows, rank 0 first.
func (s *State) BoardRows() [boardSize]string {
	var rows [boardSize]string
	enc := s.Encode()
	for r := 0; r < boardSize; r++ {
		rows[r] = enc[r*boardSize : (r+1)*boardSize]
	}
	return rows
}

// Trailer returns the six state characters following the board.
func (s *State) Trailer() string { return s.Encode()[64:] }

// DecodeParts rebuilds a state from eight board rows and the six-character trailer.
func DecodeParts(rows []string, trailer string) (*State, error) {
	if len(rows) != boardSize {
		return nil, fmt.Errorf("%w: %d board rows", ErrBadState, len(rows))
	}
	var b strings.Builder
	b.Grow(EncodedLen)
	for i, row := range rows {
		if len(row) != boardSize {
			return nil, fmt.Errorf("%w: row %d has %d squares", ErrBadState, i, len(row))
		}
		b.WriteString(row)
	}
	b.WriteString(trailer)
	return Decode(b.String())
}

// FEN exports the position in Forsyth-Edwards notation. Move counters are not
// tracked and are written as "0 1".
func (s *State) FEN() string {
	var b strings.Builder
	for r := 0; r < boardSize; r++ {
		empty := 0
		for f := 0; f < boardSize; f++ {
			p := s.grid[r][f]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(p.Letter())
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if r < boardSize-1 {
			b.WriteByte('/')
		}
	}
	if s.turn == White {
		b.WriteString(" w ")
	} else {
		b.WriteString(" b ")
	}
	rights := ""
	if s.castle[White][kingside] {
		rights += "K"
	}
	if s.castle[White][queenside] {
		rights += "Q"
	}
	if s.castle[Black][kingside] {
		rights += "k"
	}
	if s.castle[Black][queenside] {
		rights += "q"
	}
	if rights == "" {
		rights = "-"
	}
	b.WriteString(rights)
	b.WriteByte(' ')
	if s.epFile == NoEnPassant {
		b.WriteByte('-')
	} else {
		b.WriteString(Sq(epTargetRank(s.turn), s.epFile).Algebraic())
	}
	b.WriteString(" 0 1")
	return b.String()
}
