package archive

import (
	"fmt"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"
)

// Finished-game methods.
const (
	MethodCheckmate = "checkmate"
	MethodStalemate = "stalemate"
	MethodResign    = "resign"
)

// Winners.
const (
	WinnerWhite = "white"
	WinnerBlack = "black"
	WinnerDraw  = "draw"
)

// Result is one finished game as handed over by the match coordinator.
type Result struct {
	ID       string
	White    string
	Black    string
	Winner   string // white | black | draw
	Method   string
	StartFEN string // empty means the standard initial position
	MovesUCI []string
	Started  time.Time
	Ended    time.Time
}

// NewID returns a fresh game identifier.
func NewID() string { return uuid.NewString() }

func mapResultToPGN(winner string) string {
	switch strings.ToLower(strings.TrimSpace(winner)) {
	case WinnerWhite:
		return "1-0"
	case WinnerBlack:
		return "0-1"
	case WinnerDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// SAN replays the UCI moves and returns them in standard algebraic notation.
func SAN(startFEN string, movesUCI []string) ([]string, error) {
	game := nchess.NewGame()
	if strings.TrimSpace(startFEN) != "" {
		opt, err := nchess.FEN(startFEN)
		if err != nil {
			return nil, fmt.Errorf("start fen: %w", err)
		}
		game = nchess.NewGame(opt)
	}
	out := make([]string, 0, len(movesUCI))
	for i, uci := range movesUCI {
		pos := game.Position()
		mv, err := nchess.UCINotation{}.Decode(pos, uci)
		if err != nil {
			return out, fmt.Errorf("move %d %q: %w", i+1, uci, err)
		}
		san := nchess.AlgebraicNotation{}.Encode(pos, mv)
		if err := game.Move(mv, nil); err != nil {
			return out, fmt.Errorf("move %d %q: %w", i+1, uci, err)
		}
		out = append(out, san)
	}
	return out, nil
}

// PGN renders the result with headers and numbered SAN moves. Games resumed
// from a saved position carry SetUp/FEN headers.
func PGN(r Result, san []string) string {
	pgnResult := mapResultToPGN(r.Winner)
	date := r.Ended
	if date.IsZero() {
		date = time.Now()
	}
	var b strings.Builder
	b.WriteString("[Event \"chessmatch\"]\n")
	b.WriteString("[Site \"chessmatch\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(r.White))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(r.Black))
	if strings.TrimSpace(r.StartFEN) != "" {
		b.WriteString("[SetUp \"1\"]\n")
		fmt.Fprintf(&b, "[FEN \"%s\"]\n", sanitizePGN(r.StartFEN))
	}
	if strings.TrimSpace(r.Method) != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(r.Method)))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", pgnResult)

	// a resumed game may start with black to move
	offset := 0
	if fields := strings.Fields(r.StartFEN); len(fields) > 1 && fields[1] == "b" {
		offset = 1
		if len(san) > 0 {
			fmt.Fprintf(&b, "1... %s ", strings.TrimSpace(san[0]))
		}
	}
	for i := offset; i < len(san); i += 2 {
		turn := (i+offset)/2 + 1
		fmt.Fprintf(&b, "%d. %s", turn, strings.TrimSpace(san[i]))
		if i+1 < len(san) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(san[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(pgnResult)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
