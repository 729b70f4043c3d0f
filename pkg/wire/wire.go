// Package wire holds the CRLF line grammar spoken between match server and clients.
package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Port is the default TCP port of the match server.
const Port = 1729

// CRLF terminates every line on the wire.
const CRLF = "\r\n"

// MaxLineBytes bounds a single inbound line.
const MaxLineBytes = 4096

// Client -> server command types.
const (
	CmdLogin    = "login"
	CmdRegister = "register"
	CmdRefresh  = "refresh"
	CmdRequest  = "request"
	CmdAccept   = "accept"
	CmdDecline  = "decline"
	CmdCancel   = "cancel"
	CmdMove     = "move"
	CmdResign   = "resign"
	CmdChat     = "chat"
)

// Server -> client line types.
const (
	TypeSvrMsg   = "svrmsg"
	TypeMsg      = "msg"
	TypePlayers  = "players"
	TypeGameReq  = "gamereq"
	TypeDecline  = "decline"
	TypeInit     = "init"
	TypeMove     = "move"
	TypeGameOver = "gameover"
	TypeChat     = "chat"
)

// Game results carried by gameover.
const (
	ResultWin  = "win"
	ResultLose = "lose"
	ResultDraw = "draw"
)

var (
	ErrMalformedMove        = errors.New("wire: malformed move")
	ErrMalformedCredentials = errors.New("wire: malformed credentials")
)

// Split separates a line into its type and data at the first space.
// A line without a space has empty data.
func Split(line string) (typ, data string) {
	line = strings.TrimRight(line, "\r\n")
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], line[i+1:]
	}
	return line, ""
}

// Credentials parses "NAME\tPASSWORD".
func Credentials(data string) (name, password string, err error) {
	name, password, ok := strings.Cut(data, "\t")
	if !ok || name == "" {
		return "", "", ErrMalformedCredentials
	}
	return name, password, nil
}

// Move is the four-digit coordinate move with an optional promotion letter.
type Move struct {
	FromRank, FromFile int
	ToRank, ToFile     int
	Promotion          byte // 0 when absent
}

// ParseMove parses "DDDD" or "DDDDP" where P is one of q, n, r, b.
func ParseMove(data string) (Move, error) {
	if len(data) != 4 && len(data) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrMalformedMove, data)
	}
	var d [4]int
	for i := 0; i < 4; i++ {
		c := data[i]
		if c < '0' || c > '7' {
			return Move{}, fmt.Errorf("%w: %q", ErrMalformedMove, data)
		}
		d[i] = int(c - '0')
	}
	m := Move{FromRank: d[0], FromFile: d[1], ToRank: d[2], ToFile: d[3]}
	if len(data) == 5 {
		switch p := data[4]; p {
		case 'q', 'n', 'r', 'b':
			m.Promotion = p
		default:
			return Move{}, fmt.Errorf("%w: promotion %q", ErrMalformedMove, p)
		}
	}
	return m, nil
}

func (m Move) String() string {
	b := []byte{byte('0' + m.FromRank), byte('0' + m.FromFile), byte('0' + m.ToRank), byte('0' + m.ToFile)}
	if m.Promotion != 0 {
		b = append(b, m.Promotion)
	}
	return string(b)
}

// Line builders. None of them append CRLF; the transport does.

func SvrMsg(text string) string { return TypeSvrMsg + " " + text }

func Msg(text string) string { return TypeMsg + " " + text }

func GameReq(name string) string { return TypeGameReq + " " + name }

func Decline() string { return TypeDecline }

func MoveLine(m Move) string { return TypeMove + " " + m.String() }

func GameOver(result string) string { return TypeGameOver + " " + result }

func Chat(text string) string { return TypeChat + " " + text }

// Players renders the roster; every name is followed by a tab.
func Players(names []string) string {
	var b strings.Builder
	b.WriteString(TypePlayers)
	b.WriteByte(' ')
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\t')
	}
	return b.String()
}

// Init announces a color and, when resuming, the serialized state.
func Init(color, state string) string {
	if state == "" {
		return TypeInit + " " + color
	}
	return TypeInit + " " + color + "\t" + state
}

// NewScanner returns a line scanner that accepts LF or CRLF endings and
// rejects lines longer than MaxLineBytes.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 512), MaxLineBytes)
	return sc
}
