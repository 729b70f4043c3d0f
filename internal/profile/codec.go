package profile

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/chessmatch/internal/rules"
)

// Record status values in the profile file.
const (
	statusIdle    = '0'
	statusPaired  = '1'
	statusInGame  = '2'
	fileLineBreak = "\r\n"
)

var ErrMalformedRecord = errors.New("profile: malformed record")

// Encode renders the store in the profiles.txt format. Only unpaired and
// white-sided profiles get their own record; the black side of a pair is
// written inline as the opponent line.
func Encode(s *Store) []byte {
	var b bytes.Buffer
	for _, p := range s.All() {
		if p.Paired() && !p.Owner() {
			continue
		}
		opp := s.Opponent(p)
		if p.Paired() && opp == nil {
			// dangling pairing; persist as idle rather than write a broken record
			writeLine(&b, p.Name, p.Password, string(statusIdle))
			continue
		}
		switch {
		case !p.Paired():
			writeLine(&b, p.Name, p.Password, string(statusIdle))
		case p.game == nil:
			writeLine(&b, p.Name, p.Password, string(statusPaired))
			writeLine(&b, opp.Name, opp.Password)
		default:
			writeLine(&b, p.Name, p.Password, string(statusInGame))
			writeLine(&b, opp.Name, opp.Password)
			for _, row := range p.game.BoardRows() {
				writeLine(&b, row)
			}
			writeLine(&b, p.game.Trailer())
		}
	}
	return b.Bytes()
}

func writeLine(b *bytes.Buffer, fields ...string) {
	b.WriteString(strings.Join(fields, "\t"))
	b.WriteString(fileLineBreak)
}

// Decode parses profiles.txt content. Records that do not parse are reported
// in problems and skipped; parsing resumes at the next header line.
func Decode(data []byte) (profiles []*Profile, problems []error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	seen := make(map[string]bool)
	i := 0
	for i < len(lines) {
		start := i
		recs, next, err := decodeRecord(lines, i)
		if err == nil {
			for _, p := range recs {
				if seen[p.Name] {
					err = fmt.Errorf("%w: line %d: duplicate profile %q", ErrMalformedRecord, start+1, p.Name)
					break
				}
			}
		}
		if err != nil {
			problems = append(problems, err)
			i = resync(lines, start+1)
			continue
		}
		for _, p := range recs {
			seen[p.Name] = true
			profiles = append(profiles, p)
		}
		i = next
	}
	return profiles, problems
}

// header splits a record header line; ok is false for any other kind of line.
func header(line string) (name, password string, status byte, ok bool) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 || len(parts[2]) != 1 {
		return "", "", 0, false
	}
	status = parts[2][0]
	if status != statusIdle && status != statusPaired && status != statusInGame {
		return "", "", 0, false
	}
	if ValidateName(parts[0]) != nil {
		return "", "", 0, false
	}
	return parts[0], parts[1], status, true
}

func resync(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		if _, _, _, ok := header(lines[i]); ok {
			return i
		}
	}
	return len(lines)
}

func decodeRecord(lines []string, i int) ([]*Profile, int, error) {
	name, password, status, ok := header(lines[i])
	if !ok {
		return nil, i + 1, fmt.Errorf("%w: line %d: bad header %q", ErrMalformedRecord, i+1, lines[i])
	}
	p := &Profile{Name: name, Password: password}
	i++
	if status == statusIdle {
		return []*Profile{p}, i, nil
	}

	if i >= len(lines) {
		return nil, i, fmt.Errorf("%w: %s: missing opponent line", ErrMalformedRecord, name)
	}
	oppName, oppPassword, found := strings.Cut(lines[i], "\t")
	if !found || ValidateName(oppName) != nil || strings.Contains(oppPassword, "\t") || oppName == name {
		return nil, i, fmt.Errorf("%w: %s: bad opponent line %q", ErrMalformedRecord, name, lines[i])
	}
	i++
	opp := &Profile{Name: oppName, Password: oppPassword, Opponent: name, Color: rules.Black}
	p.Opponent = oppName
	p.Color = rules.White

	if status == statusInGame {
		if i+9 > len(lines) {
			return nil, i, fmt.Errorf("%w: %s: truncated board", ErrMalformedRecord, name)
		}
		g, err := rules.DecodeParts(lines[i:i+8], lines[i+8])
		if err != nil {
			return nil, i, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, name, err)
		}
		p.game = g
		i += 9
	}
	return []*Profile{p, opp}, i, nil
}
