// Package admin holds the operator surfaces of the match server: a terminal
// console and a read-only HTTP status endpoint.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/park285/chessmatch/internal/match"
	"github.com/park285/chessmatch/internal/render"
	"github.com/park285/chessmatch/internal/rules"
)

// Backend is what the admin surfaces need from the match coordinator.
type Backend interface {
	Players(ctx context.Context) ([]match.PlayerInfo, error)
	Online(ctx context.Context) ([]string, error)
	Game(ctx context.Context, name string) (match.GameInfo, error)
	LegalMoves(ctx context.Context, name string) ([]rules.Move, error)
	Message(ctx context.Context, name, text string) error
	Broadcast(ctx context.Context, text string) (int, error)
	Save(ctx context.Context) error
	Remove(ctx context.Context, name string) error
	Shutdown(ctx context.Context) error
}

// ErrExit is returned by the exit command after shutdown was requested.
var ErrExit = errors.New("admin: exit")

var errUsage = errors.New("usage")

// Command is one console verb. Args is everything after the verb.
type Command struct {
	Name        string
	Usage       string
	Description string
	Handler     func(ctx context.Context, args string, out io.Writer) error
}

type commandSet struct {
	backend  Backend
	commands map[string]*Command
}

func newCommandSet(b Backend) *commandSet {
	s := &commandSet{backend: b, commands: make(map[string]*Command)}
	s.register(&Command{Name: "players", Usage: "players", Description: "List profiles with state", Handler: s.players})
	s.register(&Command{Name: "game", Usage: "game NAME", Description: "Show the board of NAME's game", Handler: s.game})
	s.register(&Command{Name: "moves", Usage: "moves NAME", Description: "List legal moves for the side to move", Handler: s.moves})
	s.register(&Command{Name: "render", Usage: "render NAME FILE", Description: "Write NAME's board as PNG", Handler: s.render})
	s.register(&Command{Name: "msg", Usage: "msg NAME TEXT", Description: "Send an admin message to NAME", Handler: s.msg})
	s.register(&Command{Name: "broadcast", Usage: "broadcast TEXT", Description: "Send TEXT to every logged in player", Handler: s.broadcast})
	s.register(&Command{Name: "save", Usage: "save", Description: "Write profiles now", Handler: s.save})
	s.register(&Command{Name: "remove", Usage: "remove NAME", Description: "Delete an offline idle profile", Handler: s.remove})
	s.register(&Command{Name: "help", Usage: "help", Description: "Show available commands", Handler: s.help})
	s.register(&Command{Name: "exit", Usage: "exit", Description: "Save profiles and stop the server", Handler: s.exit})
	return s
}

func (s *commandSet) register(c *Command) { s.commands[c.Name] = c }

// Exec runs one console line. ErrExit means the operator asked to stop.
func (s *commandSet) Exec(ctx context.Context, line string, out io.Writer) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	name, args, _ := strings.Cut(line, " ")
	cmd, ok := s.commands[name]
	if !ok {
		fmt.Fprintf(out, "Unknown command: %s\nType 'help' for available commands\n", name)
		return nil
	}
	err := cmd.Handler(ctx, strings.TrimSpace(args), out)
	if errors.Is(err, errUsage) {
		fmt.Fprintf(out, "Usage: %s\n", cmd.Usage)
		return nil
	}
	return err
}

func (s *commandSet) players(ctx context.Context, _ string, out io.Writer) error {
	list, err := s.backend.Players(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No profiles.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tONLINE\tSTATE\tOPPONENT\tCOLOR")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n", p.Name, p.Online, p.State, p.Opponent, p.Color)
	}
	return tw.Flush()
}

func (s *commandSet) game(ctx context.Context, args string, out io.Writer) error {
	name := firstField(args)
	if name == "" {
		return errUsage
	}
	info, err := s.backend.Game(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (white) vs %s (black), %s to move, %s\n", info.White, info.Black, info.Turn, info.Status)
	for _, row := range info.Position.BoardRows() {
		fmt.Fprintln(out, row)
	}
	fmt.Fprintln(out, info.Position.Trailer())
	fmt.Fprintln(out, info.FEN)
	return nil
}

func (s *commandSet) moves(ctx context.Context, args string, out io.Writer) error {
	name := firstField(args)
	if name == "" {
		return errUsage
	}
	list, err := s.backend.LegalMoves(ctx, name)
	if err != nil {
		return err
	}
	uci := make([]string, len(list))
	for i, m := range list {
		uci[i] = m.UCI()
	}
	sort.Strings(uci)
	fmt.Fprintf(out, "%d legal moves: %s\n", len(uci), strings.Join(uci, " "))
	return nil
}

func (s *commandSet) render(ctx context.Context, args string, out io.Writer) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return errUsage
	}
	info, err := s.backend.Game(ctx, fields[0])
	if err != nil {
		return err
	}
	title := info.White + " vs " + info.Black + ", " + info.Turn + " to move"
	if err := render.WriteFile(ctx, fields[1], info.Position, render.Options{Title: title}); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", fields[1])
	return nil
}

func (s *commandSet) msg(ctx context.Context, args string, out io.Writer) error {
	name, text, ok := strings.Cut(args, " ")
	text = strings.TrimSpace(text)
	if !ok || name == "" || text == "" {
		return errUsage
	}
	if err := s.backend.Message(ctx, name, text); err != nil {
		return err
	}
	fmt.Fprintf(out, "Sent to %s\n", name)
	return nil
}

func (s *commandSet) broadcast(ctx context.Context, args string, out io.Writer) error {
	if args == "" {
		return errUsage
	}
	n, err := s.backend.Broadcast(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Sent to %d players\n", n)
	return nil
}

func (s *commandSet) save(ctx context.Context, _ string, out io.Writer) error {
	if err := s.backend.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Profiles saved.")
	return nil
}

func (s *commandSet) remove(ctx context.Context, args string, out io.Writer) error {
	name := firstField(args)
	if name == "" {
		return errUsage
	}
	if err := s.backend.Remove(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %s\n", name)
	return nil
}

func (s *commandSet) help(_ context.Context, _ string, out io.Writer) error {
	names := make([]string, 0, len(s.commands))
	for n := range s.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, n := range names {
		c := s.commands[n]
		fmt.Fprintf(tw, "%s\t%s\n", c.Usage, c.Description)
	}
	return tw.Flush()
}

func (s *commandSet) exit(ctx context.Context, _ string, out io.Writer) error {
	if err := s.backend.Shutdown(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Shutting down.")
	return ErrExit
}

func firstField(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}
