package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

type ConsoleConfig struct {
	Prompt      string
	HistoryFile string
	Stdin       io.ReadCloser // nil means os.Stdin
	Stdout      io.Writer     // nil means os.Stdout
}

// Console reads operator commands from a terminal.
type Console struct {
	cfg    ConsoleConfig
	cmds   *commandSet
	logger *zap.Logger
}

func NewConsole(b Backend, cfg ConsoleConfig, logger *zap.Logger) *Console {
	if cfg.Prompt == "" {
		cfg.Prompt = "chess> "
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{cfg: cfg, cmds: newCommandSet(b), logger: logger}
}

// Exec runs a single command line and writes its output to out.
func (c *Console) Exec(ctx context.Context, line string, out io.Writer) error {
	return c.cmds.Exec(ctx, line, out)
}

// Run reads commands until exit, ctx ends or input closes. Only exit asks the
// server to stop; a closed stdin just ends the console.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.cfg.Prompt,
		HistoryFile:     c.cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           c.cfg.Stdin,
		Stdout:          c.cfg.Stdout,
	})
	if err != nil {
		return fmt.Errorf("admin console: %w", err)
	}
	defer rl.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = rl.Close()
		case <-stop:
		}
	}()

	out := rl.Stdout()
	fmt.Fprintln(out, "Admin console. Type 'help' for commands.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("admin_console_eof")
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.logger.Info("admin_command", zap.String("line", line))
		err = c.cmds.Exec(ctx, line, out)
		if errors.Is(err, ErrExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}
