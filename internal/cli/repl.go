package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"github.com/calvinalkan/slabtable/internal/config"
)

// prompter reads one line per call. *liner.State satisfies it.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// scanPrompter reads lines from a non-terminal reader without echoing a
// prompt, so piped scripts produce clean output.
type scanPrompter struct {
	scanner *bufio.Scanner
}

func (p *scanPrompter) Prompt(string) (string, error) {
	if !p.scanner.Scan() {
		err := p.scanner.Err()
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}

		return "", io.EOF
	}

	return p.scanner.Text(), nil
}

func (p *scanPrompter) AppendHistory(string) {}

// ReplCmd returns the repl command.
func ReplCmd(cfg *config.Config, log *logrus.Logger, stdin io.Reader) *Command {
	return &Command{
		Name:  "repl",
		Short: "Interactive session over the tables and cache",
		Long: `Start an interactive session with one chained hash table, one resettable
hash table and one bounded text cache, sized from the configuration.
Type 'help' inside the session for commands. Reads plain lines when
stdin is not a terminal.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execRepl(ctx, o, cfg, log, stdin)
		},
	}
}

func execRepl(ctx context.Context, o *IO, cfg *config.Config, log *logrus.Logger, stdin io.Reader) error {
	if stdin == nil {
		return errors.New("repl needs an input stream")
	}

	s, err := newSession(*cfg, o.Out(), log)
	if err != nil {
		return err
	}

	defer s.close()

	var p prompter

	if f, ok := stdin.(*os.File); ok && f == os.Stdin {
		line := liner.NewLiner()
		defer line.Close()

		line.SetCtrlCAborts(true)
		line.SetCompleter(s.completer)

		loadHistory(line, cfg.HistoryFileAbs, log)
		defer saveHistory(line, cfg.HistoryFileAbs, log)

		o.Printf("tably (buckets=%d, resettable=%d, cache=%d)\n", cfg.Buckets, cfg.ResettableCapacity, cfg.CacheCapacity)
		o.Println("Type 'help' for available commands.")

		p = line
	} else {
		p = &scanPrompter{scanner: bufio.NewScanner(stdin)}
	}

	return loop(ctx, p, s)
}

func loop(ctx context.Context, p prompter, s *session) error {
	for ctx.Err() == nil {
		line, err := p.Prompt("tably> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		if line == "" {
			continue
		}

		p.AppendHistory(line)

		err = s.exec(line)
		if errors.Is(err, errQuit) {
			return nil
		}

		if err != nil {
			s.println("error:", err)
		}
	}

	return ctx.Err()
}

func loadHistory(line *liner.State, path string, log *logrus.Logger) {
	if path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		return
	}

	defer func() { _ = f.Close() }()

	_, err = line.ReadHistory(f)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("read history")
	}
}

func saveHistory(line *liner.State, path string, log *logrus.Logger) {
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("write history")

		return
	}

	defer func() { _ = f.Close() }()

	_, err = line.WriteHistory(f)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("write history")
	}
}
