package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one tably subcommand.
type Command struct {
	Name string

	// Args names the positional arguments for help output, e.g. "<db.sqlite>".
	Args string

	// NArgs is the exact number of positional arguments Exec receives.
	NArgs int

	// ArgsErr is returned when the positional argument count is wrong.
	// If nil a generic count error is used.
	ArgsErr error

	// Short is the one-line description in the command listing.
	Short string

	// Long is shown by "tably <cmd> --help". Short is used when empty.
	Long string

	// Flags holds command flags. May be nil.
	Flags *flag.FlagSet

	Exec func(ctx context.Context, o *IO, args []string) error
}

// usage returns e.g. "load <db.sqlite> [flags]".
func (c *Command) usage() string {
	parts := []string{c.Name}

	if c.Args != "" {
		parts = append(parts, c.Args)
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		parts = append(parts, "[flags]")
	}

	return strings.Join(parts, " ")
}

// HelpLine returns the command's line in the global usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.usage(), c.Short)
}

func (c *Command) helpText() string {
	var b strings.Builder

	b.WriteString("Usage: tably " + c.usage() + "\n\n")

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	b.WriteString(desc + "\n")

	if c.Flags != nil && c.Flags.HasFlags() {
		b.WriteString("\nFlags:\n")
		b.WriteString(c.Flags.FlagUsages())
	}

	return b.String()
}

func (c *Command) checkArgs(args []string) error {
	if len(args) == c.NArgs {
		return nil
	}

	if c.ArgsErr != nil {
		return c.ArgsErr
	}

	return fmt.Errorf("%s takes %d argument(s), got %d", c.Name, c.NArgs, len(args))
}

// Run parses flags, checks positional arguments and executes the command.
// Returns the exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	fs := c.Flags
	if fs == nil {
		fs = flag.NewFlagSet(c.Name, flag.ContinueOnError)
	}

	fs.SetOutput(&strings.Builder{}) // discard pflag output

	err := fs.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		o.Printf("%s", c.helpText())

		return 0
	}

	if err == nil {
		err = c.checkArgs(fs.Args())
	}

	if err != nil {
		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		o.ErrPrintln(strings.TrimRight(c.helpText(), "\n"))

		return 1
	}

	err = c.Exec(ctx, o, fs.Args())
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}
