package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/slabtable/internal/config"
)

type globalFlags struct {
	workDir    string
	configPath string
	verbose    bool
	help       bool
	capacities config.Overrides
}

func newGlobalFlagSet(flags *globalFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("tably", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(&strings.Builder{}) // discard pflag output

	fs.StringVarP(&flags.workDir, "cwd", "C", "", "Run as if started in `dir`")
	fs.StringVarP(&flags.configPath, "config", "c", "", "Use the specified config `file`")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug diagnostics to stderr")
	fs.BoolVarP(&flags.help, "help", "h", false, "Show help")
	fs.IntVar(&flags.capacities.Buckets, "buckets", 0, "Override the chained table capacity")
	fs.IntVar(&flags.capacities.ResettableCapacity, "resettable-capacity", 0, "Override the resettable table capacity")
	fs.IntVar(&flags.capacities.CacheCapacity, "cache-capacity", 0, "Override the bounded cache capacity")

	return fs
}

func allCommands(cfg *config.Config, log *logrus.Logger, stdin io.Reader) []*Command {
	return []*Command{
		ReplCmd(cfg, log, stdin),
		BenchCmd(cfg, log),
		LoadCmd(cfg, log),
		SeedCmd(cfg, log),
		PrintConfigCmd(cfg),
	}
}

// Run is the main entry point. Returns exit code.
//
// args includes the program name. A signal on sigCh (if non-nil) cancels
// the running command's context.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	var flags globalFlags

	fs := newGlobalFlagSet(&flags)

	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}

	err := fs.Parse(rest)
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, fs)

		return 1
	}

	remaining := fs.Args()
	if flags.help || len(remaining) == 0 {
		printUsage(out, fs)

		return 0
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: flags.workDir,
		ConfigPath:      flags.configPath,
		Overrides:       flags.capacities,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	log := newLogger(errOut, flags.verbose)
	log.WithFields(logrus.Fields{
		"global":  cfg.Sources.Global,
		"project": cfg.Sources.Project,
	}).Debug("config loaded")

	name := remaining[0]

	for _, cmd := range allCommands(&cfg, log, stdin) {
		if cmd.Name != name {
			continue
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if sigCh != nil {
			go func() {
				select {
				case <-sigCh:
					log.Warn("interrupted")
					cancel()
				case <-ctx.Done():
				}
			}()
		}

		return cmd.Run(ctx, NewIO(out, errOut), remaining[1:])
	}

	fprintln(errOut, "error: unknown command:", name)
	fprintln(errOut)
	printUsage(errOut, fs)

	return 1
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fprintln(w, `tably - slab-backed hash tables, generations and bounded caches

Usage: tably [global flags] <command> [args]

Global flags:`)
	fprintln(w, strings.TrimRight(fs.FlagUsages(), "\n"))
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range allCommands(&config.Config{}, nil, nil) {
		fprintln(w, cmd.HelpLine())
	}

	fprintln(w)
	fprintln(w, "Run 'tably <command> --help' for command flags.")
}
