package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/calvinalkan/slabtable/internal/config"
	"github.com/calvinalkan/slabtable/internal/snapshot"
	"github.com/calvinalkan/slabtable/pkg/hashtable"
	"github.com/calvinalkan/slabtable/pkg/keys"
	"github.com/calvinalkan/slabtable/pkg/textcache"
)

var (
	errQuit         = errors.New("quit")
	errUsage        = errors.New("usage")
	errSnapshotKind = errors.New("snapshot kind has no table in this session")
)

// sessionCommands lists every command the session understands, in help
// order. It also drives tab completion.
var sessionCommands = []struct {
	name, args, help string
}{
	{"ins", "<key> <value>", "Insert into the chained table"},
	{"find", "<key>", "Newest value for key (starts a cursor)"},
	{"next", "<key>", "Next older value for key after find/next"},
	{"all", "<key>", "Every value for key, newest first"},
	{"rm", "<key>", "Remove the newest value for key"},
	{"rmv", "<key> <value>", "Remove key/value; prints key matches seen"},
	{"rins", "<key> <value>", "Insert into the resettable table"},
	{"rfind", "<key>", "Newest value for key in the current generation"},
	{"rnext", "<key>", "Next older value after rfind/rnext"},
	{"rall", "<key>", "Every value for key in the current generation"},
	{"reset", "", "Start a new resettable generation"},
	{"cache", "<text> [font]", "Fetch a texture through the bounded cache"},
	{"stats", "", "Show table, generation and cache statistics"},
	{"dump", "<file>", "Write the chained table to a snapshot"},
	{"rdump", "<file>", "Write the current resettable generation to a snapshot"},
	{"restore", "<file>", "Insert a chained or resettable snapshot into its table"},
	{"help", "", "Show this help"},
	{"quit", "", "Exit (also: exit, q)"},
}

// memRenderer hands out sequential texture ids and counts live ones.
type memRenderer struct {
	next textcache.Texture
	live int
	log  *logrus.Logger
}

func (r *memRenderer) Render(text string, font textcache.FontID) (textcache.Texture, error) {
	r.next++
	r.live++

	r.log.WithFields(logrus.Fields{"texture": r.next, "font": font, "bytes": len(text)}).Debug("render")

	return r.next, nil
}

func (r *memRenderer) Destroy(tex textcache.Texture) {
	r.live--

	r.log.WithField("texture", tex).Debug("evict")
}

// session owns the structures a REPL operates on.
type session struct {
	table    *hashtable.Table[string]
	frame    *hashtable.Resettable[string]
	textures *textcache.Cache
	renderer *memRenderer
	workDir  string
	out      io.Writer
	log      *logrus.Logger
}

func newSession(cfg config.Config, out io.Writer, log *logrus.Logger) (*session, error) {
	table, err := hashtable.New[string](cfg.Buckets)
	if err != nil {
		return nil, fmt.Errorf("chained table: %w", err)
	}

	frame, err := hashtable.NewResettable[string](cfg.ResettableCapacity)
	if err != nil {
		return nil, fmt.Errorf("resettable table: %w", err)
	}

	renderer := &memRenderer{log: log}

	textures, err := textcache.New(cfg.CacheCapacity, renderer)
	if err != nil {
		return nil, fmt.Errorf("text cache: %w", err)
	}

	return &session{
		table:    table,
		frame:    frame,
		textures: textures,
		renderer: renderer,
		workDir:  cfg.EffectiveCwd,
		out:      out,
		log:      log,
	}, nil
}

func (s *session) println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *session) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

// parseKey accepts an unsigned integer (decimal, 0x hex, 0b binary) or any
// other word, which is hashed.
func parseKey(word string) uint64 {
	k, err := strconv.ParseUint(word, 0, 64)
	if err != nil {
		return keys.HashString(word, 0)
	}

	return k
}

func want(args []string, n int, cmd string) error {
	if len(args) != n {
		for _, c := range sessionCommands {
			if c.name == cmd {
				return fmt.Errorf("%w: %s %s", errUsage, cmd, c.args)
			}
		}

		return fmt.Errorf("%w: %s", errUsage, cmd)
	}

	return nil
}

// exec runs a single line. It returns errQuit when the session should end.
func (s *session) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		s.printHelp()

		return nil
	case "ins":
		return s.insert(args)
	case "find":
		return s.found(want(args, 1, cmd), func() (string, bool) { return s.table.Find(parseKey(args[0])) })
	case "next":
		return s.found(want(args, 1, cmd), func() (string, bool) { return s.table.FindNext(parseKey(args[0])) })
	case "all":
		return s.all(want(args, 1, cmd), func(k uint64, buf []string) int { return s.table.FindAll(k, buf) }, args)
	case "rm":
		return s.remove(args)
	case "rmv":
		return s.removeByValue(args)
	case "rins":
		return s.resettableInsert(args)
	case "rfind":
		return s.found(want(args, 1, cmd), func() (string, bool) { return s.frame.Find(parseKey(args[0])) })
	case "rnext":
		return s.found(want(args, 1, cmd), func() (string, bool) { return s.frame.FindNext(parseKey(args[0])) })
	case "rall":
		return s.all(want(args, 1, cmd), func(k uint64, buf []string) int { return s.frame.FindAll(k, buf) }, args)
	case "reset":
		s.frame.Reset()
		s.printf("generation=%d\n", s.frame.Generation())

		return nil
	case "cache":
		return s.cache(args)
	case "stats":
		s.printStats()

		return nil
	case "dump":
		return s.dump(want(args, 1, cmd), args, snapshot.FromTable(s.table))
	case "rdump":
		return s.dump(want(args, 1, cmd), args, snapshot.FromResettable(s.frame))
	case "restore":
		return s.restore(args)
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

func (s *session) printHelp() {
	s.println("Commands:")

	for _, c := range sessionCommands {
		s.printf("  %-22s %s\n", strings.TrimSpace(c.name+" "+c.args), c.help)
	}

	s.println()
	s.println("Keys: unsigned integers (42, 0x2a) or words, which are hashed.")
}

func (s *session) completer(line string) []string {
	var completions []string

	lower := strings.ToLower(line)
	for _, c := range sessionCommands {
		if strings.HasPrefix(c.name, lower) {
			completions = append(completions, c.name)
		}
	}

	return completions
}

func (s *session) insert(args []string) error {
	err := want(args, 2, "ins")
	if err != nil {
		return err
	}

	err = s.table.Insert(parseKey(args[0]), args[1])
	if err != nil {
		s.log.WithFields(logrus.Fields{"table": "chained", "len": s.table.Len(), "cap": s.table.Cap()}).Warn("insert rejected")

		return err
	}

	s.println("ok")

	return nil
}

func (s *session) found(argErr error, lookup func() (string, bool)) error {
	if argErr != nil {
		return argErr
	}

	v, ok := lookup()
	if !ok {
		s.println("(not found)")

		return nil
	}

	s.println(v)

	return nil
}

func (s *session) all(argErr error, fill func(uint64, []string) int, args []string) error {
	if argErr != nil {
		return argErr
	}

	buf := make([]string, max(s.table.Cap(), s.frame.Cap()))
	n := fill(parseKey(args[0]), buf)

	if n == 0 {
		s.println("(none)")

		return nil
	}

	s.println(strings.Join(buf[:n], " "))

	return nil
}

func (s *session) remove(args []string) error {
	err := want(args, 1, "rm")
	if err != nil {
		return err
	}

	v, ok := s.table.Remove(parseKey(args[0]))
	if !ok {
		s.println("(not found)")

		return nil
	}

	s.println("removed", v)

	return nil
}

func (s *session) removeByValue(args []string) error {
	err := want(args, 2, "rmv")
	if err != nil {
		return err
	}

	matches := s.table.RemoveByValue(parseKey(args[0]), args[1])
	s.printf("matches=%d\n", matches)

	return nil
}

func (s *session) resettableInsert(args []string) error {
	err := want(args, 2, "rins")
	if err != nil {
		return err
	}

	err = s.frame.Insert(parseKey(args[0]), args[1])
	if err != nil {
		s.log.WithFields(logrus.Fields{"table": "resettable", "generation": s.frame.Generation(), "cap": s.frame.Cap()}).Warn("insert rejected")

		return err
	}

	s.println("ok")

	return nil
}

func (s *session) cache(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return want(args, 1, "cache")
	}

	var font uint64

	if len(args) == 2 {
		var err error

		font, err = strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("font must be an unsigned integer: %q", args[1])
		}
	}

	before := s.textures.Stats()

	tex, err := s.textures.Texture(args[0], textcache.FontID(font))
	if err != nil {
		return err
	}

	after := s.textures.Stats()

	outcome := "hit"
	if after.Misses != before.Misses {
		outcome = "miss"
	}

	if after.Evictions != before.Evictions {
		outcome += ", evicted oldest"
	}

	s.printf("texture=%d (%s)\n", tex, outcome)

	return nil
}

func (s *session) printStats() {
	ts := s.table.Stats()
	s.printf("chained:    len=%d cap=%d buckets=%d used_buckets=%d longest_chain=%d\n",
		ts.Len, s.table.Cap(), ts.Buckets, ts.UsedBuckets, ts.LongestChain)

	s.printf("resettable: len=%d cap=%d generation=%d\n",
		s.frame.Len(), s.frame.Cap(), s.frame.Generation())

	cs := s.textures.Stats()
	s.printf("cache:      len=%d cap=%d hits=%d misses=%d evictions=%d live_textures=%d\n",
		cs.Len, cs.Cap, cs.Hits, cs.Misses, cs.Evictions, s.renderer.live)
}

func (s *session) path(arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}

	return filepath.Join(s.workDir, arg)
}

func (s *session) dump(err error, args []string, snap snapshot.Snapshot) error {
	if err != nil {
		return err
	}

	err = snapshot.Write(s.path(args[0]), snap)
	if err != nil {
		return err
	}

	s.printf("wrote %d entries to %s\n", len(snap.Entries), args[0])

	return nil
}

func (s *session) restore(args []string) error {
	err := want(args, 1, "restore")
	if err != nil {
		return err
	}

	snap, err := snapshot.Read(s.path(args[0]))
	if err != nil {
		return err
	}

	var (
		insert func(uint64, string) error
		free   int
	)

	switch snap.Kind {
	case snapshot.KindChained:
		insert, free = s.table.Insert, s.table.Cap()-s.table.Len()
	case snapshot.KindResettable:
		insert, free = s.frame.Insert, s.frame.Cap()-s.frame.Len()
	default:
		return fmt.Errorf("restore %s: kind %q: %w", args[0], snap.Kind, errSnapshotKind)
	}

	// Checked up front so a failed restore never leaves a partial table.
	if len(snap.Entries) > free {
		return fmt.Errorf("restore %s: %d entries, %d free: %w", args[0], len(snap.Entries), free, hashtable.ErrFull)
	}

	err = snap.Restore(insert)
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"file": args[0], "kind": snap.Kind, "entries": len(snap.Entries)}).Debug("restored snapshot")
	s.printf("restored %d entries\n", len(snap.Entries))

	return nil
}

// close destroys every cached texture.
func (s *session) close() {
	s.textures.Close()
}
