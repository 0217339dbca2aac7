package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/slabtable/internal/config"
	"github.com/calvinalkan/slabtable/internal/snapshot"
	"github.com/calvinalkan/slabtable/internal/world"
	"github.com/calvinalkan/slabtable/pkg/spatial"
)

var errDatabaseRequired = errors.New("database path is required")

// LoadCmd returns the load command.
func LoadCmd(cfg *config.Config, log *logrus.Logger) *Command {
	flags := flag.NewFlagSet("load", flag.ContinueOnError)
	snapPath := flags.StringP("snapshot", "s", "", "Write the populated index to this snapshot file")

	return &Command{
		Name:    "load",
		Args:    "<db.sqlite>",
		NArgs:   1,
		ArgsErr: errDatabaseRequired,
		Flags:   flags,
		Short:   "Load entity placements into the spatial index",
		Long: `Read every row of the entities table (id, x, y, z) from a SQLite
database into a spatial index with 'buckets' capacity, then print how many
entities share each occupied cell.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execLoad(ctx, o, cfg, log, resolve(cfg, args[0]), resolveOptional(cfg, *snapPath))
		},
	}
}

func resolve(cfg *config.Config, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(cfg.EffectiveCwd, path)
}

func resolveOptional(cfg *config.Config, path string) string {
	if path == "" {
		return ""
	}

	return resolve(cfg, path)
}

func execLoad(ctx context.Context, o *IO, cfg *config.Config, log *logrus.Logger, dbPath, snapPath string) error {
	placements, err := world.LoadPlacements(ctx, dbPath)
	if err != nil {
		return err
	}

	idx, err := spatial.NewIndex[int64](cfg.Buckets)
	if err != nil {
		return err
	}

	placed, err := world.Populate(idx, placements)
	if err != nil {
		log.WithFields(logrus.Fields{"placed": placed, "total": len(placements), "cap": idx.Cap()}).Warn("spatial index full")
		o.Warn(fmt.Sprintf("loaded %d of %d entities", placed, len(placements)), "raise 'buckets' in the config or pass a smaller database")
	}

	log.WithFields(logrus.Fields{"db": dbPath, "entities": placed}).Debug("loaded placements")

	counts := map[spatial.Coord]int{}
	for pos := range idx.Cells {
		counts[pos]++
	}

	cells := make([]spatial.Coord, 0, len(counts))
	for pos := range counts {
		cells = append(cells, pos)
	}

	slices.SortFunc(cells, func(a, b spatial.Coord) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.Z, b.Z), cmp.Compare(a.X, b.X))
	})

	for _, pos := range cells {
		o.Printf("%v %d\n", pos, counts[pos])
	}

	o.Printf("entities=%d cells=%d\n", placed, len(cells))

	if snapPath == "" {
		return nil
	}

	snap := snapshot.Snapshot{Kind: snapshot.KindSpatial, Entries: make([]snapshot.Entry, 0, placed)}
	for _, p := range placements[:placed] {
		snap.Entries = append(snap.Entries, snapshot.Entry{Key: p.Pos.Key(), Value: strconv.FormatInt(p.ID, 10)})
	}

	err = snapshot.Write(snapPath, snap)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"file": snapPath, "entries": len(snap.Entries)}).Debug("wrote snapshot")

	return nil
}
