package cli

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/slabtable/internal/config"
	"github.com/calvinalkan/slabtable/internal/world"
	"github.com/calvinalkan/slabtable/pkg/spatial"
)

var errCountInvalid = errors.New("--count and --extent must be >= 1")

// SeedCmd returns the seed command.
func SeedCmd(cfg *config.Config, log *logrus.Logger) *Command {
	flags := flag.NewFlagSet("seed", flag.ContinueOnError)
	count := flags.IntP("count", "n", 1000, "Number of entities")
	extent := flags.IntP("extent", "e", 32, "Entities are placed in [0, extent) on x and z")
	seed := flags.Uint64("seed", 1, "Random seed")

	return &Command{
		Name:    "seed",
		Args:    "<db.sqlite>",
		NArgs:   1,
		ArgsErr: errDatabaseRequired,
		Flags:   flags,
		Short:   "Write random entity placements to a SQLite database",
		Long: `Create (or extend) the entities table of a SQLite database with
--count entities at random cells on the y=0 plane. Ids start at 1; rows
with the same id are replaced.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if *count < 1 || *extent < 1 {
				return errCountInvalid
			}

			rng := rand.New(rand.NewPCG(*seed, *seed+1))

			placements := make([]world.Placement, *count)
			for i := range placements {
				placements[i] = world.Placement{
					ID:  int64(i + 1),
					Pos: spatial.Coord{X: rng.IntN(*extent), Z: rng.IntN(*extent)},
				}
			}

			path := resolve(cfg, args[0])

			err := world.WritePlacements(ctx, path, placements)
			if err != nil {
				return err
			}

			log.WithFields(logrus.Fields{"db": path, "entities": *count}).Debug("seeded")
			o.Printf("seeded %d entities into %s\n", *count, args[0])

			return nil
		},
	}
}
