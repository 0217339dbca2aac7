package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/slabtable/internal/config"
	"github.com/calvinalkan/slabtable/pkg/hashtable"
	"github.com/calvinalkan/slabtable/pkg/spatial"
	"github.com/calvinalkan/slabtable/pkg/textcache"
)

const ctxCheckEvery = 4096

var errOpsInvalid = errors.New("--ops must be >= 1")

// benchResult is one line of bench output.
type benchResult struct {
	name    string
	ops     int
	elapsed time.Duration
	detail  string
}

// BenchCmd returns the bench command.
func BenchCmd(cfg *config.Config, log *logrus.Logger) *Command {
	flags := flag.NewFlagSet("bench", flag.ContinueOnError)
	ops := flags.IntP("ops", "n", 100_000, "Operations per structure")
	seed := flags.Uint64("seed", 1, "Random seed; equal seeds give equal workloads")

	return &Command{
		Name:  "bench",
		Flags: flags,
		Short: "Run a deterministic workload over every structure",
		Long: `Run a seeded workload against the chained table, the resettable table,
the spatial index and the text cache, each sized from the configuration,
and print throughput plus the counters each structure ends with.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			if *ops < 1 {
				return errOpsInvalid
			}

			return execBench(ctx, o, cfg, log, *ops, *seed)
		},
	}
}

func execBench(ctx context.Context, o *IO, cfg *config.Config, log *logrus.Logger, ops int, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	steps := []func(context.Context, *rand.Rand, *config.Config, int) (benchResult, error){
		benchChained,
		benchResettable,
		benchSpatial,
		benchTextCache,
	}

	for _, step := range steps {
		res, err := step(ctx, rng, cfg, ops)
		if err != nil {
			return err
		}

		rate := float64(res.ops) / max(res.elapsed.Seconds(), 1e-9)

		log.WithFields(logrus.Fields{"structure": res.name, "ops": res.ops, "elapsed": res.elapsed}).Debug("bench step done")
		o.Printf("%-10s ops=%d elapsed=%v ops/sec=%.0f\n", res.name, res.ops, res.elapsed.Round(time.Microsecond), rate)
		o.Printf("%-10s %s\n", "", res.detail)
	}

	return nil
}

func benchChained(ctx context.Context, rng *rand.Rand, cfg *config.Config, ops int) (benchResult, error) {
	table, err := hashtable.New[uint64](cfg.Buckets)
	if err != nil {
		return benchResult{}, err
	}

	keySpace := uint64(cfg.Buckets) * 2
	hits, removed := 0, 0
	start := time.Now()

	for i := range ops {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return benchResult{}, ctx.Err()
		}

		k := rng.Uint64N(keySpace)

		switch r := rng.IntN(10); {
		case r < 5:
			if table.Len() == table.Cap() {
				if _, ok := table.Remove(k); ok {
					removed++
				}

				continue
			}

			table.MustInsert(k, uint64(i))
		case r < 8:
			if _, ok := table.Find(k); ok {
				hits++
			}
		default:
			if _, ok := table.Remove(k); ok {
				removed++
			}
		}
	}

	st := table.Stats()

	return benchResult{
		name:    "chained",
		ops:     ops,
		elapsed: time.Since(start),
		detail: fmt.Sprintf("hits=%d removed=%d len=%d used_buckets=%d longest_chain=%d",
			hits, removed, st.Len, st.UsedBuckets, st.LongestChain),
	}, nil
}

func benchResettable(ctx context.Context, rng *rand.Rand, cfg *config.Config, ops int) (benchResult, error) {
	table, err := hashtable.NewResettable[uint64](cfg.ResettableCapacity)
	if err != nil {
		return benchResult{}, err
	}

	keySpace := uint64(cfg.ResettableCapacity)
	hits := 0
	start := time.Now()

	for i := range ops {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return benchResult{}, ctx.Err()
		}

		if table.Len() == table.Cap() {
			table.Reset()
		}

		k := rng.Uint64N(keySpace)
		table.MustInsert(k, uint64(i))

		if _, ok := table.Find(rng.Uint64N(keySpace)); ok {
			hits++
		}
	}

	return benchResult{
		name:    "resettable",
		ops:     ops,
		elapsed: time.Since(start),
		detail:  fmt.Sprintf("hits=%d generations=%d len=%d", hits, table.Generation(), table.Len()),
	}, nil
}

func benchSpatial(ctx context.Context, rng *rand.Rand, cfg *config.Config, ops int) (benchResult, error) {
	idx, err := spatial.NewIndex[int64](cfg.Buckets)
	if err != nil {
		return benchResult{}, err
	}

	const extent = 16

	positions := make([]spatial.Coord, max(cfg.Buckets/2, 1))
	for id := range positions {
		positions[id] = spatial.Coord{X: rng.IntN(extent), Z: rng.IntN(extent)}

		err = idx.Place(positions[id], int64(id))
		if err != nil {
			return benchResult{}, err
		}
	}

	emptied := 0
	start := time.Now()

	for i := range ops {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return benchResult{}, ctx.Err()
		}

		id := rng.IntN(len(positions))
		from := positions[id]
		to := spatial.Coord{X: from.X + rng.IntN(3) - 1, Y: from.Y, Z: from.Z + rng.IntN(3) - 1}

		left, err := idx.Move(int64(id), from, to)
		if err != nil {
			return benchResult{}, err
		}

		if left {
			emptied++
		}

		positions[id] = to
	}

	st := idx.Stats()

	return benchResult{
		name:    "spatial",
		ops:     ops,
		elapsed: time.Since(start),
		detail:  fmt.Sprintf("entities=%d emptied_cells=%d longest_chain=%d", idx.Len(), emptied, st.LongestChain),
	}, nil
}

// countingRenderer stands in for a GPU renderer during benchmarks.
type countingRenderer struct {
	next textcache.Texture
	live int
}

func (r *countingRenderer) Render(string, textcache.FontID) (textcache.Texture, error) {
	r.next++
	r.live++

	return r.next, nil
}

func (r *countingRenderer) Destroy(textcache.Texture) {
	r.live--
}

func benchTextCache(ctx context.Context, rng *rand.Rand, cfg *config.Config, ops int) (benchResult, error) {
	r := &countingRenderer{}

	cache, err := textcache.New(cfg.CacheCapacity, r)
	if err != nil {
		return benchResult{}, err
	}

	labels := make([]string, cfg.CacheCapacity*2)
	for i := range labels {
		labels[i] = fmt.Sprintf("label-%d", i)
	}

	start := time.Now()

	for i := range ops {
		if i%ctxCheckEvery == 0 && ctx.Err() != nil {
			return benchResult{}, ctx.Err()
		}

		_, err = cache.Texture(labels[rng.IntN(len(labels))], textcache.FontID(rng.IntN(2)))
		if err != nil {
			return benchResult{}, err
		}
	}

	elapsed := time.Since(start)
	st := cache.Stats()

	cache.Close()

	return benchResult{
		name:    "textcache",
		ops:     ops,
		elapsed: elapsed,
		detail: fmt.Sprintf("hits=%d misses=%d evictions=%d leaked=%d",
			st.Hits, st.Misses, st.Evictions, r.live),
	}, nil
}
