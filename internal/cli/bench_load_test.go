package cli_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/slabtable/internal/cli"
	"github.com/calvinalkan/slabtable/internal/snapshot"
	"github.com/calvinalkan/slabtable/internal/world"
	"github.com/calvinalkan/slabtable/pkg/spatial"
)

var timing = regexp.MustCompile(`elapsed=\S+ ops/sec=\d+`)

func Test_Bench_Prints_Same_Counters_When_Seed_Repeated(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	args := []string{"--buckets", "64", "--resettable-capacity", "32", "--cache-capacity", "8", "bench", "--ops", "2000", "--seed", "7"}

	first := timing.ReplaceAllString(c.MustRun(args...), "")
	second := timing.ReplaceAllString(c.MustRun(args...), "")

	require.Equal(t, first, second)

	for _, name := range []string{"chained", "resettable", "spatial", "textcache"} {
		cli.AssertContains(t, first, name+" ")
	}

	cli.AssertContains(t, first, "leaked=0")
	cli.AssertContains(t, first, "entities=32")
}

func Test_Bench_Rejects_Ops_When_Not_Positive(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("bench", "--ops", "0")
	cli.AssertContains(t, stderr, "--ops must be >= 1")
}

func Test_Load_Prints_Cell_Occupancy_When_Database_Seeded(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	err := world.WritePlacements(t.Context(), c.Path("world.sqlite"), []world.Placement{
		{ID: 1, Pos: spatial.Coord{X: 2, Y: 0, Z: 1}},
		{ID: 2, Pos: spatial.Coord{X: -1, Y: 0, Z: 0}},
		{ID: 3, Pos: spatial.Coord{X: 2, Y: 0, Z: 1}},
	})
	require.NoError(t, err)

	stdout := c.MustRun("load", "world.sqlite", "--snapshot", "cells.json")

	want := strings.Join([]string{
		"(-1,0,0) 1",
		"(2,0,1) 2",
		"entities=3 cells=2",
	}, "\n")
	require.Equal(t, want, stdout)

	snap, err := snapshot.Read(c.Path("cells.json"))
	require.NoError(t, err)
	require.Equal(t, snapshot.KindSpatial, snap.Kind)
	require.Equal(t, []snapshot.Entry{
		{Key: spatial.Coord{X: 2, Z: 1}.Key(), Value: "1"},
		{Key: spatial.Coord{X: -1}.Key(), Value: "2"},
		{Key: spatial.Coord{X: 2, Z: 1}.Key(), Value: "3"},
	}, snap.Entries)
}

func Test_Load_Warns_When_Index_Too_Small(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("seed", "world.sqlite", "--count", "5")

	stdout, stderr, code := c.Run("--buckets", "3", "load", "world.sqlite")

	if got, want := code, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	cli.AssertContains(t, stdout, "entities=3")
	cli.AssertContains(t, stderr, "warning: loaded 3 of 5 entities")
	cli.AssertContains(t, stderr, "spatial index full")
}

func Test_Load_Fails_When_Database_Argument_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("load")
	cli.AssertContains(t, stderr, "database path is required")
}

func Test_Seed_Writes_Requested_Count_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("seed", "w.sqlite", "--count", "40", "--extent", "4", "--seed", "3")
	cli.AssertContains(t, stdout, "seeded 40 entities into w.sqlite")

	placements, err := world.LoadPlacements(t.Context(), c.Path("w.sqlite"))
	require.NoError(t, err)
	require.Len(t, placements, 40)

	for _, p := range placements {
		require.GreaterOrEqual(t, p.Pos.X, 0)
		require.Less(t, p.Pos.X, 4)
		require.Equal(t, 0, p.Pos.Y)
	}
}
