package world_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/slabtable/internal/world"
	"github.com/calvinalkan/slabtable/pkg/hashtable"
	"github.com/calvinalkan/slabtable/pkg/spatial"
)

func Test_LoadPlacements_Returns_Rows_Ordered_By_ID_When_Database_Written(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world.sqlite")
	in := []world.Placement{
		{ID: 3, Pos: spatial.Coord{X: 1, Y: 0, Z: 1}},
		{ID: 1, Pos: spatial.Coord{X: -4, Y: 2, Z: 9}},
		{ID: 2, Pos: spatial.Coord{X: 1, Y: 0, Z: 1}},
	}

	require.NoError(t, world.WritePlacements(t.Context(), path, in))

	got, err := world.LoadPlacements(t.Context(), path)
	require.NoError(t, err)

	want := []world.Placement{in[1], in[2], in[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}
}

func Test_LoadPlacements_Reads_Database_When_Path_Has_URI_Characters(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "maps?v=2#draft 100%", "world?.sqlite")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))

	in := []world.Placement{{ID: 1, Pos: spatial.Coord{X: 5, Y: 1, Z: -2}}}
	require.NoError(t, world.WritePlacements(t.Context(), path, in))

	_, err := os.Stat(path)
	require.NoError(t, err, "database must be created at the literal path")

	got, err := world.LoadPlacements(t.Context(), path)
	require.NoError(t, err)

	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}
}

func Test_WritePlacements_Replaces_Row_When_ID_Exists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "world.sqlite")

	require.NoError(t, world.WritePlacements(t.Context(), path, []world.Placement{{ID: 1}}))
	require.NoError(t, world.WritePlacements(t.Context(), path, []world.Placement{{ID: 1, Pos: spatial.Coord{X: 5}}}))

	got, err := world.LoadPlacements(t.Context(), path)
	require.NoError(t, err)
	require.Equal(t, []world.Placement{{ID: 1, Pos: spatial.Coord{X: 5}}}, got)
}

func Test_LoadPlacements_Returns_Error_When_File_Missing(t *testing.T) {
	t.Parallel()

	_, err := world.LoadPlacements(t.Context(), filepath.Join(t.TempDir(), "missing.sqlite"))
	require.Error(t, err)
}

func Test_Populate_Groups_Entities_By_Cell_When_Placed(t *testing.T) {
	t.Parallel()

	idx, err := spatial.NewIndex[int64](8)
	require.NoError(t, err)

	shared := spatial.Coord{X: 1, Y: 0, Z: 1}
	placed, err := world.Populate(idx, []world.Placement{
		{ID: 1, Pos: shared},
		{ID: 2, Pos: spatial.Coord{X: 2}},
		{ID: 3, Pos: shared},
	})
	require.NoError(t, err)
	require.Equal(t, 3, placed)
	require.Equal(t, 2, idx.Occupancy(shared))
}

func Test_Populate_Reports_Partial_Count_When_Index_Full(t *testing.T) {
	t.Parallel()

	idx, err := spatial.NewIndex[int64](2)
	require.NoError(t, err)

	placed, err := world.Populate(idx, []world.Placement{{ID: 1}, {ID: 2}, {ID: 3}})
	require.ErrorIs(t, err, hashtable.ErrFull)
	require.Equal(t, 2, placed)
}
