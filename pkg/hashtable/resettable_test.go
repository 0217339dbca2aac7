package hashtable_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/slabtable/pkg/hashtable"
)

func newResettable(t *testing.T, capacity int) *hashtable.Resettable[string] {
	t.Helper()

	tbl, err := hashtable.NewResettable[string](capacity)
	require.NoError(t, err)

	return tbl
}

func Test_NewResettable_Returns_ErrInvalidCapacity_When_Capacity_Not_Positive(t *testing.T) {
	t.Parallel()

	_, err := hashtable.NewResettable[string](0)
	require.ErrorIs(t, err, hashtable.ErrInvalidCapacity)
}

func Test_Resettable_Starts_At_Generation_Zero_When_Created(t *testing.T) {
	t.Parallel()

	tbl := newResettable(t, 4)

	if got := tbl.Generation(); got != 0 {
		t.Errorf("Generation()=%d, want 0", got)
	}

	if got := tbl.Len(); got != 0 {
		t.Errorf("Len()=%d, want 0", got)
	}

	_, ok := tbl.Find(0)
	require.False(t, ok, "fresh table must be empty")
}

// Test_Find_Returns_NotFound_When_Key_Inserted_Before_Reset checks generation
// isolation: Reset hides every earlier insert without deleting it.
func Test_Find_Returns_NotFound_When_Key_Inserted_Before_Reset(t *testing.T) {
	t.Parallel()

	tbl := newResettable(t, 8)
	tbl.MustInsert(42, "V")

	v, ok := tbl.Find(42)
	require.True(t, ok)
	require.Equal(t, "V", v)

	tbl.Reset()

	_, ok = tbl.Find(42)
	require.False(t, ok, "reset must hide earlier inserts")

	require.NoError(t, tbl.Insert(42, "V2"))

	v, ok = tbl.Find(42)
	require.True(t, ok)
	require.Equal(t, "V2", v)

	_, ok = tbl.FindNext(42)
	require.False(t, ok, "stale node must not be chained behind the new one")
}

func Test_Insert_Returns_ErrFull_When_Arena_Exhausted_In_Generation(t *testing.T) {
	t.Parallel()

	tbl := newResettable(t, 3)

	for k := range uint64(3) {
		require.NoError(t, tbl.Insert(k, "x"))
	}

	require.ErrorIs(t, tbl.Insert(3, "x"), hashtable.ErrFull)
	require.Panics(t, func() { tbl.MustInsert(3, "x") })
}

// Test_Insert_Succeeds_Up_To_Capacity_When_Arena_Reused_After_Reset checks that
// Reset reclaims the whole arena, repeatedly.
func Test_Insert_Succeeds_Up_To_Capacity_When_Arena_Reused_After_Reset(t *testing.T) {
	t.Parallel()

	const capacity = 16

	tbl := newResettable(t, capacity)

	for gen := range 5 {
		for k := range uint64(capacity) {
			require.NoError(t, tbl.Insert(k*7+uint64(gen), "x"), "gen %d key %d", gen, k)
		}

		require.ErrorIs(t, tbl.Insert(999, "x"), hashtable.ErrFull, "gen %d", gen)

		tbl.Reset()

		if got, want := tbl.Generation(), uint32(gen+1); got != want {
			t.Fatalf("Generation()=%d, want=%d", got, want)
		}

		if got := tbl.Len(); got != 0 {
			t.Fatalf("Len()=%d after Reset, want 0", got)
		}
	}
}

func Test_Resettable_Find_And_FindNext_Yield_Newest_First_When_Key_Duplicated(t *testing.T) {
	t.Parallel()

	tbl := newResettable(t, 8)

	tbl.MustInsert(1, "a")
	tbl.MustInsert(9, "other") // same bucket as 1
	tbl.MustInsert(1, "b")
	tbl.MustInsert(1, "c")

	var got []string

	v, ok := tbl.Find(1)
	for ok {
		got = append(got, v)
		v, ok = tbl.FindNext(1)
	}

	if diff := cmp.Diff([]string{"c", "b", "a"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	buf := make([]string, 2)
	n := tbl.FindAll(1, buf)

	if diff := cmp.Diff([]string{"c", "b"}, buf[:n]); diff != "" {
		t.Errorf("FindAll mismatch (-want +got):\n%s", diff)
	}
}

func Test_Resettable_FindNext_Returns_NotFound_When_Called_After_Reset(t *testing.T) {
	t.Parallel()

	tbl := newResettable(t, 4)
	tbl.MustInsert(2, "a")
	tbl.MustInsert(2, "b")

	_, ok := tbl.Find(2)
	require.True(t, ok)

	tbl.Reset()

	_, ok = tbl.FindNext(2)
	require.False(t, ok)
}

func Test_Resettable_FindAll_Returns_Zero_When_Bucket_Stale(t *testing.T) {
	t.Parallel()

	tbl := newResettable(t, 4)
	tbl.MustInsert(3, "a")
	tbl.Reset()
	tbl.MustInsert(0, "b")

	if got := tbl.FindAll(3, make([]string, 4)); got != 0 {
		t.Errorf("FindAll=%d, want 0", got)
	}
}

func Test_Resettable_All_Yields_Current_Generation_When_Iterated(t *testing.T) {
	t.Parallel()

	tbl := newResettable(t, 4)
	tbl.MustInsert(1, "old")
	tbl.Reset()
	tbl.MustInsert(2, "x")
	tbl.MustInsert(3, "y")

	var keys []uint64

	var values []string

	for k, v := range tbl.All() {
		keys = append(keys, k)
		values = append(values, v)
	}

	if diff := cmp.Diff([]uint64{2, 3}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"x", "y"}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func Test_Resettable_Hides_Old_Buckets_When_Generation_Wraps(t *testing.T) {
	t.Parallel()

	tbl := newResettable(t, 4)
	tbl.MustInsert(1, "gen0") // bucket stamped with generation 0

	tbl.SetGenerationForTesting(math.MaxUint32)
	tbl.Reset()

	if got := tbl.Generation(); got != 0 {
		t.Fatalf("Generation()=%d, want 0 after wrap", got)
	}

	_, ok := tbl.Find(1)
	require.False(t, ok, "bucket stamped 2^32 generations ago must read as empty")
}
