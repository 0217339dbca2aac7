package testutil

// Seed bundles a human-readable name with seed bytes.
//
// Curated seeds are hand-crafted byte sequences that decode, through
// [OpGenerator] with [DefaultOpGenConfig], into scenarios random fuzzing
// would take a while to find.
type Seed struct {
	Name string
	Data []byte
}

// SeedBuilder encodes operations into the byte layout [OpGenerator] reads.
type SeedBuilder struct {
	data []byte
}

// NewSeedBuilder returns an empty builder.
func NewSeedBuilder() *SeedBuilder {
	return &SeedBuilder{}
}

// Op appends one operation.
func (b *SeedBuilder) Op(kind OpKind, key uint64, value int) *SeedBuilder {
	b.data = append(b.data, byte(kind), byte(key), byte(value))

	return b
}

func (b *SeedBuilder) Insert(key uint64, value int) *SeedBuilder {
	return b.Op(OpInsert, key, value)
}

func (b *SeedBuilder) Find(key uint64) *SeedBuilder {
	return b.Op(OpFind, key, 0)
}

func (b *SeedBuilder) FindNext(key uint64) *SeedBuilder {
	return b.Op(OpFindNext, key, 0)
}

func (b *SeedBuilder) FindAll(key uint64) *SeedBuilder {
	return b.Op(OpFindAll, key, 0)
}

func (b *SeedBuilder) Remove(key uint64) *SeedBuilder {
	return b.Op(OpRemove, key, 0)
}

func (b *SeedBuilder) RemoveByValue(key uint64, value int) *SeedBuilder {
	return b.Op(OpRemoveByValue, key, value)
}

func (b *SeedBuilder) Reset() *SeedBuilder {
	return b.Op(OpReset, 0, 0)
}

// Bytes returns the encoded seed.
func (b *SeedBuilder) Bytes() []byte {
	return b.data
}

// CuratedSeeds returns all curated seeds with descriptive names.
func CuratedSeeds() []Seed {
	return []Seed{
		{Name: "duplicate_key_walk", Data: SeedDuplicateKeyWalk()},
		{Name: "aliased_buckets", Data: SeedAliasedBuckets()},
		{Name: "remove_under_cursor", Data: SeedRemoveUnderCursor()},
		{Name: "remove_by_value_count", Data: SeedRemoveByValueCount()},
		{Name: "reset_between_fills", Data: SeedResetBetweenFills()},
	}
}

// SeedDuplicateKeyWalk inserts three values under one key and walks them
// with find/findNext past the end.
func SeedDuplicateKeyWalk() []byte {
	return NewSeedBuilder().
		Insert(5, 0).
		Insert(5, 1).
		Insert(5, 2).
		Find(5).
		FindNext(5).
		FindNext(5).
		FindNext(5).
		Bytes()
}

// SeedAliasedBuckets inserts keys 0, 4, 8 which share a bucket in a
// four-bucket table, then looks up the middle one.
func SeedAliasedBuckets() []byte {
	return NewSeedBuilder().
		Insert(0, 0).
		Insert(4, 1).
		Insert(8, 2).
		Find(4).
		FindNext(4).
		FindAll(0).
		Bytes()
}

// SeedRemoveUnderCursor removes the node the cursor points at and then
// continues the walk.
func SeedRemoveUnderCursor() []byte {
	return NewSeedBuilder().
		Insert(3, 0).
		Insert(3, 1).
		Find(3).
		Remove(3).
		FindNext(3).
		Find(3).
		FindNext(3).
		Bytes()
}

// SeedRemoveByValueCount checks the "last occupant" count on a key with two
// values.
func SeedRemoveByValueCount() []byte {
	return NewSeedBuilder().
		Insert(7, 1).
		Insert(7, 2).
		RemoveByValue(7, 2).
		Find(7).
		RemoveByValue(7, 1).
		Find(7).
		RemoveByValue(7, 1).
		Bytes()
}

// SeedResetBetweenFills inserts, resets and inserts the same keys again.
func SeedResetBetweenFills() []byte {
	return NewSeedBuilder().
		Insert(1, 0).
		Insert(2, 1).
		Find(1).
		Reset().
		FindNext(1).
		Find(1).
		Insert(1, 2).
		Find(1).
		Bytes()
}
