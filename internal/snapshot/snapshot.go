// Package snapshot saves and restores the contents of a table as a JSON
// document guarded by an xxh3 checksum.
//
// Entries are stored oldest first so that replaying them with Insert
// reproduces every chain in the same newest-first order.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/natefinch/atomic"
	"github.com/sugawarayuuta/sonnet"
	"github.com/zeebo/xxh3"

	"github.com/calvinalkan/slabtable/pkg/hashtable"
)

// Version is the current snapshot format.
const Version = 1

// Table kinds.
const (
	KindChained    = "chained"
	KindResettable = "resettable"
	KindSpatial    = "spatial"
)

// Snapshot errors.
var (
	ErrChecksum = errors.New("snapshot: checksum mismatch")
	ErrVersion  = errors.New("snapshot: unsupported version")
)

// Entry is one key/value pair.
type Entry struct {
	Key   uint64 `json:"key"`
	Value string `json:"value"`
}

// Snapshot is the on-disk document.
type Snapshot struct {
	Version  int     `json:"version"`
	Kind     string  `json:"kind"`
	Entries  []Entry `json:"entries"`
	Checksum uint64  `json:"checksum"`
}

// FromTable captures t. Chains are reversed so each key's oldest value comes
// first.
func FromTable(t *hashtable.Table[string]) Snapshot {
	entries := make([]Entry, 0, t.Len())
	for k, v := range t.All() {
		entries = append(entries, Entry{Key: k, Value: v})
	}

	slices.Reverse(entries)

	return Snapshot{Version: Version, Kind: KindChained, Entries: entries}
}

// FromResettable captures the current generation of t in insertion order.
func FromResettable(t *hashtable.Resettable[string]) Snapshot {
	entries := make([]Entry, 0, t.Len())
	for k, v := range t.All() {
		entries = append(entries, Entry{Key: k, Value: v})
	}

	return Snapshot{Version: Version, Kind: KindResettable, Entries: entries}
}

// Sum returns the checksum of the entries: xxh3 over each key as 8
// little-endian bytes followed by the value's length and bytes.
func (s *Snapshot) Sum() uint64 {
	h := xxh3.New()

	var buf [8]byte

	for _, e := range s.Entries {
		binary.LittleEndian.PutUint64(buf[:], e.Key)
		_, _ = h.Write(buf[:])

		binary.LittleEndian.PutUint64(buf[:], uint64(len(e.Value)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(e.Value))
	}

	return h.Sum64()
}

// Restore replays the entries through insert, oldest first.
func (s *Snapshot) Restore(insert func(key uint64, value string) error) error {
	for i, e := range s.Entries {
		err := insert(e.Key, e.Value)
		if err != nil {
			return fmt.Errorf("restore entry %d (key %d): %w", i, e.Key, err)
		}
	}

	return nil
}

// Write stamps the checksum and writes s to path atomically.
func Write(path string, s Snapshot) error {
	s.Version = Version
	s.Checksum = s.Sum()

	data, err := sonnet.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = atomic.WriteFile(path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	return nil
}

// Read loads and verifies the snapshot at path.
//
// Possible errors:
//   - [ErrVersion]: written by an incompatible format version
//   - [ErrChecksum]: entries do not match the stored checksum
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var s Snapshot

	err = sonnet.Unmarshal(data, &s)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if s.Version != Version {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}

	if got := s.Sum(); got != s.Checksum {
		return Snapshot{}, fmt.Errorf("%w: stored %x, computed %x", ErrChecksum, s.Checksum, got)
	}

	return s, nil
}
