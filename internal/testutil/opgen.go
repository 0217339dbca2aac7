package testutil

import "fmt"

// OpKind names a table operation.
type OpKind uint8

const (
	OpInsert OpKind = iota
	OpFind
	OpFindNext
	OpFindAll
	OpRemove
	OpRemoveByValue
	OpReset

	opKindCount
)

var opNames = [...]string{
	OpInsert:        "insert",
	OpFind:          "find",
	OpFindNext:      "findNext",
	OpFindAll:       "findAll",
	OpRemove:        "remove",
	OpRemoveByValue: "removeByValue",
	OpReset:         "reset",
}

func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}

	return fmt.Sprintf("OpKind(%d)", k)
}

// Op is one generated operation. Value is an index into the caller's value
// pool so that repeated values (needed by removeByValue) are common.
type Op struct {
	Kind  OpKind
	Key   uint64
	Value int
}

func (o Op) String() string {
	return fmt.Sprintf("%s(key=%d, value=%d)", o.Kind, o.Key, o.Value)
}

// OpGenConfig bounds the generated keys and values.
type OpGenConfig struct {
	// KeySpace is the number of distinct keys (at most 256).
	KeySpace int
	// ValueSpace is the number of distinct values (at most 256).
	ValueSpace int
}

// DefaultOpGenConfig returns the config used by fuzz tests and curated seeds.
func DefaultOpGenConfig() OpGenConfig {
	return OpGenConfig{KeySpace: 24, ValueSpace: 4}
}

// OpGenerator derives operations from fuzz bytes. Each operation consumes
// three bytes: kind, key, value.
type OpGenerator struct {
	stream *ByteStream
	cfg    OpGenConfig
}

// NewOpGenerator returns a generator reading from fuzzBytes.
func NewOpGenerator(fuzzBytes []byte, cfg OpGenConfig) *OpGenerator {
	return &OpGenerator{stream: NewByteStream(fuzzBytes), cfg: cfg}
}

// HasMore reports whether unread fuzz bytes remain.
func (g *OpGenerator) HasMore() bool {
	return g.stream.HasMore()
}

// NextOp returns the next operation.
func (g *OpGenerator) NextOp() Op {
	return Op{
		Kind:  OpKind(g.stream.NextInt(int(opKindCount))),
		Key:   g.stream.NextKey(g.cfg.KeySpace),
		Value: g.stream.NextInt(g.cfg.ValueSpace),
	}
}
