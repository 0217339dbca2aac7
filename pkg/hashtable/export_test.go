package hashtable

// Export internal state for testing.
// This file is only compiled during tests.

// SetGenerationForTesting forces the generation counter without touching
// bucket stamps, so tests can reach the wrap-around without 2^32 resets.
func (t *Resettable[V]) SetGenerationForTesting(gen uint32) {
	t.tick = gen
}
