package cmap

// Range iterates over all key-value pairs.
// The callback returns false to stop iteration.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, shard := range m.shards {
		shard.mu.RLock()
		for k, v := range shard.items {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Count())
	m.Range(func(key K, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Pop removes and returns the value for a key.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	val, ok := shard.items[key]
	if ok {
		delete(shard.items, key)
	}
	return val, ok
}

// DeleteIf removes every entry for which pred returns true and returns
// the number of entries removed. Each shard is write-locked in turn.
func (m *Map[K, V]) DeleteIf(pred func(key K, value V) bool) int {
	removed := 0
	for _, shard := range m.shards {
		shard.mu.Lock()
		for k, v := range shard.items {
			if pred(k, v) {
				delete(shard.items, k)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}

// MinBy returns the entry with the smallest score, e.g. the oldest
// entry for eviction. ok is false on an empty map.
func (m *Map[K, V]) MinBy(score func(value V) int64) (key K, value V, ok bool) {
	var best int64
	m.Range(func(k K, v V) bool {
		s := score(v)
		if !ok || s < best {
			key, value, best, ok = k, v, s, true
		}
		return true
	})
	return key, value, ok
}
