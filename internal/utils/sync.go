// Copyright (c) 2025 ariusbronte

package utils

import (
	"sort"
	"sync"
	"sync/atomic"
)

// OrderedSyncMap is a concurrent map that remembers insertion order.
// Writers never block readers of other keys; Range and Entries may run
// while other goroutines insert.
type OrderedSyncMap[K comparable, V any] struct {
	m   sync.Map
	seq atomic.Uint64
	n   atomic.Int64
}

type orderedValue[V any] struct {
	seq   uint64
	value V
}

// OrderedEntry is one key/value pair together with its insertion sequence.
type OrderedEntry[K comparable, V any] struct {
	Seq   uint64
	Key   K
	Value V
}

func NewOrderedSyncMap[K comparable, V any]() *OrderedSyncMap[K, V] {
	return &OrderedSyncMap[K, V]{}
}

// AddIfAbsent stores value under key unless the key is already present.
// It reports whether the value was stored.
func (s *OrderedSyncMap[K, V]) AddIfAbsent(key K, value V) bool {
	if _, ok := s.m.Load(key); ok {
		return false
	}
	_, loaded := s.m.LoadOrStore(key, &orderedValue[V]{seq: s.seq.Add(1), value: value})
	if !loaded {
		s.n.Add(1)
	}
	return !loaded
}

func (s *OrderedSyncMap[K, V]) Len() int {
	return int(s.n.Load())
}

// Entries returns the current entries sorted by insertion order.
func (s *OrderedSyncMap[K, V]) Entries() []OrderedEntry[K, V] {
	entries := make([]OrderedEntry[K, V], 0, s.Len())
	s.m.Range(func(k, v any) bool {
		ov := v.(*orderedValue[V])
		entries = append(entries, OrderedEntry[K, V]{Seq: ov.seq, Key: k.(K), Value: ov.value})
		return true
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seq < entries[j].Seq
	})
	return entries
}

// Value holds a T that can be swapped atomically. The zero Value is empty.
type Value[T any] struct {
	v atomic.Pointer[T]
}

func (a *Value[T]) Store(value T) {
	a.v.Store(&value)
}

func (a *Value[T]) Load() (T, bool) {
	p := a.v.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
