// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package memhost is an in-process loopback host for pgview: state store,
// view pipeline, command registry and resource store, all held in memory.
// It backs the pgviewd command and the tests.
package memhost

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Store is a flat path → value map with per-path change subscriptions.
// Subscribers run synchronously on the goroutine calling Set, after the value
// is stored and outside the store's lock, and only when the value changed.
type Store struct {
	mu     sync.RWMutex
	values map[string]any
	subs   map[string]map[int]func(path string, value any)
	nextID int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		values: make(map[string]any),
		subs:   make(map[string]map[int]func(string, any)),
	}
}

// Get returns the value at path.
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[path]
	return v, ok
}

// Set stores value at path and notifies subscribers if it changed.
func (s *Store) Set(path string, value any) error {
	s.mu.Lock()
	old, existed := s.values[path]
	if existed && reflect.DeepEqual(old, value) {
		s.mu.Unlock()
		return nil
	}
	s.values[path] = value
	fns := make([]func(string, any), 0, len(s.subs[path]))
	ids := make([]int, 0, len(s.subs[path]))
	for id := range s.subs[path] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.subs[path][id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(path, value)
	}
	return nil
}

// Subscribe registers fn for changes at path.
func (s *Store) Subscribe(path string, fn func(path string, value any)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if s.subs[path] == nil {
		s.subs[path] = make(map[int]func(string, any))
	}
	s.subs[path][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[path], id)
			if len(s.subs[path]) == 0 {
				delete(s.subs, path)
			}
		})
	}
}

// Subscribers returns how many subscriptions path has.
func (s *Store) Subscribers(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[path])
}

// Keys returns every stored path below prefix, sorted.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
