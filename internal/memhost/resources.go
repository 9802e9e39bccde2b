// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package memhost

import (
	"sync"

	"github.com/google/uuid"
)

// Resource is stored content.
type Resource struct {
	ContentType string
	Data        []byte
}

// Resources keeps content under random UUID keys.
type Resources struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Resource
}

// NewResources creates an empty resource store.
func NewResources() *Resources {
	return &Resources{items: make(map[uuid.UUID]Resource)}
}

// Store keeps a copy of data and returns its key.
func (r *Resources) Store(contentType string, data []byte) (uuid.UUID, error) {
	key, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[key] = Resource{ContentType: contentType, Data: append([]byte(nil), data...)}
	return key, nil
}

// Load returns the resource stored under key.
func (r *Resources) Load(key uuid.UUID) (Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[key]
	return res, ok
}

// Len returns the number of stored resources.
func (r *Resources) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
