// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package memhost

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/pgview"
)

// ErrUnknownCommand is returned by Dispatch for unregistered names.
var ErrUnknownCommand = errors.New("memhost: unknown command")

// Commands is a name → handler registry.
type Commands struct {
	mu       sync.RWMutex
	handlers map[string]pgview.CommandHandler
}

// NewCommands creates an empty registry.
func NewCommands() *Commands {
	return &Commands{handlers: make(map[string]pgview.CommandHandler)}
}

// AddHandler registers h under name. Names are unique.
func (c *Commands) AddHandler(name string, h pgview.CommandHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.handlers[name]; ok {
		return fmt.Errorf("memhost: command %q already registered", name)
	}
	c.handlers[name] = h
	return nil
}

// RemoveHandler unregisters name.
func (c *Commands) RemoveHandler(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, name)
}

// Dispatch runs the handler registered under name on the calling goroutine.
func (c *Commands) Dispatch(name string, session uuid.UUID, args map[string]string) (map[string]string, error) {
	c.mu.RLock()
	h, ok := c.handlers[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return h(session, args)
}
