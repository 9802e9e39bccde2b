// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package memhost

import "github.com/gogpu/pgview"

// Host groups one of each loopback collaborator.
type Host struct {
	Store     *Store
	Pipeline  *Pipeline
	Commands  *Commands
	Resources *Resources
}

// New creates a complete loopback host.
func New() *Host {
	return &Host{
		Store:     NewStore(),
		Pipeline:  NewPipeline(),
		Commands:  NewCommands(),
		Resources: NewResources(),
	}
}

// Host returns the collaborators in the form pgview.NewScheduler takes.
func (h *Host) Host() pgview.Host {
	return pgview.Host{
		Store:     h.Store,
		Pipeline:  h.Pipeline,
		Commands:  h.Commands,
		Resources: h.Resources,
	}
}
