// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"path"
	"time"

	"github.com/bureau-foundation/henix/lib/remote"
)

// Target is one deployable node. Values are snapshots taken once at the
// start of a run and never modified.
type Target struct {
	// Name is the node's unique identity in the node map.
	Name string

	// Address is the host to connect to.
	Address string

	// Port is the SSH port; zero means the transport default.
	Port uint16

	// RollbackOnFailure enables rollback after a Copying or Building
	// failure on this node.
	RollbackOnFailure bool
}

// Endpoint returns the connection parameters for lib/remote.
func (t Target) Endpoint() remote.Endpoint {
	return remote.Endpoint{Name: t.Name, Address: t.Address, Port: t.Port}
}

// Mode selects when the built configuration takes effect.
type Mode string

const (
	// ModeSwitch activates the configuration immediately.
	ModeSwitch Mode = "switch"

	// ModeBoot makes the configuration the default for the next boot
	// without activating it now.
	ModeBoot Mode = "boot"
)

// Options are the process-wide deployment settings, read-only for the
// duration of a run.
type Options struct {
	// BootOnly applies the configuration on next boot instead of now.
	BootOnly bool

	// ShowTrace asks the build for verbose error traces.
	ShowTrace bool

	// Targets restricts the run to these node names. Nil means every
	// node. Every name must exist in the node map.
	Targets []string

	// ConfigDir is the local configuration directory. Read
	// concurrently by every node run; never modified.
	ConfigDir string

	// Parallelism caps the number of node runs in flight. Zero means
	// no cap.
	Parallelism int

	// NodeTimeout bounds each node run from connect through link.
	// Zero means no deadline. Rollback is not bounded by it.
	NodeTimeout time.Duration
}

// Mode returns the build mode implied by BootOnly.
func (o Options) Mode() Mode {
	if o.BootOnly {
		return ModeBoot
	}
	return ModeSwitch
}

// DefaultRemoteRoot is where configurations are staged on nodes.
const DefaultRemoteRoot = "/etc/henix"

// Layout names the remote paths a deployment uses.
type Layout struct {
	// Root holds one directory per configuration hash plus the
	// "latest" link.
	Root string
}

// Staging returns the hash-addressed directory for a configuration.
func (l Layout) Staging(hash string) string {
	return path.Join(l.Root, hash)
}

// Latest returns the path of the link to the last successful build.
func (l Layout) Latest() string {
	return path.Join(l.Root, "latest")
}
