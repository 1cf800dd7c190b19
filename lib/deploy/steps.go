// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/henix/lib/linemux"
	"github.com/bureau-foundation/henix/lib/remote"
)

// Session is a live connection to one node, owned by one node run.
// *remote.Session implements it.
type Session interface {
	RunCaptured(ctx context.Context, command remote.Command) (remote.Captured, error)
	RunStreamed(ctx context.Context, command remote.Command, sink linemux.Sink) (linemux.ExitStatus, error)
	Close() error
}

// Connector opens a session to a node.
type Connector interface {
	Connect(ctx context.Context, target Target) (Session, error)
}

// ConnectorFunc adapts a function to [Connector].
type ConnectorFunc func(ctx context.Context, target Target) (Session, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, target Target) (Session, error) {
	return f(ctx, target)
}

// DialerConnector connects through a shared *remote.Dialer.
func DialerConnector(dialer *remote.Dialer) Connector {
	return ConnectorFunc(func(ctx context.Context, target Target) (Session, error) {
		session, err := dialer.Connect(ctx, target.Endpoint())
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}

// Hasher computes the content hash of a local directory. Equal
// directory contents must give equal hashes.
type Hasher interface {
	Hash(ctx context.Context, directory string) (string, error)
}

// CopyRequest describes one transfer of the configuration directory.
type CopyRequest struct {
	Target Target

	// LocalDir is the directory whose contents are copied.
	LocalDir string

	// RemoteDir is the hash-addressed destination on the node. After a
	// successful copy it contains exactly the files of LocalDir, minus
	// version-control metadata.
	RemoteDir string
}

// Copier transfers the configuration directory to a node.
type Copier interface {
	Copy(ctx context.Context, session Session, request CopyRequest, logger *slog.Logger) error
}

// BuildRequest describes one remote build.
type BuildRequest struct {
	// Node is the configuration profile to build (the node's name).
	Node string

	// ConfigDir is the staged configuration on the node.
	ConfigDir string

	Mode      Mode
	ShowTrace bool
}

// Builder runs the remote build. A non-zero exit is returned as a
// status, not an error.
type Builder interface {
	Build(ctx context.Context, session Session, request BuildRequest, logger *slog.Logger) (linemux.ExitStatus, error)
}

// LinkRequest asks for Latest to point at StagingDir.
type LinkRequest struct {
	StagingDir string
	Latest     string
}

// Linker updates the "latest" pointer after a successful build.
type Linker interface {
	Link(ctx context.Context, session Session, request LinkRequest, logger *slog.Logger) error
}

// RollbackRequest carries what a rollback needs to know about the
// failure it is undoing.
type RollbackRequest struct {
	Node        string
	FailedStage Stage
	Hash        string
	StagingDir  string
	Latest      string
	Mode        Mode
	ShowTrace   bool

	// Cause is the failure being rolled back from.
	Cause error
}

// Rollbacker restores a node after a failed copy or build. It only ever
// touches the given session.
type Rollbacker interface {
	Rollback(ctx context.Context, session Session, request RollbackRequest, logger *slog.Logger) error
}

// Steps gathers the collaborators a node run drives.
type Steps struct {
	Connector  Connector
	Hasher     Hasher
	Copier     Copier
	Builder    Builder
	Linker     Linker
	Rollbacker Rollbacker
}
