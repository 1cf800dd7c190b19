// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nixos

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/bureau-foundation/henix/lib/deploy"
	"github.com/bureau-foundation/henix/lib/remote"
)

// Linker points the "latest" link at a freshly built staging
// directory. The link is created under a temporary name and renamed
// into place, so readers see either the old target or the new one.
type Linker struct{}

// Link replaces request.Latest with a symlink to request.StagingDir.
func (Linker) Link(ctx context.Context, session deploy.Session, request deploy.LinkRequest, logger *slog.Logger) error {
	temporary := path.Join(path.Dir(request.Latest), "."+path.Base(request.Latest)+".tmp")
	script := fmt.Sprintf("ln -sfn %s %s && mv -T %s %s",
		remote.Quote(request.StagingDir), remote.Quote(temporary),
		remote.Quote(temporary), remote.Quote(request.Latest))

	if _, err := runChecked(ctx, session, "link", remote.Shell(script)); err != nil {
		return fmt.Errorf("linking %s to %s: %w", request.Latest, request.StagingDir, err)
	}
	logger.Debug("linked latest configuration", "latest", request.Latest, "target", request.StagingDir)
	return nil
}

// ReadLink returns the target of the symlink at link on the node, or
// "" if there is no such link.
func ReadLink(ctx context.Context, session deploy.Session, link string) (string, error) {
	captured, err := session.RunCaptured(ctx, remote.Command{Name: "readlink", Args: []string{link}})
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", link, err)
	}
	if !captured.Status.Success() {
		return "", nil
	}
	return strings.TrimRight(string(captured.Stdout), "\n"), nil
}
