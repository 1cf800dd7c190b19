// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/henix/lib/deploy"
	"github.com/bureau-foundation/henix/lib/linemux"
	"github.com/bureau-foundation/henix/lib/remote"
)

// errRemoteStopped unblocks the archive writer once the remote
// extraction has exited.
var errRemoteStopped = errors.New("remote extraction stopped reading")

// Archive copies the configuration as a compressed tar stream over the
// node's SSH session. The zero value is not usable; set Compression.
type Archive struct {
	Compression Compression
}

// Copy streams request.LocalDir into request.RemoteDir on the node.
func (a Archive) Copy(ctx context.Context, session deploy.Session, request deploy.CopyRequest, logger *slog.Logger) error {
	script, err := extractScript(request.RemoteDir, a.Compression)
	if err != nil {
		return err
	}

	reader, writer := io.Pipe()
	produced := make(chan error, 1)
	go func() {
		err := WriteArchive(writer, request.LocalDir, a.Compression)
		// Publish the result before the reader can observe it, so a
		// local failure is always visible once the session returns.
		produced <- err
		writer.CloseWithError(err)
	}()

	command := remote.Shell(script)
	command.Stdin = reader
	logger.Debug("streaming archive", "compression", a.Compression.String(), "destination", request.RemoteDir)
	status, runErr := session.RunStreamed(ctx, command, linemux.LogSink(logger))

	var produceErr error
	select {
	case produceErr = <-produced:
	default:
		// The remote side exited without consuming the whole stream.
		reader.CloseWithError(errRemoteStopped)
		<-produced
	}

	if produceErr != nil {
		return produceErr
	}
	if runErr != nil {
		return fmt.Errorf("extracting archive on %s: %w", request.Target.Name, runErr)
	}
	if !status.Success() {
		return &deploy.ExitStatusError{Command: "archive extraction", Status: status}
	}
	return nil
}

// extractScript returns the remote shell script that unpacks the
// stream on stdin into destination, replacing any previous contents.
func extractScript(destination string, compression Compression) (string, error) {
	decompress, err := compression.decompressCommand()
	if err != nil {
		return "", err
	}
	staging := strings.TrimRight(destination, "/")
	if staging == "" {
		return "", fmt.Errorf("invalid remote directory %q", destination)
	}
	partial := remote.Quote(staging + ".partial")
	final := remote.Quote(staging)
	return strings.Join([]string{
		"rm -rf " + partial,
		"mkdir -p " + partial,
		decompress + " | tar -x -f - -C " + partial,
		"rm -rf " + final,
		"mv " + partial + " " + final,
	}, " && "), nil
}
