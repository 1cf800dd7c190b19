// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bureau-foundation/henix/lib/deploy"
	"github.com/bureau-foundation/henix/lib/linemux"
	"github.com/bureau-foundation/henix/lib/remote"
)

// Rsync copies the configuration with the local rsync binary. rsync
// opens its own ssh connection; the node's session is not used.
type Rsync struct {
	// Binary is the rsync executable. Empty means "rsync" from PATH.
	Binary string

	// User is the remote login. Empty means remote.DefaultUser.
	User string

	// SSHOptions are extra arguments for the ssh transport, typically
	// from [OpenSSHOptions].
	SSHOptions []string
}

// Copy runs rsync and streams its output to logger.
func (r Rsync) Copy(ctx context.Context, _ deploy.Session, request deploy.CopyRequest, logger *slog.Logger) error {
	binary := r.Binary
	if binary == "" {
		binary = "rsync"
	}
	args := r.args(request)
	logger.Debug("running rsync", "args", strings.Join(args, " "))

	command := exec.CommandContext(ctx, binary, args...)
	status, err := linemux.Run(ctx, linemux.Command(command), linemux.LogSink(logger), logger)
	if err != nil {
		return fmt.Errorf("running %s: %w", binary, err)
	}
	if !status.Success() {
		return &deploy.ExitStatusError{Command: "rsync", Status: status}
	}
	return nil
}

func (r Rsync) args(request deploy.CopyRequest) []string {
	user := r.User
	if user == "" {
		user = remote.DefaultUser
	}
	port := request.Target.Port
	if port == 0 {
		port = remote.DefaultPort
	}

	transport := []string{"ssh", "-p", strconv.Itoa(int(port))}
	for _, option := range r.SSHOptions {
		transport = append(transport, remote.Quote(option))
	}

	host := request.Target.Address
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	return []string{
		"--exclude=" + excludedDirectory + "/",
		"-a", "-F", "--delete", "--mkpath",
		"-e", strings.Join(transport, " "),
		strings.TrimRight(request.LocalDir, "/") + "/",
		user + "@" + host + ":" + request.RemoteDir,
	}
}

// OpenSSHOptions translates henix's SSH settings into ssh(1) options
// so rsync's transport authenticates the same way the session does.
func OpenSSHOptions(identityFiles []string, knownHostsFile string, insecureIgnoreHostKey bool) []string {
	var options []string
	for _, identity := range identityFiles {
		options = append(options, "-i", identity)
	}
	switch {
	case insecureIgnoreHostKey:
		options = append(options,
			"-o", "StrictHostKeyChecking=no",
			"-o", "UserKnownHostsFile=/dev/null")
	case knownHostsFile != "":
		options = append(options,
			"-o", "StrictHostKeyChecking=yes",
			"-o", "UserKnownHostsFile="+knownHostsFile)
	}
	return options
}
