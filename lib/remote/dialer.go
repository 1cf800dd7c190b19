// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	// DefaultUser is the account deployments run as. Activating a
	// NixOS configuration requires root.
	DefaultUser = "root"

	// DefaultPort is used when an endpoint does not name a port.
	DefaultPort = 22

	defaultDialTimeout = 30 * time.Second
)

// Endpoint identifies one node to connect to.
type Endpoint struct {
	// Name is the node name, used only for logging and errors.
	Name string

	// Address is the host name or IP address.
	Address string

	// Port is the SSH port. Zero means [DefaultPort].
	Port uint16
}

// HostPort returns the dialable "host:port" form.
func (e Endpoint) HostPort() string {
	port := e.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(e.Address, strconv.Itoa(int(port)))
}

// String returns "name (host:port)".
func (e Endpoint) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, e.HostPort())
}

// Config holds SSH client settings shared by every connection in a run.
// Nothing here is read from the environment; the CLI fills it in.
type Config struct {
	// User is the remote account. Empty means [DefaultUser].
	User string

	// AgentSocket is the ssh-agent socket path (normally
	// $SSH_AUTH_SOCK). Empty disables agent authentication.
	AgentSocket string

	// IdentityFiles are private key files to offer. Files that do not
	// exist are skipped; encrypted keys are skipped with a warning
	// (the agent usually holds the decrypted copy).
	IdentityFiles []string

	// KnownHostsFile is the OpenSSH known_hosts file used to verify
	// host keys. Required unless InsecureIgnoreHostKey is set.
	KnownHostsFile string

	// InsecureIgnoreHostKey accepts any host key.
	InsecureIgnoreHostKey bool

	// DialTimeout bounds TCP connect plus SSH handshake. Zero means
	// 30 seconds.
	DialTimeout time.Duration
}

// DefaultIdentityFiles returns the conventional OpenSSH key paths under
// home, in the order OpenSSH tries them.
func DefaultIdentityFiles(home string) []string {
	return []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
}

// Dialer opens sessions to nodes. Create one per run with [NewDialer]
// and share it; call Close when the run is over.
type Dialer struct {
	clientConfig ssh.ClientConfig
	dialTimeout  time.Duration
	agentConn    net.Conn
	logger       *slog.Logger
}

// NewDialer loads keys and host key policy from config. Errors here are
// configuration errors and abort the run before any node is contacted.
func NewDialer(config Config, logger *slog.Logger) (*Dialer, error) {
	dialer := &Dialer{
		dialTimeout: config.DialTimeout,
		logger:      logger,
	}
	if dialer.dialTimeout == 0 {
		dialer.dialTimeout = defaultDialTimeout
	}

	user := config.User
	if user == "" {
		user = DefaultUser
	}

	hostKeyCallback, err := hostKeyCallback(config)
	if err != nil {
		return nil, err
	}

	var signers []ssh.Signer
	for _, path := range config.IdentityFiles {
		signer, err := loadIdentity(path)
		if err != nil {
			var passphraseMissing *ssh.PassphraseMissingError
			switch {
			case errors.Is(err, os.ErrNotExist):
				continue
			case errors.As(err, &passphraseMissing):
				logger.Warn("skipping passphrase-protected identity file", "path", path)
				continue
			default:
				return nil, fmt.Errorf("loading identity %s: %w", path, err)
			}
		}
		signers = append(signers, signer)
	}

	var authMethods []ssh.AuthMethod
	if config.AgentSocket != "" {
		connection, err := net.Dial("unix", config.AgentSocket)
		if err != nil {
			logger.Warn("ssh-agent unavailable, continuing without it",
				"socket", config.AgentSocket, "error", err)
		} else {
			dialer.agentConn = connection
			authMethods = append(authMethods, ssh.PublicKeysCallback(agent.NewClient(connection).Signers))
		}
	}
	if len(signers) > 0 {
		authMethods = append(authMethods, ssh.PublicKeys(signers...))
	}

	dialer.clientConfig = ssh.ClientConfig{
		User:            user,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         dialer.dialTimeout,
	}
	return dialer, nil
}

func hostKeyCallback(config Config) (ssh.HostKeyCallback, error) {
	if config.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	if config.KnownHostsFile == "" {
		return nil, errors.New("no known_hosts file configured (set one or explicitly ignore host keys)")
	}
	callback, err := knownhosts.New(config.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("loading known_hosts: %w", err)
	}
	return callback, nil
}

func loadIdentity(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(data)
}

// Connect dials endpoint and completes the SSH handshake. Cancelling
// ctx aborts a connect in progress.
func (d *Dialer) Connect(ctx context.Context, endpoint Endpoint) (*Session, error) {
	address := endpoint.HostPort()

	netDialer := net.Dialer{Timeout: d.dialTimeout}
	connection, err := netDialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ConnectError{Endpoint: endpoint, Err: err}
	}

	// The handshake has no context parameter: bound it with a deadline
	// and close the socket if ctx is cancelled mid-handshake.
	deadline := time.Now().Add(d.dialTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	connection.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { connection.Close() })

	clientConfig := d.clientConfig
	sshConnection, channels, requests, err := ssh.NewClientConn(connection, address, &clientConfig)
	if !stop() {
		if err == nil {
			sshConnection.Close()
		}
		return nil, &ConnectError{Endpoint: endpoint, Err: ctx.Err()}
	}
	if err != nil {
		connection.Close()
		return nil, &ConnectError{Endpoint: endpoint, Err: err}
	}
	connection.SetDeadline(time.Time{})

	return &Session{
		client:   ssh.NewClient(sshConnection, channels, requests),
		endpoint: endpoint,
		logger:   d.logger,
	}, nil
}

// Close releases the ssh-agent connection. Sessions already opened are
// unaffected.
func (d *Dialer) Close() error {
	if d.agentConn != nil {
		return d.agentConn.Close()
	}
	return nil
}
