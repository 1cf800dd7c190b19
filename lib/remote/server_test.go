// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"testing"

	"golang.org/x/crypto/ssh"
)

// execHandler implements one exec request on the test server. It
// returns the exit status to report.
type execHandler func(command string, stdin io.Reader, stdout, stderr io.Writer) uint32

// testServer is an in-process SSH server that accepts any client and
// dispatches exec requests to a handler.
type testServer struct {
	endpoint  Endpoint
	publicKey ssh.PublicKey
}

func startTestServer(t *testing.T, handler execHandler) *testServer {
	t.Helper()

	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(privateKey)
	if err != nil {
		t.Fatalf("creating host signer: %v", err)
	}
	config := &ssh.ServerConfig{NoClientAuth: true}
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		for {
			connection, err := listener.Accept()
			if err != nil {
				return
			}
			go serveConnection(connection, config, handler)
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	return &testServer{
		endpoint:  Endpoint{Name: "test-node", Address: "127.0.0.1", Port: uint16(port)},
		publicKey: signer.PublicKey(),
	}
}

func serveConnection(connection net.Conn, config *ssh.ServerConfig, handler execHandler) {
	serverConnection, channels, requests, err := ssh.NewServerConn(connection, config)
	if err != nil {
		connection.Close()
		return
	}
	defer serverConnection.Close()
	go ssh.DiscardRequests(requests)

	for newChannel := range channels {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "only sessions")
			continue
		}
		channel, channelRequests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go serveSession(channel, channelRequests, handler)
	}
}

func serveSession(channel ssh.Channel, requests <-chan *ssh.Request, handler execHandler) {
	for request := range requests {
		if request.Type != "exec" {
			if request.WantReply {
				request.Reply(false, nil)
			}
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(request.Payload, &payload); err != nil {
			request.Reply(false, nil)
			continue
		}
		request.Reply(true, nil)

		go func() {
			status := handler(payload.Command, channel, channel, channel.Stderr())
			channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
			channel.Close()
		}()
	}
}
