// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/henix/lib/linemux"
	"github.com/bureau-foundation/henix/lib/remote"
)

const fakeHash = "0123abcd"

// fakeSession stands in for a remote session to one node.
type fakeSession struct {
	node   string
	closed atomic.Int32
}

func (s *fakeSession) RunCaptured(context.Context, remote.Command) (remote.Captured, error) {
	return remote.Captured{}, nil
}

func (s *fakeSession) RunStreamed(context.Context, remote.Command, linemux.Sink) (linemux.ExitStatus, error) {
	return linemux.ExitStatus{}, nil
}

func (s *fakeSession) Close() error {
	s.closed.Add(1)
	return nil
}

// fakeFleet implements every step collaborator and records each call
// per node. Failures are injected per node through the maps; hooks run
// inside the step for timing-sensitive tests.
type fakeFleet struct {
	mutex    sync.Mutex
	calls    map[string][]string
	sessions map[string]*fakeSession

	builds        []BuildRequest
	copies        []CopyRequest
	rollbacks     []RollbackRequest
	links         []LinkRequest
	rollbackCtxOK []bool

	connectErr  map[string]error
	hashErr     error
	copyErr     map[string]error
	buildErr    map[string]error
	buildStatus map[string]linemux.ExitStatus
	linkErr     map[string]error
	rollbackErr map[string]error

	buildHook func(ctx context.Context, node string) error
}

func newFakeFleet() *fakeFleet {
	return &fakeFleet{
		calls:       make(map[string][]string),
		sessions:    make(map[string]*fakeSession),
		connectErr:  make(map[string]error),
		copyErr:     make(map[string]error),
		buildErr:    make(map[string]error),
		buildStatus: make(map[string]linemux.ExitStatus),
		linkErr:     make(map[string]error),
		rollbackErr: make(map[string]error),
	}
}

func (f *fakeFleet) steps() Steps {
	return Steps{
		Connector:  ConnectorFunc(f.connect),
		Hasher:     f,
		Copier:     f,
		Builder:    f,
		Linker:     f,
		Rollbacker: f,
	}
}

func (f *fakeFleet) record(node, step string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls[node] = append(f.calls[node], step)
}

// count returns how often step ran for node; node "" counts all nodes.
func (f *fakeFleet) count(node, step string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	total := 0
	for callNode, steps := range f.calls {
		if node != "" && callNode != node {
			continue
		}
		for _, called := range steps {
			if called == step {
				total++
			}
		}
	}
	return total
}

func (f *fakeFleet) sequence(node string) []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.calls[node]...)
}

func (f *fakeFleet) connect(_ context.Context, target Target) (Session, error) {
	f.record(target.Name, "connect")
	f.mutex.Lock()
	err := f.connectErr[target.Name]
	f.mutex.Unlock()
	if err != nil {
		return nil, err
	}
	session := &fakeSession{node: target.Name}
	f.mutex.Lock()
	f.sessions[target.Name] = session
	f.mutex.Unlock()
	return session, nil
}

func (f *fakeFleet) Hash(context.Context, string) (string, error) {
	f.record("", "hash")
	if f.hashErr != nil {
		return "", f.hashErr
	}
	return fakeHash, nil
}

func (f *fakeFleet) Copy(_ context.Context, session Session, request CopyRequest, _ *slog.Logger) error {
	node := session.(*fakeSession).node
	f.record(node, "copy")
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.copies = append(f.copies, request)
	return f.copyErr[node]
}

func (f *fakeFleet) Build(ctx context.Context, session Session, request BuildRequest, _ *slog.Logger) (linemux.ExitStatus, error) {
	node := session.(*fakeSession).node
	f.record(node, "build")
	if f.buildHook != nil {
		if err := f.buildHook(ctx, node); err != nil {
			return linemux.ExitStatus{}, err
		}
	}
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.builds = append(f.builds, request)
	return f.buildStatus[node], f.buildErr[node]
}

func (f *fakeFleet) Link(_ context.Context, session Session, request LinkRequest, _ *slog.Logger) error {
	node := session.(*fakeSession).node
	f.record(node, "link")
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.links = append(f.links, request)
	return f.linkErr[node]
}

func (f *fakeFleet) Rollback(ctx context.Context, session Session, request RollbackRequest, _ *slog.Logger) error {
	node := session.(*fakeSession).node
	f.record(node, "rollback")
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.rollbacks = append(f.rollbacks, request)
	f.rollbackCtxOK = append(f.rollbackCtxOK, ctx.Err() == nil)
	return f.rollbackErr[node]
}

func fleetNodes(names ...string) map[string]Target {
	nodes := make(map[string]Target, len(names))
	for i, name := range names {
		nodes[name] = Target{Name: name, Address: fmt.Sprintf("10.0.0.%d", i+1)}
	}
	return nodes
}
