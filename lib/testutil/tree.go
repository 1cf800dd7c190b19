// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
)

// WriteTree creates each relative path in files under root with the
// given contents, creating parent directories as needed. Returns root.
//
//	dir := testutil.WriteTree(t, t.TempDir(), map[string]string{
//	    "flake.nix":          "{ }",
//	    "hosts/web/default.nix": "{ }",
//	})
func WriteTree(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, root string, files map[string]string) string {
	t.Helper()
	for relative, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(relative))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating parent of %s: %v", relative, err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("writing %s: %v", relative, err)
		}
	}
	return root
}
