// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nix

import (
	"context"
	"fmt"
	"strings"
)

// Hasher computes the Nix content hash of a directory by running
// "nix-hash <dir>". It satisfies deploy.Hasher. Unlike the native
// BLAKE3 hasher in lib/dirhash, the result includes the .git directory
// if one is present.
type Hasher struct{}

// Hash returns the hex hash nix-hash prints for dir.
func (Hasher) Hash(ctx context.Context, dir string) (string, error) {
	output, err := run(ctx, "nix-hash", []string{dir})
	if err != nil {
		return "", err
	}
	return parseHash(output)
}

// parseHash extracts the single hash token nix-hash prints.
func parseHash(output string) (string, error) {
	fields := strings.Fields(output)
	if len(fields) != 1 {
		return "", fmt.Errorf("unexpected nix-hash output %q", strings.TrimSpace(output))
	}
	return fields[0], nil
}
