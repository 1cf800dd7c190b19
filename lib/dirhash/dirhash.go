// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dirhash

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// treeDomainKey is the BLAKE3 key for directory tree hashes: the ASCII
// domain name zero-padded to 32 bytes. Changing it changes every
// staging directory name.
var treeDomainKey = [32]byte{
	'h', 'e', 'n', 'i', 'x', '.', 'd', 'i', 'r', 'h', 'a', 's', 'h', '.',
	't', 'r', 'e', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ExcludedDirectory is skipped wherever it appears in the tree.
const ExcludedDirectory = ".git"

// Entry type tags written into the hash stream.
const (
	tagDirectory  byte = 'd'
	tagFile       byte = 'f'
	tagExecutable byte = 'x'
	tagSymlink    byte = 'l'
)

// Hasher hashes directory trees. It satisfies deploy.Hasher.
type Hasher struct{}

// Hash returns the hex BLAKE3 tree hash of dir. Sockets, devices, and
// other special files are rejected: they cannot be transferred to a
// node.
func (Hasher) Hash(ctx context.Context, dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("hashing %s: not a directory", dir)
	}

	hasher, err := blake3.NewKeyed(treeDomainKey[:])
	if err != nil {
		panic("dirhash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if entry.IsDir() && entry.Name() == ExcludedDirectory {
			return filepath.SkipDir
		}

		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		relative = filepath.ToSlash(relative)

		switch mode := entry.Type(); {
		case mode.IsDir():
			writeRecord(hasher, tagDirectory, relative)
		case mode&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			writeRecord(hasher, tagSymlink, relative)
			writeField(hasher, []byte(target))
		case mode.IsRegular():
			return hashFile(hasher, path, relative)
		default:
			return fmt.Errorf("%s: unsupported file type %s", relative, mode)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", dir, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func hashFile(hasher *blake3.Hasher, path, relative string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	tag := tagFile
	if info.Mode().Perm()&0o111 != 0 {
		tag = tagExecutable
	}
	writeRecord(hasher, tag, relative)

	// Length prefix so content never runs into the next record.
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(info.Size()))
	hasher.Write(length[:])
	written, err := io.Copy(hasher, file)
	if err != nil {
		return err
	}
	if written != info.Size() {
		return fmt.Errorf("%s changed size while hashing", relative)
	}
	return nil
}

func writeRecord(hasher *blake3.Hasher, tag byte, relative string) {
	hasher.Write([]byte{tag})
	writeField(hasher, []byte(relative))
}

func writeField(hasher *blake3.Hasher, data []byte) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	hasher.Write(length[:])
	hasher.Write(data)
}
