// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// excludedDirectory is never transferred, at any depth.
const excludedDirectory = ".git"

// WriteArchive writes a compressed tar stream of the tree under dir to
// w. Entry names are relative to dir, owned by root, and directories
// named ".git" are omitted.
func WriteArchive(w io.Writer, dir string, compression Compression) error {
	compressor, err := NewCompressor(w, compression)
	if err != nil {
		return err
	}
	if err := writeTar(compressor, dir); err != nil {
		compressor.Close()
		return err
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("flushing %s stream: %w", compression, err)
	}
	return nil
}

func writeTar(w io.Writer, dir string) error {
	writer := tar.NewWriter(w)
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if entry.IsDir() && entry.Name() == excludedDirectory {
			return filepath.SkipDir
		}

		relative, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}

		var linkTarget string
		if info.Mode()&fs.ModeSymlink != 0 {
			if linkTarget, err = os.Readlink(path); err != nil {
				return err
			}
		}
		header, err := tar.FileInfoHeader(info, linkTarget)
		if err != nil {
			return fmt.Errorf("%s: %w", relative, err)
		}
		header.Name = filepath.ToSlash(relative)
		if info.IsDir() {
			header.Name += "/"
		}
		header.Uid, header.Gid = 0, 0
		header.Uname, header.Gname = "root", "root"

		if err := writer.WriteHeader(header); err != nil {
			return fmt.Errorf("%s: %w", relative, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		if _, err := io.Copy(writer, file); err != nil {
			return fmt.Errorf("%s: %w", relative, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archiving %s: %w", dir, err)
	}
	return writer.Close()
}
