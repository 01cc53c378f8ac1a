// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// partialExt marks an output still being written. The finished archive
// only appears under its final name after a successful rename.
const partialExt = ".partial"

// ZipWriter packs a directory tree into a zip archive.
// The zero value is ready to use.
type ZipWriter struct{}

// CompressAll recursively archives the contents of sourceDir into a zip
// file at zipPath, preserving relative paths, directory entries, and file
// modes. It returns the number of file and link entries written. The
// archive is written to a partial file and renamed into place so a failed
// run never leaves a truncated zip under the final name.
func (ZipWriter) CompressAll(sourceDir, zipPath string) (int, error) {
	partial := zipPath + partialExt
	out, err := os.Create(partial)
	if err != nil {
		return 0, err
	}

	entries, err := writeZipTree(out, sourceDir)
	if err != nil {
		out.Close()
		os.Remove(partial)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return 0, err
	}
	if err := os.Rename(partial, zipPath); err != nil {
		os.Remove(partial)
		return 0, err
	}
	return entries, nil
}

func writeZipTree(w io.Writer, sourceDir string) (int, error) {
	zw := zip.NewWriter(w)
	entries := 0

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("header for %s: %w", rel, err)
		}
		hdr.Name = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			hdr.Name += "/"
			hdr.Method = zip.Store
			if _, err := zw.CreateHeader(hdr); err != nil {
				return fmt.Errorf("writing directory %s: %w", rel, err)
			}
			return nil
		case info.Mode()&fs.ModeSymlink != 0:
			// Zip convention: a symlink is an entry whose content is the
			// link target, with the symlink bit set in the mode.
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			hdr.Method = zip.Store
			ew, err := zw.CreateHeader(hdr)
			if err != nil {
				return fmt.Errorf("writing symlink %s: %w", rel, err)
			}
			if _, err := ew.Write([]byte(target)); err != nil {
				return err
			}
			entries++
			return nil
		case info.Mode().IsRegular():
			hdr.Method = zip.Deflate
			ew, err := zw.CreateHeader(hdr)
			if err != nil {
				return fmt.Errorf("writing %s: %w", rel, err)
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			if _, err := io.Copy(ew, f); err != nil {
				f.Close()
				return fmt.Errorf("compressing %s: %w", rel, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			entries++
			return nil
		default:
			// Sockets and other special files cannot be represented.
			return nil
		}
	})
	if err != nil {
		zw.Close()
		return entries, err
	}
	if err := zw.Close(); err != nil {
		return entries, fmt.Errorf("finalizing zip: %w", err)
	}
	return entries, nil
}
