// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TarExtractor streams compressed tar archives into a directory tree.
// The zero value is ready to use.
type TarExtractor struct{}

// ExtractAll decompresses and unpacks the archive at archivePath into
// destDir, preserving relative paths, directory structure, and file
// modes. It returns the number of file and link entries written. Entries
// that would escape destDir fail the extraction.
func (TarExtractor) ExtractAll(archivePath, destDir string) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(8)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading %s: %w", archivePath, err)
	}
	comp := DetectCompression(head)
	if comp == Uncompressed {
		return 0, fmt.Errorf("%s: not a recognized compressed stream", archivePath)
	}

	r, closer, err := decompressor(br, comp)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", archivePath, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	entries := 0
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, fmt.Errorf("reading tar stream: %w", err)
		}

		rel, err := secureRelPath(hdr.Name)
		if err != nil {
			return entries, err
		}
		if rel == "." {
			continue
		}
		target := filepath.Join(destDir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)&os.ModePerm|0o700); err != nil {
				return entries, fmt.Errorf("creating directory %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := writeFileEntry(target, tr, os.FileMode(hdr.Mode)&os.ModePerm); err != nil {
				return entries, fmt.Errorf("writing %s: %w", rel, err)
			}
			entries++
		case tar.TypeSymlink:
			if err := writeSymlinkEntry(target, rel, hdr.Linkname); err != nil {
				return entries, err
			}
			entries++
		case tar.TypeLink:
			linkRel, err := secureRelPath(hdr.Linkname)
			if err != nil {
				return entries, err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return entries, fmt.Errorf("creating directory for %s: %w", rel, err)
			}
			if err := os.Link(filepath.Join(destDir, linkRel), target); err != nil {
				return entries, fmt.Errorf("linking %s: %w", rel, err)
			}
			entries++
		default:
			// Device nodes, FIFOs and other special entries have no zip
			// representation and are dropped.
		}
	}
	return entries, nil
}

// secureRelPath normalizes a tar member name and rejects absolute paths
// and parent-directory traversal.
func secureRelPath(name string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(rel) || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return rel, nil
}

func writeFileEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// writeSymlinkEntry restores a symlink after checking that its target
// stays inside the extraction directory. rel is the link's own relative
// path, used to resolve relative targets.
func writeSymlinkEntry(target, rel, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("symlink %s: absolute target %q not allowed", rel, linkname)
	}
	resolved := filepath.Join(filepath.Dir(rel), filepath.FromSlash(linkname))
	if !filepath.IsLocal(resolved) {
		return fmt.Errorf("symlink %s: target %q escapes the extraction directory", rel, linkname)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.Symlink(filepath.FromSlash(linkname), target)
}
