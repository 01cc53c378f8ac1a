// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan enumerates candidate input archives in a directory.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/tarzip/pkg/types"
)

// DefaultSuffixes are the suffixes matched by a plain directory scan,
// mirroring the tool's original gzip-only surface.
var DefaultSuffixes = []string{".tar.gz", ".tgz"}

// AllSuffixes are the compressed-tar suffixes tarzip can decode. Inputs
// with a non-gzip suffix are accepted when named explicitly.
var AllSuffixes = []string{".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".tar.lz4"}

// Recognize matches name against suffixes, longest suffix first, and
// returns the base name and matched suffix. ok is false when no suffix
// matches or stripping it would leave an empty base.
func Recognize(name string, suffixes []string) (base, suffix string, ok bool) {
	sorted := make([]string, len(suffixes))
	copy(sorted, suffixes)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, s := range sorted {
		if strings.HasSuffix(name, s) && len(name) > len(s) {
			return strings.TrimSuffix(name, s), s, true
		}
	}
	return "", "", false
}

// Archives scans dir for regular files with a recognized suffix and
// returns them in lexicographic order by file name. A directory with no
// matches yields an empty slice, not an error.
func Archives(dir string, suffixes []string) ([]types.InputArchive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var found []types.InputArchive
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		base, suffix, ok := Recognize(e.Name(), suffixes)
		if !ok {
			continue
		}
		found = append(found, types.InputArchive{
			Path:   filepath.Join(dir, e.Name()),
			Base:   base,
			Suffix: suffix,
		})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found, nil
}

// Resolve turns an explicitly named path into an InputArchive, accepting
// any decodable suffix. Unlike Archives it errors when the path does not
// exist or its suffix is not recognized.
func Resolve(path string) (types.InputArchive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.InputArchive{}, err
	}
	if info.IsDir() {
		return types.InputArchive{}, fmt.Errorf("%s is a directory, not an archive", path)
	}
	base, suffix, ok := Recognize(filepath.Base(path), AllSuffixes)
	if !ok {
		return types.InputArchive{}, fmt.Errorf("%s has no recognized compressed-tar suffix", path)
	}
	return types.InputArchive{Path: path, Base: base, Suffix: suffix}, nil
}
