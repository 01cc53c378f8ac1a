// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

type tarEntry struct {
	name    string
	content string
	link    string
	typ     byte
}

// tarStream builds an uncompressed tar stream from entries.
func tarStream(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644}
		switch e.typ {
		case tar.TypeDir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0o755
		case tar.TypeSymlink:
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.link
			hdr.Mode = 0o777
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.content))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.WriteString(tw, e.content); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// writeTarGz writes a gzip-compressed tar file and returns its path.
func writeTarGz(t *testing.T, dir, name string, entries []tarEntry) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write(tarStream(t, entries)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectCompression(t *testing.T) {
	tests := []struct {
		name   string
		source []byte
		want   Compression
	}{
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, Gzip},
		{"bzip2", []byte("BZh91AY"), Bzip2},
		{"xz", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00}, Xz},
		{"lz4", []byte{0x04, 0x22, 0x4d, 0x18, 0x64}, Lz4},
		{"plain text", []byte("hello world"), Uncompressed},
		{"empty", nil, Uncompressed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCompression(tt.source); got != tt.want {
				t.Errorf("DetectCompression = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractAll_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	entries := []tarEntry{
		{name: "readme.txt", content: "hello"},
		{name: "sub", typ: tar.TypeDir},
		{name: "sub/data.bin", content: "\x00\x01\x02payload"},
		{name: "sub/link.txt", link: "data.bin", typ: tar.TypeSymlink},
	}
	archivePath := writeTarGz(t, dir, "notes.tar.gz", entries)

	dest := filepath.Join(dir, "notes_tmp")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	n, err := (TarExtractor{}).ExtractAll(archivePath, dest)
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if n != 3 {
		t.Errorf("entries = %d, want 3", n)
	}

	data, err := os.ReadFile(filepath.Join(dest, "readme.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("readme.txt = %q, want %q", data, "hello")
	}
	target, err := os.Readlink(filepath.Join(dest, "sub", "link.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "data.bin" {
		t.Errorf("symlink target = %q, want %q", target, "data.bin")
	}

	// Pack the extracted tree back up and verify the zip holds the same
	// file set and bytes.
	zipPath := filepath.Join(dir, "notes.zip")
	n, err = ZipWriter{}.CompressAll(dest, zipPath)
	if err != nil {
		t.Fatalf("CompressAll: %v", err)
	}
	if n != 3 {
		t.Errorf("compressed entries = %d, want 3", n)
	}
	if _, err := os.Stat(zipPath + partialExt); !os.IsNotExist(err) {
		t.Errorf("partial file left behind")
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	got := map[string]string{}
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			got[zf.Name] = ""
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			t.Fatal(err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		got[zf.Name] = string(content)
		if zf.Name == "sub/link.txt" && zf.Mode()&fs.ModeSymlink == 0 {
			t.Errorf("sub/link.txt lost its symlink mode")
		}
	}

	want := map[string]string{
		"readme.txt":   "hello",
		"sub/":         "",
		"sub/data.bin": "\x00\x01\x02payload",
		"sub/link.txt": "data.bin",
	}
	if len(got) != len(want) {
		t.Fatalf("zip entries = %v, want %v", got, want)
	}
	for name, content := range want {
		if got[name] != content {
			t.Errorf("%s = %q, want %q", name, got[name], content)
		}
	}
}

func TestExtractAll_OtherCodecs(t *testing.T) {
	stream := tarStream(t, []tarEntry{{name: "a.txt", content: "alpha"}})

	writers := map[string]func(w io.Writer) (io.WriteCloser, error){
		"dump.tar.xz": func(w io.Writer) (io.WriteCloser, error) { return xz.NewWriter(w) },
		"dump.tar.lz4": func(w io.Writer) (io.WriteCloser, error) {
			return lz4.NewWriter(w), nil
		},
	}

	for name, newWriter := range writers {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}
			wc, err := newWriter(f)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := wc.Write(stream); err != nil {
				t.Fatal(err)
			}
			if err := wc.Close(); err != nil {
				t.Fatal(err)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}

			dest := filepath.Join(dir, "out")
			if err := os.Mkdir(dest, 0o755); err != nil {
				t.Fatal(err)
			}
			n, err := (TarExtractor{}).ExtractAll(path, dest)
			if err != nil {
				t.Fatalf("ExtractAll: %v", err)
			}
			if n != 1 {
				t.Errorf("entries = %d, want 1", n)
			}
			data, err := os.ReadFile(filepath.Join(dest, "a.txt"))
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != "alpha" {
				t.Errorf("a.txt = %q", data)
			}
		})
	}
}

func TestExtractAll_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := writeTarGz(t, dir, "evil.tar.gz", []tarEntry{
		{name: "ok.txt", content: "fine"},
		{name: "../escape.txt", content: "not fine"},
	})

	dest := filepath.Join(dir, "evil_tmp")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := (TarExtractor{}).ExtractAll(archivePath, dest)
	if err == nil {
		t.Fatal("expected traversal error")
	}
	if !strings.Contains(err.Error(), "escapes") {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Error("traversal entry was written outside the staging directory")
	}
}

func TestExtractAll_RejectsEscapingSymlink(t *testing.T) {
	dir := t.TempDir()
	archivePath := writeTarGz(t, dir, "evil.tar.gz", []tarEntry{
		{name: "link", link: "../../etc/passwd", typ: tar.TypeSymlink},
	})

	dest := filepath.Join(dir, "evil_tmp")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := (TarExtractor{}).ExtractAll(archivePath, dest); err == nil {
		t.Fatal("expected symlink escape error")
	}
}

func TestExtractAll_InvalidInputs(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	notArchive := filepath.Join(dir, "junk.tar.gz")
	if err := os.WriteFile(notArchive, []byte("this is not gzip data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (TarExtractor{}).ExtractAll(notArchive, dest); err == nil {
		t.Error("expected error for non-archive input")
	}

	// A valid gzip stream whose payload is not a tar archive.
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte("just some compressed text, no tar here at all, padding padding"))
	gz.Close()
	badTar := filepath.Join(dir, "badtar.tar.gz")
	if err := os.WriteFile(badTar, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (TarExtractor{}).ExtractAll(badTar, dest); err == nil {
		t.Error("expected error for gzip without tar payload")
	}
}

func TestCompressAll_CleansUpPartialOnFailure(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "out.zip")

	// Source directory vanishing mid-walk is the easiest portable failure:
	// point at a directory that does not exist.
	_, err := ZipWriter{}.CompressAll(filepath.Join(dir, "missing"), zipPath)
	if err == nil {
		t.Fatal("expected error for missing source directory")
	}
	if _, err := os.Stat(zipPath + partialExt); !os.IsNotExist(err) {
		t.Error("partial file left behind after failure")
	}
	if _, err := os.Stat(zipPath); !os.IsNotExist(err) {
		t.Error("zip file created despite failure")
	}
}
