package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"
)

// unixEpoch is the fixed modification time stamped onto every tar header
// and the gzip stream itself, so archive bytes depend only on content.
var unixEpoch = time.Unix(0, 0).UTC()

// tarballCompressionLevel is fixed so that two builds of the same input
// tree produce byte-identical gzip output (spec.md §4.1 determinism
// invariant); varying the level would otherwise change the compressed
// bytes without changing the semantic content.
const tarballCompressionLevel = gzip.BestCompression

// DefaultBuilder walks a package root directory, applies include/exclude
// glob patterns against paths relative to root, unfurls each matched
// file's contents, and assembles a deterministic gzipped tarball.
type DefaultBuilder struct{}

var _ Builder = DefaultBuilder{}

// Build implements Builder.
func (DefaultBuilder) Build(ctx context.Context, root string, patterns FilePatterns, unfurler Unfurler, diagnostics Diagnostics) (Tarball, error) {
	paths, err := collectPaths(root, patterns, diagnostics)
	if err != nil {
		return Tarball{}, fmt.Errorf("walking package root %s: %w", root, err)
	}
	sort.Strings(paths)

	files := make([]File, 0, len(paths))
	tarBuf := new(bytes.Buffer)
	tw := tar.NewWriter(tarBuf)

	for _, relPath := range paths {
		absPath := filepath.Join(root, relPath)
		raw, err := os.ReadFile(absPath)
		if err != nil {
			return Tarball{}, fmt.Errorf("reading %s: %w", relPath, err)
		}

		specifier := "file:///" + filepath.ToSlash(relPath)
		rewritten, err := unfurler.Unfurl(ctx, specifier, raw)
		if err != nil {
			return Tarball{}, fmt.Errorf("unfurling %s: %w", relPath, err)
		}

		sum := sha256.Sum256(rewritten)
		hexSum := hex.EncodeToString(sum[:])

		header := &tar.Header{
			Name:     filepath.ToSlash(relPath),
			Mode:     0o644,
			Size:     int64(len(rewritten)),
			Typeflag: tar.TypeReg,
			// Zeroed so two builds of the same tree are byte-identical
			// regardless of when they ran.
			ModTime: unixEpoch,
		}
		if err := tw.WriteHeader(header); err != nil {
			return Tarball{}, fmt.Errorf("writing tar header for %s: %w", relPath, err)
		}
		if _, err := tw.Write(rewritten); err != nil {
			return Tarball{}, fmt.Errorf("writing tar body for %s: %w", relPath, err)
		}

		files = append(files, File{
			PathStr:   filepath.ToSlash(relPath),
			Specifier: specifier,
			SHA256:    hexSum,
			Size:      int64(len(rewritten)),
		})
	}

	if err := tw.Close(); err != nil {
		return Tarball{}, fmt.Errorf("closing tar writer: %w", err)
	}

	gzBuf := new(bytes.Buffer)
	gw, err := gzip.NewWriterLevel(gzBuf, tarballCompressionLevel)
	if err != nil {
		return Tarball{}, err
	}
	gw.ModTime = unixEpoch
	if _, err := gw.Write(tarBuf.Bytes()); err != nil {
		return Tarball{}, fmt.Errorf("gzip-compressing tarball: %w", err)
	}
	if err := gw.Close(); err != nil {
		return Tarball{}, fmt.Errorf("closing gzip writer: %w", err)
	}

	gzBytes := gzBuf.Bytes()
	sum := sha256.Sum256(gzBytes)

	return Tarball{
		Bytes:  gzBytes,
		SHA256: hex.EncodeToString(sum[:]),
		Files:  files,
	}, nil
}
