// Package archive implements the Archive Contract (C1): producing and
// representing the immutable, content-addressed Tarball artifact that a
// PreparedPackage carries. Tar file production and specifier "unfurling"
// are treated as external collaborators (spec.md §1) — this package
// consumes them through the Builder and Unfurler interfaces, with
// DefaultBuilder provided as a concrete, testable implementation.
package archive

import (
	"context"

	"github.com/opencontainers/go-digest"
)

// File describes one archive-relative entry after unfurling, mirroring the
// wire shape the registry expects in its manifest ("mod.ts" style paths
// alongside "file:///" URL specifiers).
type File struct {
	// PathStr is the archive-relative path, e.g. "mod.ts".
	PathStr string
	// Specifier is the URL form used by the module graph, e.g.
	// "file:///mod.ts".
	Specifier string
	// SHA256 is the hex digest of this file's rewritten (unfurled)
	// contents.
	SHA256 string
	// Size is the byte length of the rewritten contents.
	Size int64
}

// Tarball is the gzipped tar payload produced for one package, plus the
// manifest of its contents. Ordering of Files is always by PathStr so that
// two builds of identical input produce byte-identical output (spec.md
// §4.1, §8).
type Tarball struct {
	// Bytes is the gzipped tar payload, compressed at a fixed level with
	// file modification times normalized to zero.
	Bytes []byte
	// SHA256 is the hex digest of Bytes.
	SHA256 string
	// Files is sorted by PathStr.
	Files []File
}

// Digest returns the Tarball's content hash as an OCI-style digest
// ("sha256:<hex>"). Authorization permission requests carry the plain hex
// SHA256 instead.
func (t Tarball) Digest() digest.Digest {
	return digest.NewDigestFromEncoded(digest.SHA256, t.SHA256)
}

// FindFile returns the File entry with the given archive-relative path, or
// false if no such entry exists.
func (t Tarball) FindFile(pathStr string) (File, bool) {
	for _, f := range t.Files {
		if f.PathStr == pathStr {
			return f, true
		}
	}
	return File{}, false
}

// Unfurler rewrites bare import specifiers found in file contents to
// fully-qualified registry URLs before they are hashed and archived.
// Constructing the specifier-rewrite rules is module-graph work, explicitly
// out of scope here (spec.md §1); callers inject a concrete implementation.
type Unfurler interface {
	Unfurl(ctx context.Context, specifier string, contents []byte) ([]byte, error)
}

// IdentityUnfurler is a stand-in Unfurler that leaves file contents
// untouched. It is not a substitute for real specifier rewriting; it
// exists so a caller with no module graph available yet (e.g. this
// module's own CLI) can still produce a runnable Tarball.
type IdentityUnfurler struct{}

func (IdentityUnfurler) Unfurl(_ context.Context, _ string, contents []byte) ([]byte, error) {
	return contents, nil
}

// Diagnostics receives non-fatal findings encountered while walking a
// package root (e.g. a file matched by no publish pattern). Out of scope
// for this core beyond the sink interface itself.
type Diagnostics interface {
	Push(message string)
}

// FilePatterns controls which files under a package root are archived.
type FilePatterns struct {
	Include []string
	Exclude []string
}

// Builder produces a Tarball from a package root directory. Building the
// module graph that drives Unfurler is out of scope; Builder only owns
// walking the filesystem, applying FilePatterns, invoking Unfurler per
// file, and hashing+archiving the result.
type Builder interface {
	Build(ctx context.Context, root string, patterns FilePatterns, unfurler Unfurler, diagnostics Diagnostics) (Tarball, error)
}
