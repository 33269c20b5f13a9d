package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/archive"
	"github.com/jsr-io/jsr-publish/manifest"
)

func testPackage() jsrpublish.PreparedPackage {
	return jsrpublish.PreparedPackage{
		Scope:   "luca",
		Name:    "flag",
		Version: "1.0.0",
		Exports: map[string]string{".": "mod.ts"},
		Tarball: archive.Tarball{
			Files: []archive.File{
				{PathStr: "mod.ts", Specifier: "file:///mod.ts", SHA256: "abc123", Size: 10},
			},
		},
	}
}

func TestVerifyOK(t *testing.T) {
	pkg := testPackage()
	remote := manifest.VersionManifest{
		Manifest: map[string]manifest.Entry{"mod.ts": {Checksum: "abc123"}},
		Exports:  map[string]string{".": "mod.ts"},
	}
	require.NoError(t, manifest.Verify(pkg, remote))
}

func TestVerifyChecksumMismatch(t *testing.T) {
	pkg := testPackage()
	remote := manifest.VersionManifest{
		Manifest: map[string]manifest.Entry{"mod.ts": {Checksum: "lol123"}},
		Exports:  map[string]string{".": "mod.ts"},
	}
	err := manifest.Verify(pkg, remote)
	require.EqualError(t, err, "Checksum mismatch for mod.ts: expected lol123, got abc123")
}

func TestVerifyMissingEntry(t *testing.T) {
	pkg := testPackage()
	pkg.Tarball.Files = append(pkg.Tarball.Files, archive.File{PathStr: "extra.ts", SHA256: "def456"})
	remote := manifest.VersionManifest{
		Manifest: map[string]manifest.Entry{
			"mod.ts":   {Checksum: "abc123"},
			"other.ts": {Checksum: "zzz"},
		},
		Exports: map[string]string{".": "mod.ts"},
	}
	err := manifest.Verify(pkg, remote)
	require.EqualError(t, err, `manifest references path "other.ts" not present in tarball`)
}

func TestVerifyFileCountMismatch(t *testing.T) {
	pkg := testPackage()
	remote := manifest.VersionManifest{
		Manifest: map[string]manifest.Entry{},
		Exports:  map[string]string{".": "mod.ts"},
	}
	err := manifest.Verify(pkg, remote)
	require.EqualError(t, err, "manifest file count mismatch: server recorded 0 files, local tarball has 1")
}

func TestVerifyExportMismatch(t *testing.T) {
	pkg := testPackage()
	remote := manifest.VersionManifest{
		Manifest: map[string]manifest.Entry{"mod.ts": {Checksum: "abc123"}},
		Exports:  map[string]string{".": "other.ts"},
	}
	err := manifest.Verify(pkg, remote)
	require.EqualError(t, err, `export "." target mismatch: expected mod.ts, got other.ts`)
}
