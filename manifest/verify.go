package manifest

import (
	"fmt"

	jsrpublish "github.com/jsr-io/jsr-publish"
)

// Verify checks that remote, the canonical manifest the registry recorded
// for a published version, describes exactly the file set and export map
// that pkg's tarball actually contains. The manifest is authoritative on
// counts and contents: extra local files the server did not record are a
// failure, not a benign surplus.
func Verify(pkg jsrpublish.PreparedPackage, remote VersionManifest) error {
	if len(remote.Manifest) != len(pkg.Tarball.Files) {
		return fmt.Errorf("manifest file count mismatch: server recorded %d files, local tarball has %d",
			len(remote.Manifest), len(pkg.Tarball.Files))
	}

	for path, entry := range remote.Manifest {
		file, ok := pkg.Tarball.FindFile(path)
		if !ok {
			return fmt.Errorf("manifest references path %q not present in tarball", path)
		}
		if entry.Checksum != file.SHA256 {
			return fmt.Errorf("Checksum mismatch for %s: expected %s, got %s", path, entry.Checksum, file.SHA256)
		}
	}

	for specifier, wantPath := range pkg.Exports {
		gotPath, ok := remote.Exports[specifier]
		if !ok {
			return fmt.Errorf("export %q missing from server manifest", specifier)
		}
		if gotPath != wantPath {
			return fmt.Errorf("export %q target mismatch: expected %s, got %s", specifier, wantPath, gotPath)
		}
	}
	for specifier := range remote.Exports {
		if _, ok := pkg.Exports[specifier]; !ok {
			return fmt.Errorf("server manifest export %q missing from package exports", specifier)
		}
	}

	return nil
}
