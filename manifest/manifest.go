// Package manifest implements the Manifest Verifier (C2): decoding the
// registry's canonical VersionManifest and cross-checking it against a
// locally built Tarball before provenance is attached.
package manifest

// Entry is the server's record of one archived file.
type Entry struct {
	Checksum string `json:"checksum"`
}

// VersionManifest is server truth returned after upload: the file
// checksums it recorded plus the export map it resolved.
type VersionManifest struct {
	Manifest map[string]Entry  `json:"manifest"`
	Exports  map[string]string `json:"exports"`
}
