// Package provenance implements the Provenance Attacher (C7): re-fetching
// the registry's canonical manifest, cross-verifying it against the
// uploaded package, and attaching a signed attestation bundle built by an
// externally injected BundleBuilder.
package provenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	in_toto "github.com/in-toto/in-toto-golang/in_toto"
	"github.com/secure-systems-lab/go-securesystemslib/dsse"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/auth"
	"github.com/jsr-io/jsr-publish/dcontext"
	"github.com/jsr-io/jsr-publish/manifest"
	"github.com/jsr-io/jsr-publish/registryapi"
)

// skipManifestVerificationEnv lets integration tests bypass the manifest
// cross-check step without standing up a registry double.
const skipManifestVerificationEnv = "DISABLE_JSR_MANIFEST_VERIFICATION_FOR_TESTING"

// Bundle is an opaque Sigstore-shaped attestation bundle: this core never
// constructs or signs it, only reads its transparency-log entry and
// forwards it verbatim to the registry.
type Bundle map[string]interface{}

// BundleBuilder produces a signed Bundle over subject. Sigstore bundle
// generation is explicitly out of scope for this core; callers inject a
// concrete implementation (real signing, or a test double).
type BundleBuilder func(ctx context.Context, subject in_toto.Subject) (Bundle, error)

// Attach runs the full provenance flow for one package: verify, build,
// attach. The provenance POST at the end is best-effort — its failure
// does not undo the already-successful publish, so it runs on a
// detached context and its error is only logged.
func Attach(ctx context.Context, client *registryapi.Client, pkg jsrpublish.PreparedPackage, authz auth.Authorization, build BundleBuilder) error {
	log := dcontext.GetLogger(ctx)

	metaURL := fmt.Sprintf("%s/@%s/%s/%s_meta.json", client.WebBase, pkg.Scope, pkg.Name, pkg.Version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fetching canonical manifest for %s: unexpected status %d", pkg.DisplayName(), resp.StatusCode)
	}
	metaBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("fetching canonical manifest for %s: %w", pkg.DisplayName(), err)
	}

	if os.Getenv(skipManifestVerificationEnv) == "" {
		var remote manifest.VersionManifest
		if err := json.Unmarshal(metaBytes, &remote); err != nil {
			return fmt.Errorf("decoding canonical manifest for %s: %w", pkg.DisplayName(), err)
		}
		if err := manifest.Verify(pkg, remote); err != nil {
			return fmt.Errorf("manifest verification failed for %s: %w", pkg.DisplayName(), err)
		}
	}

	digest := sha256.Sum256(metaBytes)
	subject := in_toto.Subject{
		Name: fmt.Sprintf("pkg:jsr/@%s/%s@%s", pkg.Scope, pkg.Name, pkg.Version),
		Digest: in_toto.DigestSet{
			"sha256": hex.EncodeToString(digest[:]),
		},
	}

	bundle, err := build(ctx, subject)
	if err != nil {
		return fmt.Errorf("building provenance bundle for %s: %w", pkg.DisplayName(), err)
	}

	if logIndex, ok := transparencyLogIndex(bundle); ok {
		fmt.Printf("provenance transparency log entry: https://search.sigstore.dev/?logIndex=%s\n", logIndex)
	}
	if envelope, ok := dsseEnvelope(bundle); ok {
		log.WithField("signatures", len(envelope.Signatures)).Debug("provenance bundle carries signed DSSE envelope")
	}

	detached := dcontext.Detached(ctx)
	provenanceURL := fmt.Sprintf("%s/scopes/%s/packages/%s/versions/%s/provenance", client.APIBase, pkg.Scope, pkg.Name, pkg.Version)
	headers := http.Header{}
	headers.Set("Authorization", authz.Header())
	if err := client.DoJSON(detached, http.MethodPost, provenanceURL, headers, map[string]Bundle{"bundle": bundle}, nil); err != nil {
		log.WithError(err).Warn("attaching provenance bundle failed; publish already succeeded")
	}

	return nil
}

// transparencyLogIndex walks the opaque bundle to find
// verificationMaterial.tlogEntries[0].logIndex, tolerating bundles that
// omit it (e.g. offline/test builders).
func transparencyLogIndex(bundle Bundle) (string, bool) {
	vm, ok := bundle["verificationMaterial"].(map[string]interface{})
	if !ok {
		return "", false
	}
	entries, ok := vm["tlogEntries"].([]interface{})
	if !ok || len(entries) == 0 {
		return "", false
	}
	entry, ok := entries[0].(map[string]interface{})
	if !ok {
		return "", false
	}
	logIndex, ok := entry["logIndex"].(string)
	return logIndex, ok
}

// dsseEnvelope extracts and decodes the bundle's dsseEnvelope field, the
// detached signature wrapper bundle builders attach alongside the
// Sigstore verification material. Bundles built without signing (e.g.
// offline test doubles) simply omit it.
func dsseEnvelope(bundle Bundle) (dsse.Envelope, bool) {
	raw, ok := bundle["dsseEnvelope"]
	if !ok {
		return dsse.Envelope{}, false
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return dsse.Envelope{}, false
	}
	var envelope dsse.Envelope
	if err := json.Unmarshal(encoded, &envelope); err != nil {
		return dsse.Envelope{}, false
	}
	return envelope, true
}
