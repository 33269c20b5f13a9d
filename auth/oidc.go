package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/registryapi"
)

// oidcChunkSize is a protocol constant, not a tuning parameter: the
// federation endpoint accepts at most this many permissions per request.
const oidcChunkSize = 16

type oidcAudience struct {
	Permissions []permission `json:"permissions"`
}

type oidcResponse struct {
	Value string `json:"value"`
}

// authorizeOIDC partitions packages into fixed chunks of oidcChunkSize,
// exchanging the CI-provided OIDC token for one federated token per
// chunk. Each chunk may receive a different token; the mapping below is
// per-package, not shared globally the way the static/interactive flows
// are.
func authorizeOIDC(ctx context.Context, client *registryapi.Client, method Method, packages []jsrpublish.PreparedPackage) (map[Key]Authorization, error) {
	out := make(map[Key]Authorization, len(packages))

	for start := 0; start < len(packages); start += oidcChunkSize {
		end := start + oidcChunkSize
		if end > len(packages) {
			end = len(packages)
		}
		chunk := packages[start:end]

		token, err := exchangeOIDCChunk(ctx, client, method, chunk)
		if err != nil {
			return nil, fmt.Errorf("oidc exchange for packages %d..%d: %w", start, end-1, err)
		}

		auth := githubOIDC(token)
		for _, pkg := range chunk {
			out[keyOf(pkg)] = auth
		}
	}

	return out, nil
}

func exchangeOIDCChunk(ctx context.Context, client *registryapi.Client, method Method, chunk []jsrpublish.PreparedPackage) (string, error) {
	raw, err := json.Marshal(oidcAudience{Permissions: permissionsFor(chunk)})
	if err != nil {
		return "", err
	}

	reqURL := method.OIDCURL + "&audience=" + url.QueryEscape(string(raw))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+method.OIDCToken)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("oidc endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed oidcResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding oidc response: %w", err)
	}
	return parsed.Value, nil
}
