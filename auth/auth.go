// Package auth implements the Authorizer (C4): minting a per-package
// bearer credential via one of three interchangeable flows — interactive
// device grant, a static token, or federated OIDC exchange.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/registryapi"
)

// Key identifies the package an Authorization was minted for.
type Key struct {
	Scope   string
	Name    string
	Version string
}

func keyOf(pkg jsrpublish.PreparedPackage) Key {
	return Key{Scope: pkg.Scope, Name: pkg.Name, Version: pkg.Version}
}

// Authorization is a minted credential for one or more packages. It
// wraps oauth2.Token so the existing SetAuthHeader plumbing produces the
// wire format directly: "Bearer <token>" for static/device-grant
// credentials, "githuboidc <token>" for OIDC-federated ones.
type Authorization struct {
	Token *oauth2.Token
}

func bearer(token string) Authorization {
	return NewBearer(token)
}

func githubOIDC(token string) Authorization {
	return Authorization{Token: &oauth2.Token{TokenType: "githuboidc", AccessToken: token}}
}

// NewBearer builds a plain "Bearer <token>" Authorization, exported for
// callers (and tests) outside this package that already hold a token.
func NewBearer(token string) Authorization {
	return Authorization{Token: &oauth2.Token{TokenType: "Bearer", AccessToken: token}}
}

// Header renders the Authorization header value, e.g. "Bearer abc123".
func (a Authorization) Header() string {
	return a.Token.Type() + " " + a.Token.AccessToken
}

// SetAuthHeader sets the Authorization header on req.
func (a Authorization) SetAuthHeader(req *http.Request) {
	a.Token.SetAuthHeader(req)
}

// MethodKind selects which of the three flows Authorize runs.
type MethodKind int

const (
	// KindInteractive drives the device-grant flow (4.4.2).
	KindInteractive MethodKind = iota
	// KindToken uses a single preconfigured static bearer token (4.4.1).
	KindToken
	// KindOIDC exchanges a CI-provided OIDC token per chunk (4.4.3).
	KindOIDC
)

// Method selects and parameterizes one of the three authorization flows.
type Method struct {
	Kind MethodKind

	// Token is the static bearer token for KindToken.
	Token string

	// OIDCURL is the configured federation endpoint for KindOIDC; the
	// audience query parameter is appended per chunk.
	OIDCURL string
	// OIDCToken is the CI-provided token presented to OIDCURL.
	OIDCToken string
}

// Authorize mints a map covering every input package, using exactly one
// of the three flows according to method.Kind. Static and device-grant
// flows mint a single Authorization shared by reference across every
// package; OIDC mints one Authorization per chunk of oidcChunkSize
// packages.
func Authorize(ctx context.Context, client *registryapi.Client, method Method, packages []jsrpublish.PreparedPackage) (map[Key]Authorization, error) {
	switch method.Kind {
	case KindToken:
		return authorizeStatic(method.Token, packages), nil
	case KindInteractive:
		return authorizeInteractive(ctx, client, packages)
	case KindOIDC:
		return authorizeOIDC(ctx, client, method, packages)
	default:
		return nil, fmt.Errorf("auth: unknown method kind %d", method.Kind)
	}
}

// permission is the wire shape of one requested publish permission,
// shared by the device-grant and OIDC flows.
type permission struct {
	Permission  string `json:"permission"`
	Scope       string `json:"scope"`
	Package     string `json:"package"`
	Version     string `json:"version"`
	TarballHash string `json:"tarballHash"`
}

func permissionsFor(packages []jsrpublish.PreparedPackage) []permission {
	perms := make([]permission, len(packages))
	for i, pkg := range packages {
		perms[i] = permission{
			Permission:  "package/publish",
			Scope:       pkg.Scope,
			Package:     pkg.Name,
			Version:     pkg.Version,
			TarballHash: pkg.Tarball.SHA256,
		}
	}
	return perms
}
