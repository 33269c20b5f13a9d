// Package ensure implements the Scope/Package Ensurer (C5): checking
// that every package's scope and package name already exist on the
// registry, and either failing fast with creation instructions or
// walking the user through interactive creation.
package ensure

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/dcontext"
	"github.com/jsr-io/jsr-publish/registryapi"
)

// missing describes one scope or package the registry does not yet
// have, and the management-site URL that creates it.
type missing struct {
	kind   string // "scope" or "package"
	scope  string
	name   string
	manage string
}

func (m missing) createURL() string {
	return fmt.Sprintf("%s/new?scope=%s&package=%s&from=cli", m.manage, m.scope, m.name)
}

// ScopesAndPackagesExist checks every package's scope and package name
// and either returns nil (everything exists), or — depending on whether
// stdin is a TTY — walks the user through interactive creation, or
// returns an aggregated error listing every entity the user must create
// manually.
func ScopesAndPackagesExist(ctx context.Context, client *registryapi.Client, manageURL string, packages []jsrpublish.PreparedPackage) error {
	missingEntities, err := findMissing(ctx, client, manageURL, packages)
	if err != nil {
		return err
	}
	if len(missingEntities) == 0 {
		return nil
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		var merr *multierror.Error
		for _, m := range missingEntities {
			merr = multierror.Append(merr, fmt.Errorf("%s %q does not exist; create it at %s", m.kind, m.name, m.createURL()))
		}
		return merr.ErrorOrNil()
	}

	dcontext.GetLogger(ctx).Infof("%d scope(s)/package(s) need to be created before publishing", len(missingEntities))
	for _, m := range missingEntities {
		if err := createInteractively(ctx, client, m); err != nil {
			return err
		}
	}
	return nil
}

func findMissing(ctx context.Context, client *registryapi.Client, manageURL string, packages []jsrpublish.PreparedPackage) ([]missing, error) {
	seenScopes := make(map[string]bool)
	var missingEntities []missing

	for _, pkg := range packages {
		if !seenScopes[pkg.Scope] {
			seenScopes[pkg.Scope] = true
			exists, err := scopeExists(ctx, client, pkg.Scope)
			if err != nil {
				return nil, err
			}
			if !exists {
				missingEntities = append(missingEntities, missing{kind: "scope", scope: pkg.Scope, name: pkg.Scope, manage: manageURL})
			}
		}

		exists, err := packageExists(ctx, client, pkg.Scope, pkg.Name)
		if err != nil {
			return nil, err
		}
		if !exists {
			missingEntities = append(missingEntities, missing{kind: "package", scope: pkg.Scope, name: pkg.Name, manage: manageURL})
		}
	}

	return missingEntities, nil
}

func scopeExists(ctx context.Context, client *registryapi.Client, scope string) (bool, error) {
	url := fmt.Sprintf("%s/scopes/%s", client.APIBase, scope)
	return exists(ctx, client, url)
}

func packageExists(ctx context.Context, client *registryapi.Client, scope, name string) (bool, error) {
	url := fmt.Sprintf("%s/scopes/%s/packages/%s", client.APIBase, scope, name)
	return exists(ctx, client, url)
}

func exists(ctx context.Context, client *registryapi.Client, url string) (bool, error) {
	err := client.DoJSON(ctx, http.MethodGet, url, nil, nil, nil)
	if err == nil {
		return true, nil
	}
	if registryapi.NotFound(err) {
		return false, nil
	}
	return false, err
}
