// Package publish implements the Publish Orchestrator (C8): the
// top-level coroutine composing the order graph, authorizer, upload
// state machine and provenance attacher into one run.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/auth"
	"github.com/jsr-io/jsr-publish/dcontext"
	"github.com/jsr-io/jsr-publish/ensure"
	"github.com/jsr-io/jsr-publish/metrics"
	"github.com/jsr-io/jsr-publish/provenance"
	"github.com/jsr-io/jsr-publish/publishorder"
	"github.com/jsr-io/jsr-publish/registryapi"
	"github.com/jsr-io/jsr-publish/upload"
)

// Config parameterizes one publish run: the endpoints, auth method, and
// provenance behavior. ManageURL and Auth correspond to spec.md's
// "global static endpoints" and "AuthMethod", injected here rather than
// hard-coded so tests can stub them.
type Config struct {
	ManageURL string
	Auth      auth.Method

	// Provenance enables the attach step (C7). When false, no provenance
	// work is attempted at all; when true, the step also needs a non-nil
	// BundleBuilder and is skipped without one.
	Provenance    bool
	BundleBuilder provenance.BundleBuilder

	// DryRun runs package preparation and prints each package's file
	// list, performing no network I/O whatsoever.
	DryRun bool
}

type result struct {
	name  string
	err   error
	start time.Time
	end   time.Time
}

// Run executes the full orchestration pseudocode from spec.md §4.8:
// ensure scopes/packages exist, authorize every package in one batch,
// then drive graph as a work-stealing scheduler, spawning an upload+
// attach task for every ready package and aborting the whole run on the
// first task failure.
func Run(ctx context.Context, client *registryapi.Client, graph *publishorder.Graph, packages []jsrpublish.PreparedPackage, cfg Config) error {
	log := dcontext.GetLogger(ctx)

	if cfg.DryRun {
		for _, pkg := range packages {
			fmt.Printf("[dry run] %s\n", pkg.DisplayName())
			for _, f := range pkg.Tarball.Files {
				fmt.Printf("  %s (%d bytes)\n", f.PathStr, f.Size)
			}
		}
		return nil
	}

	if err := ensure.ScopesAndPackagesExist(ctx, client, cfg.ManageURL, packages); err != nil {
		return fmt.Errorf("ensuring scopes and packages exist: %w", err)
	}

	authorizations, err := auth.Authorize(ctx, client, cfg.Auth, packages)
	if err != nil {
		return fmt.Errorf("authorizing packages: %w", err)
	}
	if len(authorizations) != len(packages) {
		return fmt.Errorf("authorize returned %d credentials for %d packages", len(authorizations), len(packages))
	}

	byName := make(map[string]jsrpublish.PreparedPackage, len(packages))
	for _, pkg := range packages {
		byName[pkg.Name] = pkg
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resultCh := make(chan result, len(packages))
	inFlight := 0

	for {
		ready := graph.Next()
		for _, name := range ready {
			pkg, ok := byName[name]
			if !ok {
				return fmt.Errorf("publish order graph returned unknown package %q", name)
			}
			authz, ok := authorizations[auth.Key{Scope: pkg.Scope, Name: pkg.Name, Version: pkg.Version}]
			if !ok {
				return fmt.Errorf("no authorization minted for %s", pkg.DisplayName())
			}

			color.Green("Publishing %s ...", pkg.DisplayName())
			inFlight++
			go func(name string, pkg jsrpublish.PreparedPackage, authz auth.Authorization) {
				start := time.Now()
				err := uploadAndAttest(runCtx, client, pkg, authz, cfg)
				resultCh <- result{name: name, err: err, start: start, end: time.Now()}
			}(name, pkg, authz)
		}

		if inFlight == 0 {
			break
		}

		res := <-resultCh
		inFlight--
		metrics.UploadDuration.Observe(res.end.Sub(res.start).Seconds())

		if res.err != nil {
			metrics.UploadsTotal.WithLabelValues("failure").Inc()
			log.WithError(res.err).Errorf("publishing %s failed, aborting run", res.name)
			return res.err
		}

		metrics.UploadsTotal.WithLabelValues("success").Inc()
		color.Green("Successfully published %s", res.name)
		graph.FinishPackage(res.name)
	}

	return graph.EnsureNoPending()
}

func uploadAndAttest(ctx context.Context, client *registryapi.Client, pkg jsrpublish.PreparedPackage, authz auth.Authorization, cfg Config) error {
	if _, err := upload.Upload(ctx, client, pkg, authz); err != nil {
		return err
	}
	if !cfg.Provenance || cfg.BundleBuilder == nil {
		return nil
	}
	return provenance.Attach(ctx, client, pkg, authz, cfg.BundleBuilder)
}
