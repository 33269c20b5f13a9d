package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/archive"
	"github.com/jsr-io/jsr-publish/auth"
	"github.com/jsr-io/jsr-publish/jsrconfig"
	"github.com/jsr-io/jsr-publish/metrics"
	"github.com/jsr-io/jsr-publish/publish"
	"github.com/jsr-io/jsr-publish/publishorder"
	"github.com/jsr-io/jsr-publish/registryapi"

	"github.com/prometheus/client_golang/prometheus"
)

type publishFlags struct {
	root           string
	scope          string
	name           string
	pkgVersion     string
	configFilename string
	exports        []string
	include        []string
	exclude        []string

	token       string
	interactive bool
	oidcURL     string
	oidcToken   string

	dryRun       bool
	noProvenance bool

	apiURL    string
	webURL    string
	manageURL string
}

func newPublishCmd(configPath *string) *cobra.Command {
	flags := &publishFlags{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Prepare, authorize and upload one package version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), *configPath, flags)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", ".", "package root directory")
	cmd.Flags().StringVar(&flags.scope, "scope", "", "registry scope (without @)")
	cmd.Flags().StringVar(&flags.name, "name", "", "package name")
	cmd.Flags().StringVar(&flags.pkgVersion, "pkg-version", "", "package semver version")
	cmd.Flags().StringVar(&flags.configFilename, "config-filename", "deno.json", "base name of the package's own config file")
	cmd.Flags().StringArrayVar(&flags.exports, "export", nil, "specifier=path export entry, repeatable (default \".=mod.ts\")")
	cmd.Flags().StringArrayVar(&flags.include, "include", nil, "glob pattern to include")
	cmd.Flags().StringArrayVar(&flags.exclude, "exclude", nil, "glob pattern to exclude")

	cmd.Flags().StringVar(&flags.token, "token", "", "static bearer token")
	cmd.Flags().BoolVar(&flags.interactive, "interactive", false, "use the interactive device-grant flow")
	cmd.Flags().StringVar(&flags.oidcURL, "oidc-url", "", "OIDC federation endpoint")
	cmd.Flags().StringVar(&flags.oidcToken, "oidc-token", "", "CI-provided OIDC token")

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "prepare and print the package without publishing")
	cmd.Flags().BoolVar(&flags.noProvenance, "no-provenance", false, "skip attaching a provenance bundle")

	cmd.Flags().StringVar(&flags.apiURL, "api-url", "", "override the registry API base URL")
	cmd.Flags().StringVar(&flags.webURL, "web-url", "", "override the registry web base URL")
	cmd.Flags().StringVar(&flags.manageURL, "manage-url", "", "override the management site base URL")

	return cmd
}

func runPublish(ctx context.Context, configPath string, flags *publishFlags) error {
	cfg, err := jsrconfig.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	if flags.webURL != "" {
		cfg.WebURL = flags.webURL
	}
	if flags.manageURL != "" {
		cfg.ManageURL = flags.manageURL
	}
	if flags.noProvenance {
		cfg.DisableProvenance = true
	}

	if flags.scope == "" || flags.name == "" || flags.pkgVersion == "" {
		return fmt.Errorf("--scope, --name and --pkg-version are required")
	}

	exports, err := parseExports(flags.exports)
	if err != nil {
		return err
	}

	builder := archive.DefaultBuilder{}
	tarball, err := builder.Build(ctx, flags.root, archive.FilePatterns{Include: flags.include, Exclude: flags.exclude}, archive.IdentityUnfurler{}, nil)
	if err != nil {
		return fmt.Errorf("building archive: %w", err)
	}

	pkg := jsrpublish.PreparedPackage{
		Scope:          flags.scope,
		Name:           flags.name,
		Version:        flags.pkgVersion,
		Tarball:        tarball,
		ConfigFilename: flags.configFilename,
		Exports:        exports,
	}
	if err := pkg.Validate(); err != nil {
		return err
	}

	graph, err := publishorder.New([]string{pkg.Name}, nil)
	if err != nil {
		return err
	}

	method, err := resolveAuthMethod(flags)
	if err != nil {
		return err
	}

	client := registryapi.New(cfg.APIURL, cfg.WebURL)

	return publish.Run(ctx, client, graph, []jsrpublish.PreparedPackage{pkg}, publish.Config{
		ManageURL:  cfg.ManageURL,
		Auth:       method,
		Provenance: !cfg.DisableProvenance,
		DryRun:     flags.dryRun,
	})
}

func resolveAuthMethod(flags *publishFlags) (auth.Method, error) {
	switch {
	case flags.token != "":
		return auth.Method{Kind: auth.KindToken, Token: flags.token}, nil
	case flags.oidcURL != "" && flags.oidcToken != "":
		return auth.Method{Kind: auth.KindOIDC, OIDCURL: flags.oidcURL, OIDCToken: flags.oidcToken}, nil
	case flags.interactive:
		return auth.Method{Kind: auth.KindInteractive}, nil
	default:
		return auth.Method{}, fmt.Errorf("specify one of --token, --interactive, or --oidc-url/--oidc-token")
	}
}

func parseExports(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return map[string]string{".": "mod.ts"}, nil
	}
	exports := make(map[string]string, len(entries))
	for _, entry := range entries {
		specifier, path, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("--export %q: expected specifier=path", entry)
		}
		exports[specifier] = path
	}
	return exports, nil
}
