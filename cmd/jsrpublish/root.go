package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jsr-io/jsr-publish/dcontext"
	"github.com/jsr-io/jsr-publish/version"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "jsrpublish",
		Short:         "Publish packages to a source-code registry",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a jsrconfig YAML file")

	root.AddCommand(newPublishCmd(&configPath))
	return root
}

// setupLogging configures the package-wide default logger from the
// resolved config's log_level and log_format values.
func setupLogging(level, format string) {
	logger := logrus.New()
	if parsed, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(parsed)
	}
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}
	dcontext.SetDefaultLogger(logger)
}
