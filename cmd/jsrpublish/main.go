// Command jsrpublish is the CLI entrypoint wiring the publish pipeline
// together: load configuration, build a registry client, authorize, and
// run the orchestrator against a single prepared package.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
