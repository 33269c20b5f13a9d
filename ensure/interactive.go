package ensure

import (
	"context"
	"fmt"
	"time"

	"github.com/jsr-io/jsr-publish/auth"
	"github.com/jsr-io/jsr-publish/dcontext"
	"github.com/jsr-io/jsr-publish/registryapi"
)

// pollInterval is the fixed wait between existence checks while waiting
// for the user to finish creating a scope or package on the management
// site.
const pollInterval = 3 * time.Second

// createInteractively prints m's creation URL, rings the bell,
// best-effort opens a browser, then polls until the entity exists.
func createInteractively(ctx context.Context, client *registryapi.Client, m missing) error {
	url := m.createURL()
	fmt.Println(url)
	auth.RingBell()
	auth.OpenBrowser(url)

	log := dcontext.GetLogger(ctx)
	for {
		var found bool
		var err error
		if m.kind == "scope" {
			found, err = scopeExists(ctx, client, m.scope)
		} else {
			found, err = packageExists(ctx, client, m.scope, m.name)
		}
		if err != nil {
			return err
		}
		if found {
			return nil
		}

		log.Infof("waiting for %s %q to be created...", m.kind, m.name)
		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
