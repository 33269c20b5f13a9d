package upload

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/auth"
	"github.com/jsr-io/jsr-publish/dcontext"
	"github.com/jsr-io/jsr-publish/registryapi"
)

// pollInterval is the fixed wait between publish-status polls. There is
// no overall timeout: a stuck task loops indefinitely until ctx is
// canceled, matching the upstream protocol's own silence on this point.
const pollInterval = 2 * time.Second

// Upload submits pkg's tarball, recovers from a duplicate-version
// response, and polls until the task reaches a terminal status. On
// success it returns the terminal PublishingTask.
func Upload(ctx context.Context, client *registryapi.Client, pkg jsrpublish.PreparedPackage, authz auth.Authorization) (PublishingTask, error) {
	ctx = dcontext.WithPackage(ctx, pkg.DisplayName())
	log := dcontext.GetLogger(ctx)

	url := fmt.Sprintf("%s/scopes/%s/packages/%s/versions/%s?config=/%s",
		client.APIBase, pkg.Scope, pkg.Name, pkg.Version, pkg.ConfigFilename)

	headers := http.Header{}
	headers.Set("Authorization", authz.Header())
	headers.Set("Content-Encoding", "gzip")

	var task PublishingTask
	err := client.DoRawBody(ctx, http.MethodPost, url, headers, "application/gzip", pkg.Tarball.Bytes, &task)
	if err != nil {
		recovered, ok, recoverErr := recoverDuplicate(err)
		if recoverErr != nil {
			return PublishingTask{}, fmt.Errorf("publishing %s: %w", pkg.DisplayName(), recoverErr)
		}
		if !ok {
			return PublishingTask{}, fmt.Errorf("publishing %s: %w", pkg.DisplayName(), err)
		}
		if recovered.Status == StatusSuccess {
			log.Info("already published, skipping")
			return recovered, nil
		}
		task = recovered
	}

	for !task.Status.terminal() {
		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return PublishingTask{}, ctx.Err()
		case <-timer.C:
		}

		statusURL := fmt.Sprintf("%s/publish_status/%s", client.APIBase, task.ID)
		if err := client.DoJSON(ctx, http.MethodGet, statusURL, nil, nil, &task); err != nil {
			return PublishingTask{}, fmt.Errorf("polling publish status for %s: %w", pkg.DisplayName(), err)
		}
	}

	if task.Error != nil {
		return PublishingTask{}, fmt.Errorf("publishing %s failed: %s", pkg.DisplayName(), task.Error.Message)
	}
	return task, nil
}

// recoverDuplicate inspects err for the duplicateVersionPublish server
// code and, if present, decodes the embedded task out of its loosely
// typed Data payload.
func recoverDuplicate(err error) (PublishingTask, bool, error) {
	var serverErr *registryapi.ServerError
	if !errors.As(err, &serverErr) || serverErr.Code != duplicateVersionPublishCode {
		return PublishingTask{}, false, nil
	}

	raw, ok := serverErr.Data["task"]
	if !ok {
		return PublishingTask{}, false, fmt.Errorf("duplicateVersionPublish response missing embedded task")
	}

	var task PublishingTask
	if err := mapstructure.Decode(raw, &task); err != nil {
		return PublishingTask{}, false, fmt.Errorf("decoding embedded duplicate-publish task: %w", err)
	}
	return task, true, nil
}
