package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	jsrpublish "github.com/jsr-io/jsr-publish"
	"github.com/jsr-io/jsr-publish/dcontext"
	"github.com/jsr-io/jsr-publish/registryapi"
)

type createAuthorizationRequest struct {
	Challenge   string       `json:"challenge"`
	Permissions []permission `json:"permissions"`
}

type createAuthorizationResponse struct {
	VerificationURL string `json:"verificationUrl"`
	Code            string `json:"code"`
	ExchangeToken   string `json:"exchangeToken"`
	PollInterval    int    `json:"pollInterval"`
}

type exchangeRequest struct {
	ExchangeToken string `json:"exchangeToken"`
	Verifier      string `json:"verifier"`
}

type exchangeResponse struct {
	Token string `json:"token"`
	User  struct {
		Name string `json:"name"`
	} `json:"user"`
}

// authorizationPendingCode is the single ServerError code the exchange
// poll recognizes and recovers from; every other error aborts the flow.
const authorizationPendingCode = "authorizationPending"

// authorizeInteractive runs the device-grant flow (4.4.2): it requests a
// challenge/verifier pair covering every package's publish permission,
// directs the user to approve it out of band, then polls the exchange
// endpoint until the grant is approved.
func authorizeInteractive(ctx context.Context, client *registryapi.Client, packages []jsrpublish.PreparedPackage) (map[Key]Authorization, error) {
	verifier := uuid.New().String()
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.StdEncoding.EncodeToString(sum[:])

	var created createAuthorizationResponse
	err := client.DoJSON(ctx, http.MethodPost, client.APIBase+"/authorizations", nil,
		createAuthorizationRequest{Challenge: challenge, Permissions: permissionsFor(packages)}, &created)
	if err != nil {
		return nil, fmt.Errorf("starting device grant: %w", err)
	}

	approveURL := fmt.Sprintf("%s?code=%s", created.VerificationURL, created.Code)
	fmt.Println(approveURL)
	RingBell()
	OpenBrowser(approveURL)

	token, err := pollExchange(ctx, client, created.ExchangeToken, verifier, created.PollInterval)
	if err != nil {
		return nil, err
	}

	shared := bearer(token)
	out := make(map[Key]Authorization, len(packages))
	for _, pkg := range packages {
		out[keyOf(pkg)] = shared
	}
	return out, nil
}

// pollExchange repeats POST /authorizations/exchange every pollInterval
// seconds, recovering from the single "authorizationPending" code, until
// the exchange succeeds, fails with any other error, or ctx is canceled.
func pollExchange(ctx context.Context, client *registryapi.Client, exchangeToken, verifier string, pollInterval int) (string, error) {
	interval := time.Duration(pollInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	for {
		var resp exchangeResponse
		err := client.DoJSON(ctx, http.MethodPost, client.APIBase+"/authorizations/exchange", nil,
			exchangeRequest{ExchangeToken: exchangeToken, Verifier: verifier}, &resp)
		if err == nil {
			dcontext.GetLogger(ctx).Infof("authorized as %s", resp.User.Name)
			return resp.Token, nil
		}

		var serverErr *registryapi.ServerError
		if !errors.As(err, &serverErr) || serverErr.Code != authorizationPendingCode {
			return "", fmt.Errorf("exchanging device grant: %w", err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}
