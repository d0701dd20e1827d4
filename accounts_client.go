package oracleworker

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const accountsTimeout = 30 * time.Second

// AccountServiceClient implements Cleaner against the account service's
// internal maintenance endpoint.
type AccountServiceClient struct {
	baseURL string
	client  *http.Client
}

func NewAccountServiceClient(baseURL string) *AccountServiceClient {
	return &AccountServiceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: accountsTimeout},
	}
}

// CleanupTempAccounts asks the account service to purge stale guest
// accounts.
func (c *AccountServiceClient) CleanupTempAccounts(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/internal/cleanup-temp-accounts", nil)
	if err != nil {
		return errors.Wrap(err, "building cleanup request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "cleanup call")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("cleanup http %d: %s", resp.StatusCode, previewBody(body))
	}
	return nil
}
