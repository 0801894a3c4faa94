// Package pricer resolves token market data from external providers.
package pricer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"solpaper/internal/domain"
)

// ErrNoData is returned by a provider when it has no data for the token.
// It is an ordinary outcome, not a failure: the resolver moves on to the
// next provider.
var ErrNoData = errors.New("no data found")

// defaultTimeout bounds every outbound provider call so one unreachable feed
// cannot stall the resolution chain beyond the sum of per-provider timeouts.
const defaultTimeout = 5 * time.Second

// TokenProvider fetches a full token quote from one external price feed.
type TokenProvider interface {
	Name() string
	FetchQuote(ctx context.Context, address string) (*domain.TokenQuote, error)
}

// PriceProvider fetches the slim price sample used to refresh open positions.
type PriceProvider interface {
	Name() string
	FetchPrice(ctx context.Context, address string) (*domain.PriceSample, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON issues a GET request and decodes the JSON body into out.
// A 404 maps to ErrNoData; any other non-2xx status is a transport error.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoData
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func orUnknown(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
