package client

import (
	"fmt"
	"net/url"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/telhawk-systems/lambda-log-shipper/internal/config"
)

type OpenSearchClient struct {
	client *opensearch.Client
}

// NewOpenSearchClient connects to the cluster behind the search URL. Only the
// scheme and host of the URL are used, so a bulk URL such as
// https://host:9200/_bulk is accepted.
func NewOpenSearchClient(cfg config.SearchConfig) (*OpenSearchClient, error) {
	address, err := BaseAddress(cfg.URL)
	if err != nil {
		return nil, err
	}

	osCfg := opensearch.Config{
		Addresses:    []string{address},
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    NewHTTPClient(cfg).Transport,
		DisableRetry: true,
	}

	client, err := opensearch.NewClient(osCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	return &OpenSearchClient{client: client}, nil
}

func (c *OpenSearchClient) Client() *opensearch.Client {
	return c.client
}

// BaseAddress reduces an endpoint URL to scheme://host.
func BaseAddress(endpoint string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("search url not configured")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid search url %q: scheme and host required", endpoint)
	}
	return u.Scheme + "://" + u.Host, nil
}
