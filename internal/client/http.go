package client

import (
	"crypto/tls"
	"net/http"

	"github.com/telhawk-systems/lambda-log-shipper/internal/config"
)

// NewHTTPClient returns the client used to reach the search endpoint.
func NewHTTPClient(cfg config.SearchConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.Insecure,
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}
