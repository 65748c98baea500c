// Package api is the transport to the dashboard backend: a JSON call
// primitive that injects tenant headers, plus typed wrappers for the channel
// pairing and chat endpoints.
package api

import (
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	tenant     TenantProvider
	httpClient *http.Client
}

func NewClient(baseURL string, tenant TenantProvider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if tenant == nil {
		tenant = StaticTenant{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tenant:     tenant,
		httpClient: httpClient,
	}
}
