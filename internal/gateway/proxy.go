package gateway

import (
	"context"
	"net/http"

	"github.com/joao-fontenele/storefront-checkout/internal/auth"
)

// forwardedHeaders are copied from the inbound request to the upstream one.
// Identity headers are only present when the gateway set them itself.
var forwardedHeaders = []string{
	"Content-Type",
	"Idempotency-Key",
	auth.HeaderUserID,
	auth.HeaderUserEmail,
	auth.HeaderUserRole,
}

type ServiceProxy struct {
	baseURL string
	client  *http.Client
}

func NewServiceProxy(baseURL string, client *http.Client) *ServiceProxy {
	return &ServiceProxy{
		baseURL: baseURL,
		client:  client,
	}
}

func (p *ServiceProxy) ForwardRequest(ctx context.Context, r *http.Request, path string) (*http.Response, error) {
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, err
	}

	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	return p.client.Do(req)
}
