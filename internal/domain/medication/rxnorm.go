package medication

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kanishkhaa/smartrx/internal/platform/httpclient"
)

// RxNormClient resolves drug names against the RxNav REST API.
type RxNormClient struct {
	client *httpclient.Client
}

// NewRxNormClient wraps a client whose BaseURL points at RxNav.
func NewRxNormClient(client *httpclient.Client) *RxNormClient {
	return &RxNormClient{client: client}
}

type rxcuiResponse struct {
	IDGroup struct {
		Name     string   `json:"name"`
		RxNormID []string `json:"rxnormId"`
	} `json:"idGroup"`
}

// LookupRxCUI returns the first RxNorm id for name, or "" when none exists.
func (c *RxNormClient) LookupRxCUI(ctx context.Context, name string) (string, error) {
	var resp rxcuiResponse
	path := "/REST/rxcui.json?name=" + url.QueryEscape(name)
	if err := c.client.DoJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("rxnorm lookup %q: %w", name, err)
	}
	if len(resp.IDGroup.RxNormID) == 0 {
		return "", nil
	}
	return resp.IDGroup.RxNormID[0], nil
}
