package infinitude

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// transport issues requests against the Infinitude gateway. The gateway is
// a local Mojolicious app that serves JSON with assorted content-type
// headers, so bodies are decoded as JSON no matter what the header says.
type transport struct {
	baseURL string
	client  *http.Client
}

func newTransport(host string, port int, ssl bool, client *http.Client) *transport {
	scheme := "http"
	if ssl {
		scheme = "https"
	}
	if client == nil {
		client = &http.Client{}
	}
	return &transport{
		baseURL: fmt.Sprintf("%s://%s:%d", scheme, host, port),
		client:  client,
	}
}

func (t *transport) get(ctx context.Context, endpoint string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	return t.do(req)
}

func (t *transport) postForm(ctx context.Context, endpoint string, form url.Values) (map[string]any, error) {
	log.Debug().Str("endpoint", endpoint).Str("form", form.Encode()).Msg("POST to Infinitude")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return t.do(req)
}

func (t *transport) do(req *http.Request) (map[string]any, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("request to %s returned status %d", req.URL, resp.StatusCode)
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", req.URL, err)
	}
	return data, nil
}

func (t *transport) close() {
	t.client.CloseIdleConnections()
}
