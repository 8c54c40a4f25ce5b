package nav

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nwah/fujisuite-tracker/internal/monitoring"
)

// defaultUserAgent identifies the client to public OSM services, which reject
// anonymous requests.
const defaultUserAgent = "fujisuite-tracker/1.0"

// maxErrorBody caps how much of an error response is echoed into errors
const maxErrorBody = 512

type httpDoer struct {
	client    *http.Client
	userAgent string
}

func newHTTPDoer(cfg NavConfig) httpDoer {
	timeout := cfg.TimeoutMS
	if timeout <= 0 {
		timeout = DefaultTimeoutMS
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return httpDoer{
		client:    &http.Client{Timeout: time.Duration(timeout) * time.Millisecond},
		userAgent: ua,
	}
}

// do sends the request and returns the body of a 200 response. Any other
// outcome is reported as ErrServiceUnavailable, except that non-200 bodies are
// also returned so callers can interpret provider error payloads.
func (d httpDoer) do(ctx context.Context, method, apiURL string, payload []byte) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: building request: %v", ErrServiceUnavailable, err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	monitoring.Logf("Debug: %s %s", method, apiURL)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading response body: %v", ErrServiceUnavailable, err)
	}
	return data, resp.StatusCode, nil
}

func (d httpDoer) getJSON(ctx context.Context, apiURL string, out interface{}) error {
	data, status, err := d.do(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, status, truncate(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrServiceUnavailable, err)
	}
	return nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
