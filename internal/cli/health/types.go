// Package health decodes the responses of a running cafefs health server.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Response is the envelope returned by /health and /health/ready.
type Response struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Component is one entry of a readiness report.
type Component struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// Healthy reports whether the server considered itself healthy.
func (r *Response) Healthy() bool {
	return r.Status == "healthy"
}

// Components decodes the readiness component list.
func (r *Response) Components() ([]Component, error) {
	if len(r.Data) == 0 {
		return nil, nil
	}
	var out []Component
	if err := json.Unmarshal(r.Data, &out); err != nil {
		return nil, fmt.Errorf("decode components: %w", err)
	}
	return out, nil
}

// Headers implements output.TableRenderer.
func (r *Response) Headers() []string {
	return []string{"Component", "Status", "Latency", "Error"}
}

// Rows implements output.TableRenderer. A response without components
// renders as a single row for the server itself.
func (r *Response) Rows() [][]string {
	components, err := r.Components()
	if err != nil || len(components) == 0 {
		return [][]string{{"cafefs", r.Status, "", r.Error}}
	}
	rows := make([][]string, 0, len(components))
	for _, c := range components {
		rows = append(rows, []string{c.Name, c.Status, c.Latency, c.Error})
	}
	return rows
}

// Fetch queries url and decodes the envelope. A 503 still yields a decoded
// response.
func Fetch(ctx context.Context, client *http.Client, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return &out, nil
}
