package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lord-carlos/traktor-api-client/internal/state"
)

const mimeJSON = "application/json"

// relayClient speaks the relay's plain HTTP surface.
type relayClient struct {
	base string
	http *http.Client
}

func newRelayClient(base string, timeout time.Duration) *relayClient {
	return &relayClient{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *relayClient) snapshot(ctx context.Context) (state.Snapshot, error) {
	var snap state.Snapshot
	err := c.do(ctx, http.MethodGet, "/state", nil, &snap)
	return snap, err
}

// post sends one producer update and returns the committed entity state.
func (c *relayClient) post(ctx context.Context, path string, update state.Fields) (state.Fields, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	var resp struct {
		Status string       `json:"status"`
		Data   state.Fields `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *relayClient) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", mimeJSON)
	if body != nil {
		req.Header.Set("Content-Type", mimeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("relay answered %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
