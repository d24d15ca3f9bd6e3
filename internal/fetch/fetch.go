// Package fetch downloads rustdoc JSON documents from docs.rs.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jcdickinson/cratemap/internal/config"
	"github.com/klauspost/compress/zstd"
)

// Client fetches rustdoc JSON over HTTP.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

func NewClient(cfg config.DocsRsConfig) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
	}
}

// RustdocJSON downloads and decompresses the rustdoc JSON document for a
// crate. The version "latest" is resolved by docs.rs via redirect. The
// returned bytes are the raw uncompressed document, not yet decoded.
func (c *Client) RustdocJSON(ctx context.Context, name, version string) ([]byte, error) {
	if version == "" {
		version = "latest"
	}

	url := fmt.Sprintf("%s/crate/%s/%s/json", c.baseURL, name, version)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("docs.rs returned %d for %s/%s: %s", resp.StatusCode, name, version, string(body))
	}

	// docs.rs serves zstd-compressed JSON
	decoder, err := zstd.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing rustdoc JSON: %w", err)
	}

	return data, nil
}
