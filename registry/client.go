package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/halstead/image-delivery-backend/interfaces"
)

// Client implements interfaces.ImageIndex against an external image
// metadata service speaking JSON over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a metadata service client for the given base URL.
// Passing a nil httpClient selects a default client with a 10 second
// timeout; metadata responses are small, so unlike image data transfers
// they get a deadline.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpClient,
	}
}

// ImageMetadata fetches the descriptor for imageID. Unknown IDs are
// reported as interfaces.ErrImageNotFound; any other non-200 response
// becomes an error carrying the service's status and body.
func (c *Client) ImageMetadata(ctx context.Context, imageID string) (*interfaces.ImageDescriptor, error) {
	endpoint := fmt.Sprintf("%s/v1/images/%s/metadata", c.baseURL, url.PathEscape(imageID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building metadata request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, interfaces.ErrImageNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("metadata service returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var desc interfaces.ImageDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, fmt.Errorf("decoding image descriptor: %w", err)
	}
	if desc.ID == "" {
		desc.ID = imageID
	}

	return &desc, nil
}
