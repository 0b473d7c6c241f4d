// Package blobstore wraps the object-storage HTTP API that holds raw
// recordings. Objects are addressed by path; reads go through short-lived
// signed URLs.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/attendly/backend/pkg/gen"
	"github.com/attendly/backend/pkg/provider"
)

const providerName = "blobstore"

type Client struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

type Config struct {
	URL     string
	APIKey  string
	Bucket  string
	Timeout time.Duration
}

type UploadResult struct {
	Path string
	Size int64
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		bucket:     cfg.Bucket,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ObjectPath builds the storage path for a new recording:
// users/{ownerID}/meetings/{timestamp}_{uuid}{ext}
func ObjectPath(ownerID, originalName string) string {
	ext := path.Ext(originalName)
	return fmt.Sprintf("users/%s/meetings/%d_%s%s",
		ownerID, time.Now().UnixMilli(), gen.UUID().Next().String(), ext)
}

// Upload stores the object. Existing objects are never overwritten.
func (c *Client) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (*UploadResult, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, "upload", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "3600")
	req.Header.Set("x-upsert", "false")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewError(provider.Unavailable, providerName, "upload", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, provider.NewError(provider.Unavailable, providerName, "upload",
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}

	return &UploadResult{
		Path: objectPath,
		Size: int64(len(data)),
	}, nil
}

// SignURL issues a fresh time-limited read URL for a stored object. Every
// call yields a new URL for the same underlying object.
func (c *Client) SignURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.baseURL, c.bucket, objectPath)

	payload, err := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", provider.NewError(provider.InvalidContent, providerName, "sign_url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", provider.NewError(provider.Unavailable, providerName, "sign_url", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", provider.NewError(provider.Unavailable, providerName, "sign_url", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", provider.NewError(provider.Unavailable, providerName, "sign_url", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", provider.NewError(provider.Unavailable, providerName, "sign_url",
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}

	var parsed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", provider.NewError(provider.ParseError, providerName, "sign_url", err)
	}
	if parsed.SignedURL == "" {
		return "", provider.NewError(provider.InvalidContent, providerName, "sign_url",
			fmt.Errorf("empty signed url"))
	}

	return c.baseURL + "/storage/v1" + parsed.SignedURL, nil
}

// Delete removes stored objects by path.
func (c *Client) Delete(ctx context.Context, objectPaths ...string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s", c.baseURL, c.bucket)

	payload, err := json.Marshal(map[string][]string{"prefixes": objectPaths})
	if err != nil {
		return provider.NewError(provider.InvalidContent, providerName, "delete", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return provider.NewError(provider.Unavailable, providerName, "delete", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return provider.NewError(provider.Unavailable, providerName, "delete", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return provider.NewError(provider.Unavailable, providerName, "delete",
			fmt.Errorf("HTTP %d: %s", resp.StatusCode, body))
	}

	return nil
}
