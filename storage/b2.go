package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	authorizeURL = "https://api.backblazeb2.com/b2api/v2/b2_authorize_account"

	// Tokens are valid for 24 hours; refresh well before that.
	authLifetime = 12 * time.Hour

	maxListFileCount = 1000
)

// Client talks to the Backblaze B2 native API. It implements the
// service.BlobStore interface.
type Client struct {
	httpClient *http.Client
	authURL    string
	keyID      string
	key        string
	bucketID   string
	bucketName string

	mu       sync.Mutex
	auth     *authorization
	authedAt time.Time
}

type authorization struct {
	APIURL      string `json:"apiUrl"`
	DownloadURL string `json:"downloadUrl"`
	Token       string `json:"authorizationToken"`
}

// NewClient creates a B2 blob store client for one bucket
func NewClient(keyID, key, bucketID, bucketName string) (*Client, error) {
	if keyID == "" || key == "" {
		return nil, fmt.Errorf("b2 application key id and key are required")
	}
	if bucketID == "" || bucketName == "" {
		return nil, fmt.Errorf("b2 bucket id and name are required")
	}

	return &Client{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		authURL:    authorizeURL,
		keyID:      keyID,
		key:        key,
		bucketID:   bucketID,
		bucketName: bucketName,
	}, nil
}

// authorize returns a live authorization, fetching a fresh one when the
// cached token has aged out.
func (c *Client) authorize(ctx context.Context) (*authorization, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.auth != nil && time.Since(c.authedAt) < authLifetime {
		return c.auth, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build authorize request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("b2 authorize failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("b2 authorize returned status %d", resp.StatusCode)
	}

	var auth authorization
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("failed to decode authorize response: %w", err)
	}

	c.auth = &auth
	c.authedAt = time.Now()

	log.Debug("Authorized with Backblaze B2")

	return c.auth, nil
}

// call posts a JSON API request with the account token
func (c *Client) call(ctx context.Context, apiName string, request, response any) error {
	auth, err := c.authorize(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", apiName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, auth.APIURL+"/b2api/v2/"+apiName, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", apiName, err)
	}
	req.Header.Set("Authorization", auth.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", apiName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d: %s", apiName, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", apiName, err)
	}

	return nil
}

type uploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	Token     string `json:"authorizationToken"`
}

// Upload stores data under name and returns the public file URL
func (c *Client) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	var target uploadTarget
	err := c.call(ctx, "b2_get_upload_url", map[string]string{"bucketId": c.bucketID}, &target)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}

	sum := sha1.Sum(data)
	req.Header.Set("Authorization", target.Token)
	req.Header.Set("X-Bz-File-Name", escapeFileName(name))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Bz-Content-Sha1", hex.EncodeToString(sum[:]))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	auth, err := c.authorize(ctx)
	if err != nil {
		return "", err
	}

	fileURL := fmt.Sprintf("%s/file/%s/%s", auth.DownloadURL, c.bucketName, name)

	log.WithFields(log.Fields{
		"fileName": name,
		"bytes":    len(data),
	}).Info("Uploaded file to bucket")

	return fileURL, nil
}

type listFileNamesResponse struct {
	Files []struct {
		FileName string `json:"fileName"`
	} `json:"files"`
}

// ListFileNames returns the names of files under a prefix
func (c *Client) ListFileNames(ctx context.Context, prefix string) ([]string, error) {
	var decoded listFileNamesResponse
	err := c.call(ctx, "b2_list_file_names", map[string]any{
		"bucketId":     c.bucketID,
		"prefix":       prefix,
		"delimiter":    "/",
		"maxFileCount": maxListFileCount,
	}, &decoded)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(decoded.Files))
	for _, f := range decoded.Files {
		names = append(names, f.FileName)
	}
	return names, nil
}

type downloadAuthResponse struct {
	Token string `json:"authorizationToken"`
}

// PresignURL returns a download URL that stops working after validFor
func (c *Client) PresignURL(ctx context.Context, fileName string, validFor time.Duration) (string, error) {
	var decoded downloadAuthResponse
	err := c.call(ctx, "b2_get_download_authorization", map[string]any{
		"bucketId":               c.bucketID,
		"fileNamePrefix":         fileName,
		"validDurationInSeconds": int(validFor.Seconds()),
	}, &decoded)
	if err != nil {
		return "", err
	}

	auth, err := c.authorize(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/file/%s/%s?Authorization=%s",
		auth.DownloadURL, c.bucketName, fileName, url.QueryEscape(decoded.Token)), nil
}

// escapeFileName percent-encodes each path segment, keeping the
// separators that B2 treats as directory structure.
func escapeFileName(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
