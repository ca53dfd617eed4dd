// Package githubapi publishes archive documents to a GitHub repository
// through the contents API. Writes are idempotent upserts: existing files
// are updated with their current SHA as a revision guard, missing files
// are created after their ancestor folders are bootstrapped.
package githubapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/umunnaprecious2-prog/brain-box/internal/detect"
)

// ErrNotFound signals that no object exists at a repository path. It is
// expected control flow driving the create-vs-update branch, not a fault.
var ErrNotFound = errors.New("github: path not found")

// CategoryFolders maps local content categories to archive folder names.
var CategoryFolders = map[string]string{
	detect.CategoryImages:    "pictures",
	detect.CategoryDocuments: "documents",
	detect.CategoryLinks:     "links",
	detect.CategoryNotes:     "notes",
}

// topLevelFolders are bootstrapped in the archive repository. "audios"
// is reserved for voice content.
var topLevelFolders = []string{"pictures", "documents", "audios", "links", "notes"}

// RemoteFile describes an existing object in the repository.
type RemoteFile struct {
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
}

// Publisher is the remote-archive interface the pipeline depends on.
type Publisher interface {
	EnsureCategoryFolders(ctx context.Context) error
	PublishText(ctx context.Context, folderPath, filename, content, commitMessage string) (string, error)
	PublishBinary(ctx context.Context, folderPath, filename string, data []byte, commitMessage string) (string, error)
}

// Client talks to the GitHub contents API for one repository.
type Client struct {
	apiURL string
	repo   string // owner/name
	token  string
	client *http.Client
}

var _ Publisher = (*Client)(nil)

// NewClient creates a GitHub client for the given repository.
func NewClient(apiURL, repo, token string) *Client {
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		repo:   repo,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// PublishText creates or updates a text file. Returns the file's HTML URL.
func (c *Client) PublishText(ctx context.Context, folderPath, filename, content, commitMessage string) (string, error) {
	return c.publish(ctx, joinPath(folderPath, filename), []byte(content), commitMessage)
}

// PublishBinary creates or updates a binary file. Returns the file's HTML URL.
func (c *Client) PublishBinary(ctx context.Context, folderPath, filename string, data []byte, commitMessage string) (string, error) {
	return c.publish(ctx, joinPath(folderPath, filename), data, commitMessage)
}

// publish is the idempotent upsert: read the current object, update with
// its SHA when present, create (bootstrapping ancestors) when absent.
// Failures other than not-found propagate to the caller.
func (c *Client) publish(ctx context.Context, path string, data []byte, commitMessage string) (string, error) {
	existing, err := c.GetContents(ctx, path)
	switch {
	case err == nil:
		url, err := c.putFile(ctx, path, data, commitMessage, existing.SHA)
		if err != nil {
			return "", err
		}
		log.Printf("Updated file in GitHub: %s", path)
		return url, nil
	case errors.Is(err, ErrNotFound):
		if err := c.ensureParentFolders(ctx, parentPath(path)); err != nil {
			return "", err
		}
		url, err := c.putFile(ctx, path, data, commitMessage, "")
		if err != nil {
			return "", err
		}
		log.Printf("Created file in GitHub: %s", path)
		return url, nil
	default:
		return "", err
	}
}

// EnsureCategoryFolders bootstraps the fixed top-level archive folders.
// Existence is probed per folder; only missing ones get a placeholder.
func (c *Client) EnsureCategoryFolders(ctx context.Context) error {
	for _, folder := range topLevelFolders {
		_, err := c.GetContents(ctx, folder)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := c.createPlaceholder(ctx, folder); err != nil {
			return err
		}
	}
	return nil
}

// ensureParentFolders creates every missing ancestor of folderPath,
// root to leaf, each with a .gitkeep placeholder.
func (c *Client) ensureParentFolders(ctx context.Context, folderPath string) error {
	if folderPath == "" {
		return nil
	}
	parts := strings.Split(folderPath, "/")
	for i := 1; i <= len(parts); i++ {
		partial := strings.Join(parts[:i], "/")
		_, err := c.GetContents(ctx, partial)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := c.createPlaceholder(ctx, partial); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) createPlaceholder(ctx context.Context, folder string) error {
	_, err := c.putFile(ctx, folder+"/.gitkeep", nil, fmt.Sprintf("Create folder %s/", folder), "")
	if err != nil {
		return fmt.Errorf("creating folder %s: %w", folder, err)
	}
	log.Printf("Created GitHub folder: %s/", folder)
	return nil
}

// GetContents reads the object at path. Returns ErrNotFound for 404;
// any other non-200 response is an error the caller must surface.
func (c *Client) GetContents(ctx context.Context, path string) (*RemoteFile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.contentsURL(path), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github API error: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var file RemoteFile
		if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
			// Directories decode to arrays; callers probing folders only
			// care that the path exists.
			return &RemoteFile{Path: path}, nil
		}
		return &file, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github API returned %d for %s: %s", resp.StatusCode, path, string(body))
	}
}

// putFile creates (sha == "") or updates (sha set) a file via the
// contents API and returns the resulting HTML URL.
func (c *Client) putFile(ctx context.Context, path string, data []byte, commitMessage, sha string) (string, error) {
	payload := map[string]any{
		"message": commitMessage,
		"content": base64.StdEncoding.EncodeToString(data),
	}
	if sha != "" {
		payload["sha"] = sha
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", c.contentsURL(path), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("github API returned %d for %s: %s", resp.StatusCode, path, string(respBody))
	}

	var result struct {
		Content RemoteFile `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return result.Content.HTMLURL, nil
}

func (c *Client) contentsURL(path string) string {
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(path, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return fmt.Sprintf("%s/repos/%s/contents/%s", c.apiURL, c.repo, strings.Join(escaped, "/"))
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func joinPath(folderPath, filename string) string {
	folderPath = strings.Trim(folderPath, "/")
	if folderPath == "" {
		return filename
	}
	return folderPath + "/" + filename
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}
