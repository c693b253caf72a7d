// Package drive talks to the Google Drive v3 REST API.
//
// The client holds no credentials. Every method takes the caller's access
// token and builds a per-call authorized transport from it, so concurrent
// requests for different users can never bleed tokens into each other.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/codehaven/codehaven/internal/domain/apperr"
	"golang.org/x/oauth2"
)

const (
	apiBase    = "https://www.googleapis.com/drive/v3"
	uploadBase = "https://www.googleapis.com/upload/drive/v3"

	// FolderMimeType is Drive's marker type for folders.
	FolderMimeType = "application/vnd.google-apps.folder"
)

// Client is a stateless Google Drive v3 client.
type Client struct {
	apiBase    string
	uploadBase string
	base       *http.Client
}

// New creates a Drive client against the public Google API endpoints.
func New() *Client {
	return &Client{
		apiBase:    apiBase,
		uploadBase: uploadBase,
		base:       &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL creates a client against alternate endpoints. Tests point
// this at an httptest server.
func NewWithBaseURL(api, upload string) *Client {
	return &Client{
		apiBase:    api,
		uploadBase: upload,
		base:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) httpClient(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
}

type fileResource struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

type fileList struct {
	Files []fileResource `json:"files"`
}

// statusErr maps a non-2xx Drive response to a domain error.
func statusErr(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("drive: %s: %w", resp.Status, apperr.ErrAuthExpired)
	case http.StatusNotFound:
		return fmt.Errorf("drive: %s: %w", resp.Status, apperr.ErrNotFound)
	default:
		return fmt.Errorf("drive: %s: %s: %w", resp.Status, strings.TrimSpace(string(body)), apperr.ErrRemoteUnavailable)
	}
}

func wrapTransport(err error) error {
	return fmt.Errorf("drive: %v: %w", err, apperr.ErrRemoteUnavailable)
}

func (c *Client) doJSON(ctx context.Context, accessToken, method, rawURL string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient(ctx, accessToken).Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusErr(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// FindFolder looks up a folder by name under parentID ("" means anywhere).
// Returns the folder ID, or ErrNotFound when no match exists.
func (c *Client) FindFolder(ctx context.Context, accessToken, name, parentID string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(name), FolderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}

	u := c.apiBase + "/files?" + url.Values{
		"q":      {q},
		"fields": {"files(id, name)"},
	}.Encode()

	var list fileList
	if err := c.doJSON(ctx, accessToken, http.MethodGet, u, nil, "", &list); err != nil {
		return "", err
	}
	if len(list.Files) == 0 {
		return "", apperr.ErrNotFound
	}
	return list.Files[0].ID, nil
}

// CreateFolder creates a folder under parentID ("" means Drive root) and
// returns its ID.
func (c *Client) CreateFolder(ctx context.Context, accessToken, name, parentID string) (string, error) {
	res := fileResource{Name: name, MimeType: FolderMimeType}
	if parentID != "" {
		res.Parents = []string{parentID}
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return "", err
	}

	var created fileResource
	err = c.doJSON(ctx, accessToken, http.MethodPost, c.apiBase+"/files?fields=id",
		bytes.NewReader(payload), "application/json", &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// EnsureFolder finds a folder by name under parentID, creating it when
// absent. Returns the folder ID either way.
func (c *Client) EnsureFolder(ctx context.Context, accessToken, name, parentID string) (string, error) {
	id, err := c.FindFolder(ctx, accessToken, name, parentID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}
	return c.CreateFolder(ctx, accessToken, name, parentID)
}

// CreateFile uploads a new file with the given content using a
// multipart/related request and returns its ID.
func (c *Client) CreateFile(ctx context.Context, accessToken, name, parentID, mimeType, content string) (string, error) {
	body, contentType, err := multipartUpload(fileResource{
		Name:    name,
		Parents: []string{parentID},
	}, mimeType, content)
	if err != nil {
		return "", err
	}

	var created fileResource
	err = c.doJSON(ctx, accessToken, http.MethodPost,
		c.uploadBase+"/files?uploadType=multipart&fields=id",
		body, contentType, &created)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// UpdateContent replaces a file's content.
func (c *Client) UpdateContent(ctx context.Context, accessToken, fileID, content string) error {
	u := fmt.Sprintf("%s/files/%s?uploadType=media", c.uploadBase, url.PathEscape(fileID))
	return c.doJSON(ctx, accessToken, http.MethodPatch, u,
		strings.NewReader(content), "application/octet-stream", nil)
}

// Download fetches a file's content.
func (c *Client) Download(ctx context.Context, accessToken, fileID string) (string, error) {
	u := fmt.Sprintf("%s/files/%s?alt=media", c.apiBase, url.PathEscape(fileID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient(ctx, accessToken).Do(req)
	if err != nil {
		return "", wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusErr(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapTransport(err)
	}
	return string(data), nil
}

// Rename changes a file or folder's name.
func (c *Client) Rename(ctx context.Context, accessToken, fileID, newName string) error {
	payload, err := json.Marshal(fileResource{Name: newName})
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/files/%s", c.apiBase, url.PathEscape(fileID))
	return c.doJSON(ctx, accessToken, http.MethodPatch, u,
		bytes.NewReader(payload), "application/json", nil)
}

// Move reparents a file or folder.
func (c *Client) Move(ctx context.Context, accessToken, fileID, oldParentID, newParentID string) error {
	u := fmt.Sprintf("%s/files/%s?%s", c.apiBase, url.PathEscape(fileID), url.Values{
		"addParents":    {newParentID},
		"removeParents": {oldParentID},
	}.Encode())
	return c.doJSON(ctx, accessToken, http.MethodPatch, u,
		strings.NewReader("{}"), "application/json", nil)
}

// Delete removes a file or folder. Deleting a folder removes its contents
// on the Drive side as well.
func (c *Client) Delete(ctx context.Context, accessToken, fileID string) error {
	u := fmt.Sprintf("%s/files/%s", c.apiBase, url.PathEscape(fileID))
	return c.doJSON(ctx, accessToken, http.MethodDelete, u, nil, "", nil)
}

// multipartUpload builds a multipart/related body: a JSON metadata part
// followed by the media part.
func multipartUpload(meta fileResource, mimeType, content string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, "", err
	}

	mediaHeader := textproto.MIMEHeader{}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	mediaHeader.Set("Content-Type", mimeType)
	mediaPart, err := w.CreatePart(mediaHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.WriteString(mediaPart, content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, "multipart/related; boundary=" + w.Boundary(), nil
}

// escapeQuery escapes single quotes and backslashes for Drive query strings.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
