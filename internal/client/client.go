// Package client is an HTTP client for the songs API.
package client

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

	"github.com/amanyadav21/moody-player/internal/api"
	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/mood"
)

const (
	userAgent = "moody-player/1.0"

	// DefaultTimeout bounds every read request.
	DefaultTimeout = 10 * time.Second

	// DefaultUploadTimeout bounds uploads.
	DefaultUploadTimeout = 2 * time.Minute
)

// Client talks to a songs API server.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the bound for read requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUploadTimeout sets the bound for uploads.
func WithUploadTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.uploadTimeout = d
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		timeout:       DefaultTimeout,
		uploadTimeout: DefaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SongsByMood fetches GET /api/songs. An empty mood requests the full catalog.
func (c *Client) SongsByMood(ctx context.Context, m mood.Mood) (*api.SongsResponse, error) {
	path := api.SongsPath
	if m != "" {
		path += "?" + url.Values{"mood": {string(m)}}.Encode()
	}
	var resp api.SongsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AllSongs fetches GET /api/all-songs.
func (c *Client) AllSongs(ctx context.Context) (*api.SongsResponse, error) {
	var resp api.SongsResponse
	if err := c.get(ctx, api.AllSongsPath, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchSongs returns the recommended songs for m.
func (c *Client) FetchSongs(ctx context.Context, m mood.Mood) ([]catalog.Song, error) {
	resp, err := c.SongsByMood(ctx, m)
	if err != nil {
		return nil, err
	}
	if resp.Songs == nil {
		return []catalog.Song{}, nil
	}
	return resp.Songs, nil
}

// UploadRequest is a song submission.
type UploadRequest struct {
	Title    string
	Artist   string
	Mood     string
	Filename string
	MimeType string
	Audio    io.Reader
}

// Upload submits a song with POST /api/songs.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*api.UploadResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range map[string]string{
		api.FieldTitle:  req.Title,
		api.FieldArtist: req.Artist,
		api.FieldMood:   req.Mood,
	} {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("writing field %s: %w", name, err)
		}
	}
	if req.Audio != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, api.FieldAudio, req.Filename))
		hdr.Set("Content-Type", req.MimeType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			return nil, fmt.Errorf("creating audio part: %w", err)
		}
		if _, err := io.Copy(part, req.Audio); err != nil {
			return nil, fmt.Errorf("writing audio part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+api.SongsPath, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	var resp api.UploadResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

// do executes req and decodes a 2xx JSON body into out. Failures are
// returned as *Error.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: classifyTransport(err), Err: fmt.Errorf("executing request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: classifyTransport(err), Status: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.ErrorResponse
		detail := strings.TrimSpace(string(body))
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
			detail = apiErr.Message
			if apiErr.Error != "" {
				detail += ": " + apiErr.Error
			}
		}
		return &Error{Kind: classifyStatus(resp.StatusCode), Status: resp.StatusCode, Err: errors.New(detail)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: Unknown, Status: resp.StatusCode, Err: fmt.Errorf("parsing response: %w", err)}
	}
	return nil
}
