package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const (
	imageKitUploadURL = "https://upload.imagekit.io/api/v1/files/upload"
	imageKitFilesURL  = "https://api.imagekit.io/v1/files"
)

// ImageKitConfig holds ImageKit credentials.
type ImageKitConfig struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
}

// ImageKit uploads objects to ImageKit's upload API.
type ImageKit struct {
	cfg        ImageKitConfig
	httpClient *http.Client
	uploadURL  string
	filesURL   string
}

// ImageKitOption configures an ImageKit store.
type ImageKitOption func(*ImageKit)

// WithUploadURL overrides the upload endpoint.
func WithUploadURL(u string) ImageKitOption {
	return func(k *ImageKit) {
		k.uploadURL = u
	}
}

// WithFilesURL overrides the file management endpoint used for deletes.
func WithFilesURL(u string) ImageKitOption {
	return func(k *ImageKit) {
		k.filesURL = u
	}
}

// WithHTTPClient sets the HTTP client used for uploads.
func WithHTTPClient(c *http.Client) ImageKitOption {
	return func(k *ImageKit) {
		if c != nil {
			k.httpClient = c
		}
	}
}

// NewImageKit creates an ImageKit store.
func NewImageKit(cfg ImageKitConfig, opts ...ImageKitOption) *ImageKit {
	k := &ImageKit{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		uploadURL: imageKitUploadURL,
		filesURL:  imageKitFilesURL,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

type imageKitResponse struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	FilePath string `json:"filePath"`
	URL      string `json:"url"`
	FileType string `json:"fileType"`
	Message  string `json:"message"`
}

// Upload sends obj to ImageKit as a multipart form.
func (k *ImageKit) Upload(ctx context.Context, obj Object) (*FileData, error) {
	if obj.Name == "" || len(obj.Data) == 0 {
		return nil, ErrEmptyObject
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", obj.Name)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(obj.Data); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	fields := map[string]string{
		"fileName":          obj.Name,
		"folder":            obj.Folder,
		"useUniqueFileName": "false",
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("writing field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.SetBasicAuth(k.cfg.PrivateKey, "")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var out imageKitResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing upload response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, out.Message)
	}
	if out.URL == "" {
		return nil, fmt.Errorf("upload response has no url")
	}

	return &FileData{
		FileID:   out.FileID,
		Name:     out.Name,
		Size:     out.Size,
		FilePath: out.FilePath,
		URL:      out.URL,
		FileType: out.FileType,
	}, nil
}

// Delete removes an uploaded file by its ImageKit file id.
func (k *ImageKit) Delete(ctx context.Context, fd *FileData) error {
	if fd == nil || fd.FileID == "" {
		return ErrEmptyObject
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, k.filesURL+"/"+url.PathEscape(fd.FileID), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(k.cfg.PrivateKey, "")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delete rejected with status %d", resp.StatusCode)
	}
	return nil
}

var (
	_ Store   = (*ImageKit)(nil)
	_ Deleter = (*ImageKit)(nil)
)
