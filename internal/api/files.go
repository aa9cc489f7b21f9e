package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// Upload limits mirror the files service
const (
	MaxFilenameLength = 255
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type uploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// RequestUploadURL asks the backend for a presigned upload target
func (c *Client) RequestUploadURL(ctx context.Context, filename, contentType string) (*UploadURL, error) {
	if err := validateUpload(filename, contentType); err != nil {
		return nil, err
	}
	var out UploadURL
	if err := c.post(ctx, "/api/files/upload-url", uploadURLRequest{Filename: filename, ContentType: contentType}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage uploads an image through a presigned URL and returns the file
// key to reference it in a post
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	target, err := c.RequestUploadURL(ctx, filename, contentType)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, r)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{Method: http.MethodPut, Path: "upload", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{Method: http.MethodPut, Path: "upload", StatusCode: resp.StatusCode}
	}
	return target.FileKey, nil
}

// ContentTypeFor guesses an image content type from a file name
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

func validateUpload(filename, contentType string) error {
	if filename == "" {
		return fmt.Errorf("filename is required")
	}
	if len(filename) > MaxFilenameLength {
		return fmt.Errorf("filename too long (max %d characters)", MaxFilenameLength)
	}
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return fmt.Errorf("filename must not contain path separators")
	}
	if !allowedImageTypes[contentType] {
		return fmt.Errorf("content type %q is not an allowed image type", contentType)
	}
	return nil
}
