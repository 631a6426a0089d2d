package export

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
)

// StepContentType is sent with uploaded STEP files.
const StepContentType = "model/step"

// Uploader copies finished exports to a pre-signed object storage URL.
type Uploader struct {
	// Client is shared across uploads to reuse connections. Nil means
	// http.DefaultClient.
	Client *http.Client
}

// Upload PUTs the file at path to url and returns the response status.
func (u *Uploader) Upload(ctx context.Context, path, url string) (string, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open export '%s': %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file stats for '%s': %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", StepContentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading export", "source", path, "size", stat.Size())

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Status, fmt.Errorf("upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded export", "status", resp.Status)
	return resp.Status, nil
}
