package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Uploader puts files into an Object Storage bucket through a
// pre-authenticated request URL that grants read and write.
type Uploader struct {
	parURL string
	client *http.Client
}

func NewUploader(parURL string) *Uploader {
	return &Uploader{
		parURL: parURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload PUTs the file at localPath as objectName and returns the URL it can
// be downloaded from.
func (u *Uploader) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	if u.parURL == "" {
		return "", fmt.Errorf("no upload url configured")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", localPath, err)
	}

	target := u.parURL + url.PathEscape(objectName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, f)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code %d uploading %s", resp.StatusCode, objectName)
	}

	return target, nil
}
