// Package netx holds helpers for talking to object storage through
// presigned URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxDownload caps the body read from a presigned URL.
const maxDownload = 64 << 20

// DownloadPresigned fetches the object behind a presigned GET URL.
func DownloadPresigned(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownload {
		return nil, fmt.Errorf("download exceeds %d bytes", maxDownload)
	}
	return data, nil
}
