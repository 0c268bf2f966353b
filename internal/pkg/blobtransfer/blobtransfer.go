// Package blobtransfer moves job inputs and outputs between the queue
// service's blob storage and local scratch files: a short-lived URL is
// issued over the RPC channel, then the actual bytes are streamed over
// a plain HTTP client outside the RPC envelope.
package blobtransfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"zenpdf-worker/internal/pkg/queueclient"
)

const (
	downloadTimeout = 120 * time.Second
	chunkSize       = 1024 * 1024
)

// Transfer streams job artifacts to and from the queue's blob storage.
type Transfer struct {
	Queue       *queueclient.Client
	Client      *http.Client
	WorkerToken string
}

// New builds a Transfer using queue for URL issuance, authenticating
// the files:* RPCs with workerToken.
func New(queue *queueclient.Client, workerToken string) *Transfer {
	return &Transfer{Queue: queue, Client: &http.Client{Timeout: downloadTimeout}, WorkerToken: workerToken}
}

// Download fetches the blob identified by storageID into destPath,
// streaming in chunkSize pieces under a 120-second deadline.
func (t *Transfer) Download(ctx context.Context, storageID, destPath string) error {
	var out struct {
		URL string `json:"url"`
	}
	args := struct {
		StorageID   string `json:"storageId"`
		WorkerToken string `json:"workerToken"`
	}{StorageID: storageID, WorkerToken: t.WorkerToken}
	if err := t.Queue.Query(ctx, queueclient.PathIssueDownload, args, &out); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, out.URL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", storageID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", storageID, resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(f, resp.Body, buf); err != nil {
		return fmt.Errorf("stream download %s: %w", storageID, err)
	}
	return nil
}

// Upload streams srcPath to the queue's blob storage and returns the
// resulting storage id.
func (t *Transfer) Upload(ctx context.Context, srcPath string) (string, error) {
	var uploadURL struct {
		URL string `json:"url"`
	}
	args := struct {
		WorkerToken string `json:"workerToken"`
	}{WorkerToken: t.WorkerToken}
	if err := t.Queue.Mutation(ctx, queueclient.PathIssueUploadURL, args, &uploadURL); err != nil {
		return "", err
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL.URL, f)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", srcPath, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload %s: unexpected status %d", srcPath, resp.StatusCode)
	}

	var result struct {
		StorageID string `json:"storageId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response for %s: %w", srcPath, err)
	}
	return result.StorageID, nil
}
