package reference

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// FetchProgressFunc is called as a download proceeds, with the number of
// bytes written so far and the total size (-1 if the server didn't report
// a Content-Length). Progress reporting is left entirely to the caller: the
// CLI prints a progress bar, but a library caller may ignore it.
type FetchProgressFunc func(downloaded, total int64)

// Fetcher downloads a reference FASTA file from a remote URL.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher creates a Fetcher with a generous timeout: reference FASTAs
// run into the gigabytes.
func NewFetcher() *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: 30 * time.Minute}}
}

// Fetch downloads url to destPath, reporting progress through report (which
// may be nil). If destPath already exists, Fetch is a no-op.
func (f *Fetcher) Fetch(url, destPath string, report FetchProgressFunc) error {
	if _, err := os.Stat(destPath); err == nil {
		return nil
	}

	resp, err := f.Client.Get(url)
	if err != nil {
		return fmt.Errorf("fetch reference: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch reference: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create reference directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create reference file: %w", err)
	}

	pw := &progressWriter{total: resp.ContentLength, report: report}
	_, err = io.Copy(out, io.TeeReader(resp.Body, pw))
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("download reference: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename reference file: %w", err)
	}
	return nil
}

type progressWriter struct {
	total      int64
	downloaded int64
	report     FetchProgressFunc
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)
	if pw.report != nil {
		pw.report(pw.downloaded, pw.total)
	}
	return n, nil
}
