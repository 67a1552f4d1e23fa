// Package batch runs multiple independent VCF validations concurrently.
// Each source gets its own vcf.Validator with no shared state — a scan is
// single-threaded and independent; this package only adds a worker pool
// around many such scans, never parallelism within one.
package batch

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/inodb/vcf-validator/internal/vcf"
)

// WorkItem identifies one file to validate, tagged with its position in the
// caller's original argument list so OrderedCollect can restore that order.
type WorkItem struct {
	Seq  int
	Path string

	// ReportBothOnConflict is forwarded to vcf.WithReportBothOnConflict
	// for this file's scan.
	ReportBothOnConflict bool
}

// Report is the outcome of validating one file.
type Report struct {
	Path        string
	RecordCount int
	IsAccepting bool
	Diagnostics []vcf.Diagnostic
	Source      *vcf.Source
}

// WorkResult holds the validation outcome for a single file.
type WorkResult struct {
	Seq    int
	Path   string
	Report Report
	Err    error
}

// ParallelValidate validates work items using a pool of workers, one
// independent vcf.Validator per file. Results are sent to the returned
// channel in arrival order (not sequence order); use OrderedCollect to
// consume results in argument order. If workers is 0, runtime.NumCPU() is
// used.
func ParallelValidate(items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				report, err := validateFile(item.Path, item.ReportBothOnConflict)
				results <- WorkResult{Seq: item.Seq, Path: item.Path, Report: report, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func validateFile(path string, reportBothOnConflict bool) (Report, error) {
	var r io.ReadCloser
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return Report{}, fmt.Errorf("open %s: %w", path, err)
		}
		r = f
	}
	defer r.Close()

	sink := vcf.NewSliceSink()
	v, err := vcf.ValidateReader(path, r, sink, vcf.WithReportBothOnConflict(reportBothOnConflict))
	if err != nil {
		return Report{}, fmt.Errorf("validate %s: %w", path, err)
	}

	return Report{
		Path:        path,
		RecordCount: v.RecordCount(),
		IsAccepting: v.IsAccepting(),
		Diagnostics: sink.Diagnostics(),
		Source:      v.Source(),
	}, nil
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
