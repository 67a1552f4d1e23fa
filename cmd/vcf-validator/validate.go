package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vcf-validator/internal/batch"
	"github.com/inodb/vcf-validator/internal/diagnosticstore"
	"github.com/inodb/vcf-validator/internal/output"
)

// newCLILogger returns the zap logger used for operational messages (file
// open failures, persistence warnings) as opposed to the diagnostic report
// itself, which goes through the selected output.DiagnosticWriter.
func newCLILogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newValidateCmd() *cobra.Command {
	var (
		format               string
		outputPath           string
		workers              int
		dbPath               string
		stopOnFirstError     bool
		reportBothOnConflict bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate one or more VCF files against the grammar and semantic rules",
		Long: `Validate checks each file against the VCF grammar (fileformat, meta,
header, and body sections) and a handful of cross-line semantic rules
(missing reference/contig declarations, duplicate meta IDs, out-of-order
positions, inconsistent ploidy within a record). Use "-" for stdin. Gzip
input is detected automatically.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = viper.GetString("default-format")
			}
			if format == "" {
				format = "text"
			}
			if output.NewWriter(format, os.Stdout) == nil {
				return usageError(fmt.Errorf("unknown output format %q (want text, tab, or json)", format))
			}
			if !cmd.Flags().Changed("stop-on-first-error") {
				stopOnFirstError = viper.GetBool("stop-on-first-error")
			}
			if !cmd.Flags().Changed("report-both-on-conflict") {
				reportBothOnConflict = viper.GetBool("report-both-on-conflict")
			}

			var out *os.File
			if outputPath == "" || outputPath == "-" {
				out = os.Stdout
			} else {
				f, err := os.Create(outputPath)
				if err != nil {
					return runError(fmt.Errorf("create output file: %w", err))
				}
				defer f.Close()
				out = f
			}

			return runValidate(args, format, out, workers, dbPath, stopOnFirstError, reportBothOnConflict)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, tab, json (default from config, else text)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of files to validate concurrently (default: number of CPUs)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Persist diagnostics to this DuckDB database file")
	cmd.Flags().BoolVar(&stopOnFirstError, "stop-on-first-error", false, "Stop reporting remaining files once one fails")
	cmd.Flags().BoolVar(&reportBothOnConflict, "report-both-on-conflict", false,
		"When a body line has both a grammar error and a semantic violation, report both instead of only the grammar error")

	return cmd
}

func runValidate(paths []string, format string, out *os.File, workers int, dbPath string, stopOnFirstError, reportBothOnConflict bool) error {
	logger := newCLILogger()
	defer logger.Sync()

	writer := output.NewWriter(format, out)
	if err := writer.WriteHeader(); err != nil {
		return runError(fmt.Errorf("write header: %w", err))
	}

	var store *diagnosticstore.Store
	if dbPath != "" {
		s, err := diagnosticstore.Open(dbPath)
		if err != nil {
			return runError(fmt.Errorf("open diagnostic store: %w", err))
		}
		defer s.Close()
		store = s
	}

	// Seed cached with a replayed Report for every path whose on-disk
	// fingerprint matches a prior clean scan, so ParallelValidate never
	// re-reads or re-scans it. Paths absent from cached are scanned as
	// usual below.
	cached := make(map[int]batch.WorkResult, len(paths))
	if store != nil {
		for i, p := range paths {
			r, ok := replayCachedScan(store, p, logger)
			if ok {
				cached[i] = batch.WorkResult{Seq: i, Path: p, Report: r}
			}
		}
	}

	items := make(chan batch.WorkItem, len(paths))
	for i, p := range paths {
		if _, skip := cached[i]; skip {
			continue
		}
		items <- batch.WorkItem{Seq: i, Path: p, ReportBothOnConflict: reportBothOnConflict}
	}
	close(items)

	results := batch.ParallelValidate(items, workers)

	hadErrors := false
	stopped := false

	handle := func(r batch.WorkResult, freshlyScanned bool) error {
		if stopped {
			return nil
		}
		if r.Err != nil {
			logger.Error("validation failed", zap.String("path", r.Path), zap.Error(r.Err))
			hadErrors = true
			if stopOnFirstError {
				stopped = true
			}
			return nil
		}

		for _, d := range r.Report.Diagnostics {
			if err := writer.Write(r.Path, d); err != nil {
				return fmt.Errorf("write diagnostic: %w", err)
			}
		}
		if !r.Report.IsAccepting {
			hadErrors = true
		}

		if store != nil && freshlyScanned {
			if err := persistScan(store, r); err != nil {
				logger.Warn("could not persist scan", zap.String("path", r.Path), zap.Error(err))
			}
		}

		if stopOnFirstError && !r.Report.IsAccepting {
			stopped = true
		}
		return nil
	}

	// OrderedCollect buffers by Seq regardless of arrival order, so cached
	// results can be pushed ahead of the worker pool's real output without
	// disturbing argument order.
	merged := make(chan batch.WorkResult, len(paths))
	for _, r := range cached {
		merged <- r
	}
	go func() {
		defer close(merged)
		for r := range results {
			merged <- r
		}
	}()

	err := batch.OrderedCollect(merged, func(r batch.WorkResult) error {
		_, wasCached := cached[r.Seq]
		return handle(r, !wasCached)
	})
	if err != nil {
		return runError(err)
	}

	if err := writer.Flush(); err != nil {
		return runError(fmt.Errorf("flush output: %w", err))
	}

	if hadErrors {
		return &exitCodeError{code: ExitError}
	}
	return nil
}

// replayCachedScan looks up the most recent clean scan of path in store
// and, if its stat fingerprint still matches the file on disk, returns the
// persisted diagnostics as a Report in place of a fresh scan. Stdin ("-")
// and paths that no longer stat cleanly are never cached.
func replayCachedScan(store *diagnosticstore.Store, path string, logger *zap.Logger) (batch.Report, bool) {
	if path == "-" {
		return batch.Report{}, false
	}
	fp, err := diagnosticstore.StatFile(path)
	if err != nil {
		return batch.Report{}, false
	}
	summary, ok, err := store.LatestCleanScan(path, fp)
	if err != nil {
		logger.Warn("could not look up cached scan", zap.String("path", path), zap.Error(err))
		return batch.Report{}, false
	}
	if !ok {
		return batch.Report{}, false
	}
	diagnostics, err := store.QueryDiagnostics(summary.ScanID)
	if err != nil {
		logger.Warn("could not replay cached diagnostics", zap.String("path", path), zap.Error(err))
		return batch.Report{}, false
	}
	logger.Info("skipping unchanged file, replaying prior scan",
		zap.String("path", path), zap.String("scan_id", summary.ScanID))
	return batch.Report{
		Path:        path,
		RecordCount: summary.RecordCount,
		IsAccepting: summary.IsAccepting,
		Diagnostics: diagnostics,
	}, true
}

// persistScan writes one file's scan summary and diagnostics to store,
// tagging the run with a fresh scan_id.
func persistScan(store *diagnosticstore.Store, r batch.WorkResult) error {
	scanID := uuid.New().String()

	fp, err := diagnosticstore.StatFile(r.Path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	version := "unknown"
	if r.Report.Source != nil {
		version = r.Report.Source.Version.String()
	}

	if err := store.WriteScan(diagnosticstore.ScanSummary{
		ScanID:      scanID,
		Filename:    r.Path,
		FileSize:    fp.Size,
		FileModTime: fp.ModTime,
		RecordCount: r.Report.RecordCount,
		IsAccepting: r.Report.IsAccepting,
		Version:     version,
		ScannedAt:   scanTimestamp(),
	}); err != nil {
		return fmt.Errorf("write scan: %w", err)
	}

	return store.WriteDiagnostics(scanID, r.Report.Diagnostics)
}

// scanTimestamp exists so the single non-deterministic time.Now() call in
// the validate path is easy to find and, if ever needed, stub out.
func scanTimestamp() time.Time { return time.Now() }
