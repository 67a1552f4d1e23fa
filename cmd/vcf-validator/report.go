package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/vcf-validator/internal/diagnosticstore"
	"github.com/inodb/vcf-validator/internal/output"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect diagnostics persisted by a prior validate --db run",
	}
	cmd.AddCommand(newReportQueryCmd())
	return cmd
}

func newReportQueryCmd() *cobra.Command {
	var (
		dbPath string
		scanID string
		file   string
		format string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a diagnostic store from a prior run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				return usageError(fmt.Errorf("--db is required"))
			}
			store, err := diagnosticstore.Open(dbPath)
			if err != nil {
				return runError(fmt.Errorf("open diagnostic store: %w", err))
			}
			defer store.Close()

			if format == "" {
				format = "text"
			}
			writer := output.NewWriter(format, os.Stdout)
			if writer == nil {
				return usageError(fmt.Errorf("unknown output format %q", format))
			}

			if scanID != "" {
				return queryScan(store, writer, scanID)
			}
			if file == "" {
				return usageError(fmt.Errorf("either --scan-id or --file is required"))
			}
			return listScans(store, file, limit)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the DuckDB diagnostic store (required)")
	cmd.Flags().StringVar(&scanID, "scan-id", "", "Show diagnostics for a specific scan")
	cmd.Flags().StringVar(&file, "file", "", "List recent scans for this filename")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, tab, json (default text)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum scans to list")

	return cmd
}

func queryScan(store *diagnosticstore.Store, writer output.DiagnosticWriter, scanID string) error {
	if summary, ok, err := store.Scan(scanID); err != nil {
		return runError(fmt.Errorf("look up scan: %w", err))
	} else if ok {
		fmt.Printf("# scan %s: %s (%s)\n", summary.ScanID, summary.Filename, summary.Version)
	}

	diagnostics, err := store.QueryDiagnostics(scanID)
	if err != nil {
		return runError(fmt.Errorf("query diagnostics: %w", err))
	}
	if err := writer.WriteHeader(); err != nil {
		return runError(err)
	}
	for _, d := range diagnostics {
		if err := writer.Write(scanID, d); err != nil {
			return runError(err)
		}
	}
	if err := writer.Flush(); err != nil {
		return runError(err)
	}
	return nil
}

func listScans(store *diagnosticstore.Store, file string, limit int) error {
	scans, err := store.Scans(file, limit)
	if err != nil {
		return runError(fmt.Errorf("list scans: %w", err))
	}
	if len(scans) == 0 {
		fmt.Println("No scans found.")
		return nil
	}
	for _, s := range scans {
		status := "clean"
		if !s.IsAccepting {
			status = "errors"
		}
		fmt.Printf("%s\t%s\t%s\t%d records\t%s\t%s\n", s.ScanID, s.ScannedAt.Format("2006-01-02T15:04:05"), s.Version, s.RecordCount, status, s.Filename)
	}
	return nil
}
