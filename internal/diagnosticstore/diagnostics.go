package diagnosticstore

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vcf-validator/internal/vcf"
)

// ScanSummary is the per-run row written to the scans table: enough to
// decide, on a later invocation, whether a file can skip re-validation.
type ScanSummary struct {
	ScanID      string
	Filename    string
	FileSize    int64
	FileModTime time.Time
	RecordCount int
	IsAccepting bool
	// Version is the resolved fileformat version string (e.g. "VCFv4.3"),
	// or "unknown" if the fileformat line never parsed.
	Version   string
	ScannedAt time.Time
}

// WriteScan records one scan's summary row.
func (s *Store) WriteScan(summary ScanSummary) error {
	_, err := s.db.Exec(
		`INSERT INTO scans (scan_id, filename, file_size, file_mod_time, record_count, is_accepting, version, scanned_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ScanID, summary.Filename, summary.FileSize, summary.FileModTime,
		summary.RecordCount, summary.IsAccepting, summary.Version, summary.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("write scan summary: %w", err)
	}
	return nil
}

// diagnosticKey is the composite key diagnostics are deduplicated by before
// writing, matching the diagnostics table's primary key.
type diagnosticKey struct {
	scanID       string
	lineNumber   int
	columnNumber int
	message      string
}

// WriteDiagnostics batch-inserts diagnostics for one scan into DuckDB using
// the Appender API, deduplicated by (scan_id, line_number, column_number,
// message).
func (s *Store) WriteDiagnostics(scanID string, diagnostics []vcf.Diagnostic) error {
	if len(diagnostics) == 0 {
		return nil
	}

	seen := make(map[diagnosticKey]bool, len(diagnostics))
	deduped := make([]vcf.Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		k := diagnosticKey{scanID, d.Line, d.Column, d.Message}
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, d)
		}
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "diagnostics")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, d := range deduped {
		if err := appender.AppendRow(
			scanID, int64(d.Line), int64(d.Column), d.Severity.String(), d.Section.String(), d.Message,
		); err != nil {
			return fmt.Errorf("append diagnostic: %w", err)
		}
	}

	return appender.Flush()
}

// QueryDiagnostics returns every diagnostic recorded for scanID, in source
// order.
func (s *Store) QueryDiagnostics(scanID string) ([]vcf.Diagnostic, error) {
	rows, err := s.db.Query(
		`SELECT line_number, column_number, severity, section, message
		 FROM diagnostics WHERE scan_id = ? ORDER BY line_number, column_number`,
		scanID,
	)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []vcf.Diagnostic
	for rows.Next() {
		var line, column int
		var severity, section, message string
		if err := rows.Scan(&line, &column, &severity, &section, &message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		out = append(out, vcf.Diagnostic{
			Line:     line,
			Column:   column,
			Severity: parseSeverity(severity),
			Section:  parseSection(section),
			Message:  message,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return out, nil
}

// LatestCleanScan returns the most recent scan summary for filename whose
// fingerprint matches fp and which had no errors, so a caller can skip
// re-validating an unchanged file. ok is false when no such scan exists.
func (s *Store) LatestCleanScan(filename string, fp FileFingerprint) (summary ScanSummary, ok bool, err error) {
	row := s.db.QueryRow(
		`SELECT scan_id, file_size, file_mod_time, record_count, is_accepting, version, scanned_at
		 FROM scans
		 WHERE filename = ? AND file_size = ? AND file_mod_time = ? AND is_accepting = TRUE
		 ORDER BY scanned_at DESC LIMIT 1`,
		filename, fp.Size, fp.ModTime,
	)
	summary.Filename = filename
	if scanErr := row.Scan(&summary.ScanID, &summary.FileSize, &summary.FileModTime,
		&summary.RecordCount, &summary.IsAccepting, &summary.Version, &summary.ScannedAt); scanErr != nil {
		return ScanSummary{}, false, nil
	}
	return summary, true, nil
}

// Scan returns the summary row for a single scan id. ok is false when no
// such scan exists.
func (s *Store) Scan(scanID string) (summary ScanSummary, ok bool, err error) {
	row := s.db.QueryRow(
		`SELECT scan_id, filename, file_size, file_mod_time, record_count, is_accepting, version, scanned_at
		 FROM scans WHERE scan_id = ?`,
		scanID,
	)
	if scanErr := row.Scan(&summary.ScanID, &summary.Filename, &summary.FileSize, &summary.FileModTime,
		&summary.RecordCount, &summary.IsAccepting, &summary.Version, &summary.ScannedAt); scanErr != nil {
		return ScanSummary{}, false, nil
	}
	return summary, true, nil
}

// Scans returns the most recent scans for filename, newest first, up to
// limit rows. Used by `report query` when no specific scan id is given.
func (s *Store) Scans(filename string, limit int) ([]ScanSummary, error) {
	rows, err := s.db.Query(
		`SELECT scan_id, filename, file_size, file_mod_time, record_count, is_accepting, version, scanned_at
		 FROM scans WHERE filename = ? ORDER BY scanned_at DESC LIMIT ?`,
		filename, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []ScanSummary
	for rows.Next() {
		var summary ScanSummary
		if err := rows.Scan(&summary.ScanID, &summary.Filename, &summary.FileSize, &summary.FileModTime,
			&summary.RecordCount, &summary.IsAccepting, &summary.Version, &summary.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return out, nil
}

func parseSeverity(s string) vcf.Severity {
	if s == "warning" {
		return vcf.SeverityWarning
	}
	return vcf.SeverityError
}

func parseSection(s string) vcf.Section {
	switch s {
	case "meta":
		return vcf.SectionMeta
	case "header":
		return vcf.SectionHeader
	case "body":
		return vcf.SectionBody
	default:
		return vcf.SectionFileformat
	}
}
