package diagnosticstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vcf-validator/internal/vcf"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
}

func TestWriteAndQueryDiagnostics(t *testing.T) {
	s := openInMemory(t)

	diags := []vcf.Diagnostic{
		{Line: 3, Column: 1, Severity: vcf.SeverityError, Section: vcf.SectionFileformat, Message: "File must start with a '##fileformat=VCFvX.Y' line"},
		{Line: 10, Column: 0, Severity: vcf.SeverityWarning, Section: vcf.SectionBody, Message: "No contig meta-information entry declares chromosome '2'"},
	}

	require.NoError(t, s.WriteDiagnostics("scan-1", diags))

	got, err := s.QueryDiagnostics("scan-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Line)
	assert.Equal(t, vcf.SeverityError, got[0].Severity)
	assert.Equal(t, vcf.SectionFileformat, got[0].Section)
	assert.Equal(t, 10, got[1].Line)
	assert.Equal(t, vcf.SeverityWarning, got[1].Severity)
}

func TestWriteDiagnosticsDeduplicates(t *testing.T) {
	s := openInMemory(t)

	d := vcf.Diagnostic{Line: 5, Column: 2, Severity: vcf.SeverityError, Section: vcf.SectionBody, Message: "Position must be a positive number"}
	require.NoError(t, s.WriteDiagnostics("scan-2", []vcf.Diagnostic{d, d, d}))

	got, err := s.QueryDiagnostics("scan-2")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestQueryDiagnosticsUnknownScan(t *testing.T) {
	s := openInMemory(t)

	got, err := s.QueryDiagnostics("does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteScanAndLatestCleanScan(t *testing.T) {
	s := openInMemory(t)

	now := time.Now().Truncate(time.Second)
	fp := FileFingerprint{Path: "sample.vcf", Size: 1234, ModTime: now}

	require.NoError(t, s.WriteScan(ScanSummary{
		ScanID: "scan-3", Filename: fp.Path, FileSize: fp.Size, FileModTime: fp.ModTime,
		RecordCount: 42, IsAccepting: true, ScannedAt: now,
	}))

	summary, ok, err := s.LatestCleanScan(fp.Path, fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "scan-3", summary.ScanID)
	assert.Equal(t, 42, summary.RecordCount)

	changed := fp
	changed.Size = 9999
	_, ok, err = s.LatestCleanScan(fp.Path, changed)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScanRoundTripsVersion(t *testing.T) {
	s := openInMemory(t)

	now := time.Now().Truncate(time.Second)
	require.NoError(t, s.WriteScan(ScanSummary{
		ScanID: "scan-5", Filename: "versioned.vcf", FileSize: 1, FileModTime: now,
		RecordCount: 1, IsAccepting: true, Version: "VCFv4.3", ScannedAt: now,
	}))

	summary, ok, err := s.Scan("scan-5")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "VCFv4.3", summary.Version)

	scans, err := s.Scans("versioned.vcf", 10)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "VCFv4.3", scans[0].Version)
}

func TestLatestCleanScanSkipsErrored(t *testing.T) {
	s := openInMemory(t)

	now := time.Now().Truncate(time.Second)
	fp := FileFingerprint{Path: "broken.vcf", Size: 10, ModTime: now}

	require.NoError(t, s.WriteScan(ScanSummary{
		ScanID: "scan-4", Filename: fp.Path, FileSize: fp.Size, FileModTime: fp.ModTime,
		RecordCount: 0, IsAccepting: false, ScannedAt: now,
	}))

	_, ok, err := s.LatestCleanScan(fp.Path, fp)
	require.NoError(t, err)
	assert.False(t, ok)
}
