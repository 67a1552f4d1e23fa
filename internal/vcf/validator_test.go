package vcf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, input string) *SliceSink {
	t.Helper()
	sink := NewSliceSink()
	v, err := ValidateReader("test.vcf", strings.NewReader(input), sink)
	require.NoError(t, err)
	_ = v
	return sink
}

// S1: valid fileformat + header, no body lines, no reference meta.
func TestScenario_S1_MissingReferenceWarningOnly(t *testing.T) {
	input := "##fileformat=VCFv4.1\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"
	sink := validate(t, input)

	require.Len(t, sink.Diagnostics(), 1)
	d := sink.Diagnostics()[0]
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Contains(t, d.Message, "reference")
	assert.False(t, sink.HasErrors())
}

// S2: missing "##" preamble on the fileformat line.
func TestScenario_S2_MissingFileformatPreamble(t *testing.T) {
	input := "fileformat=VCFv4.1\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"
	sink := validate(t, input)

	require.NotEmpty(t, sink.Diagnostics())
	d := sink.Diagnostics()[0]
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, SectionFileformat, d.Section)
	assert.Equal(t, SeverityError, d.Severity)
	assert.True(t, sink.HasErrors())
}

// S3: duplicate INFO meta ID.
func TestScenario_S3_DuplicateMetaID(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		`##INFO=<ID=DP,Number=1,Type=Integer,Description="depth">` + "\n" +
		`##INFO=<ID=DP,Number=1,Type=Integer,Description="dup">` + "\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"
	sink := validate(t, input)

	var found bool
	for _, d := range sink.Diagnostics() {
		if d.Line == 3 && d.Section == SectionMeta && d.Severity == SeverityError {
			assert.Contains(t, d.Message, "DP")
			assert.Contains(t, strings.ToLower(d.Message), "duplicate")
			found = true
		}
	}
	assert.True(t, found, "expected a duplicate-ID error at line 3")
}

// S4: ploidy mismatch is only flagged within a single record, never across
// records for the same sample.
func TestScenario_S4_PloidyOnlyWithinRecord(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		"##contig=<ID=1>\n" +
		"##reference=file:///dev/null\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA001\n" +
		"1\t1000\t.\tT\tG\t.\t.\t.\tGT\t0/0/1\n" +
		"1\t1001\t.\tT\tG\t.\t.\t.\tGT\t0/1\n"
	sink := validate(t, input)

	assert.Empty(t, sink.Diagnostics())
}

// P6 / same-record multi-sample variant of S4: inconsistent ploidy across
// samples within one record IS flagged.
func TestProperty_P6_PloidyMismatchWithinRecord(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		"##contig=<ID=1>\n" +
		"##reference=file:///dev/null\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA001\tNA002\n" +
		"1\t1000\t.\tT\tG\t.\t.\t.\tGT\t0/0/1\t0/1\n"
	sink := validate(t, input)

	var found bool
	for _, d := range sink.Diagnostics() {
		if d.Severity == SeverityWarning && strings.Contains(strings.ToLower(d.Message), "ploidy") {
			found = true
		}
	}
	assert.True(t, found, "expected a ploidy mismatch warning")
}

// S5: out-of-order positions within a chromosome.
func TestScenario_S5_PositionOutOfOrder(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		"##contig=<ID=1>\n" +
		"##reference=file:///dev/null\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"1\t2000\t.\tA\tT\t.\t.\t.\n" +
		"1\t1500\t.\tA\tT\t.\t.\t.\n"
	sink := validate(t, input)

	var found bool
	for _, d := range sink.Diagnostics() {
		if d.Line == 6 && d.Severity == SeverityWarning {
			assert.Contains(t, d.Message, "1:1500")
			assert.Contains(t, d.Message, "1:2000")
			found = true
		}
	}
	assert.True(t, found, "expected an out-of-order warning on line 6")
}

// S6: missing contig warning, suppressed after the first occurrence.
func TestScenario_S6_MissingContigSuppressedAfterFirst(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		"##reference=file:///dev/null\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chrUnknown\t100\t.\tA\tT\t.\t.\t.\n" +
		"chrUnknown\t200\t.\tA\tT\t.\t.\t.\n"
	sink := validate(t, input)

	count := 0
	for _, d := range sink.Diagnostics() {
		if strings.Contains(d.Message, "chrUnknown") {
			count++
		}
	}
	assert.Equal(t, 1, count, "missing-contig warning should be suppressed after the first occurrence")
}

// P1: byte determinism regardless of Feed chunking.
func TestProperty_P1_ByteDeterminismAcrossChunking(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		"##contig=<ID=1>\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"1\t100\t.\tA\tT\t.\t.\t.\n" +
		"2\t200\t.\tA\tT\t.\t.\t.\n"

	whole := validate(t, input)

	sink := NewSliceSink()
	v := NewValidator("test.vcf", sink)
	for i := 0; i < len(input); i++ {
		v.Feed([]byte{input[i]})
	}
	v.End()

	assert.Equal(t, whole.Diagnostics(), sink.Diagnostics())
}

// P3: diagnostics appear in non-decreasing (line, column) order.
func TestProperty_P3_MonotoneDiagnostics(t *testing.T) {
	input := "fileformat=VCFv4.1\n" +
		"##bad line without double hash\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"badchrom:1\tnotanumber\t.\tA\tT\t.\t.\t.\n"
	sink := validate(t, input)

	diags := sink.Diagnostics()
	require.NotEmpty(t, diags)
	for i := 1; i < len(diags); i++ {
		prev, cur := diags[i-1], diags[i]
		if cur.Line == prev.Line {
			assert.GreaterOrEqual(t, cur.Column, prev.Column)
		} else {
			assert.Greater(t, cur.Line, prev.Line)
		}
	}
}

// P4: a clean stream re-scanned from scratch produces zero errors again.
func TestProperty_P4_IdempotenceOfAcceptingStreams(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		"##contig=<ID=1>\n" +
		"##reference=file:///dev/null\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"1\t100\t.\tA\tT\t.\t.\t.\n"

	first := validate(t, input)
	require.False(t, first.HasErrors())

	second := validate(t, input)
	assert.False(t, second.HasErrors())
	assert.Equal(t, first.Diagnostics(), second.Diagnostics())
}

// P5: meta uniqueness holds per structured category, not just for INFO.
func TestProperty_P5_MetaUniquenessPerCategory(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		`##FILTER=<ID=q10,Description="low qual">` + "\n" +
		`##FILTER=<ID=q10,Description="dup">` + "\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"
	sink := validate(t, input)

	require.True(t, sink.HasErrors())
	found := false
	for _, d := range sink.Diagnostics() {
		if strings.Contains(d.Message, "q10") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidator_RecordCountAndIsAccepting(t *testing.T) {
	input := "##fileformat=VCFv4.1\n" +
		"##contig=<ID=1>\n" +
		"##reference=file:///dev/null\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"1\t100\t.\tA\tT\t.\t.\t.\n" +
		"1\t200\t.\tA\tT\t.\t.\t.\n"

	sink := NewSliceSink()
	v, err := ValidateReader("test.vcf", strings.NewReader(input), sink)
	require.NoError(t, err)

	assert.Equal(t, 2, v.RecordCount())
	assert.True(t, v.IsAccepting())
	assert.False(t, v.HasErrors())
}
