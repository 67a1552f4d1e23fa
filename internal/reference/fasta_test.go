package reference

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFASTA(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "ref-*.fa")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestFASTAProvider_Sequence(t *testing.T) {
	path := writeTempFASTA(t, ">chr1 a test contig\nACGTACGTAC\nGTACGTACGT\n>chr2\nTTTTAAAACC\n")

	p := NewFASTAProvider(path)
	require.NoError(t, p.Load())
	defer p.Close()

	tests := []struct {
		name     string
		contig   string
		start    int64
		length   int64
		expected string
	}{
		{"whole first line", "chr1", 0, 10, "ACGTACGTAC"},
		{"spans the wrap", "chr1", 8, 4, "ACGT"},
		{"second contig", "chr2", 0, 4, "TTTT"},
		{"unknown contig", "chrX", 0, 4, ""},
		{"past end is clamped", "chr2", 8, 10, "CC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Sequence(tt.contig, tt.start, tt.length)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFASTAProvider_HasContigAndLength(t *testing.T) {
	path := writeTempFASTA(t, ">chr1\nACGTACGTAC\nGTACGTACGT\n")

	p := NewFASTAProvider(path)
	require.NoError(t, p.Load())
	defer p.Close()

	assert.True(t, p.HasContig("chr1"))
	assert.False(t, p.HasContig("chr2"))
	assert.Equal(t, int64(20), p.ContigLength("chr1"))
}

func TestParseContigName(t *testing.T) {
	tests := []struct {
		header   string
		expected string
	}{
		{">chr1", "chr1"},
		{">chr1 description here", "chr1"},
		{">1\tsome tab-delimited description", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseContigName(tt.header))
		})
	}
}
