package vcf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler implements Handler by reassembling each line's tokens
// back into a readable string, so tests can assert on line content without
// caring how the Scanner chopped it into BeginToken/CharOfToken/EndToken
// events.
type recordingHandler struct {
	fileformats []Version

	tokenBuf    []byte
	tokens      []string
	metaKeyTok  string
	haveMetaKey bool

	metaLines   []string
	headerLines [][]string
	bodyLines   [][]string
}

func (h *recordingHandler) Fileformat(v Version) { h.fileformats = append(h.fileformats, v) }

func (h *recordingHandler) BeginToken() { h.tokenBuf = h.tokenBuf[:0] }
func (h *recordingHandler) CharOfToken(b byte) { h.tokenBuf = append(h.tokenBuf, b) }
func (h *recordingHandler) EndToken() {
	tok := string(h.tokenBuf)
	h.tokens = append(h.tokens, tok)
}

func (h *recordingHandler) RecordMetaKey() {
	h.metaKeyTok = h.tokens[len(h.tokens)-1]
	h.haveMetaKey = true
	h.tokens = nil
}

func (h *recordingHandler) EndOfMetaLine(lineNumber int) {
	value := h.tokens[len(h.tokens)-1]
	h.metaLines = append(h.metaLines, h.metaKeyTok+"="+value)
	h.tokens = nil
	h.haveMetaKey = false
}

func (h *recordingHandler) EndOfHeaderLine(lineNumber int) {
	h.headerLines = append(h.headerLines, append([]string{}, h.tokens...))
	h.tokens = nil
}

func (h *recordingHandler) EndOfBodyLine(lineNumber int) {
	h.bodyLines = append(h.bodyLines, append([]string{}, h.tokens...))
	h.tokens = nil
}

func (h *recordingHandler) DiscardLine() {
	h.tokens = nil
	h.haveMetaKey = false
}

func newScannerFixture() (*Scanner, *recordingHandler, *SliceSink) {
	handler := &recordingHandler{}
	slice := NewSliceSink()
	tracker := NewErrorTracker(slice)
	sc := NewScanner(handler, tracker)
	return sc, handler, slice
}

func TestScanner_AcceptsWellFormedStream(t *testing.T) {
	sc, handler, sink := newScannerFixture()
	sc.Feed([]byte("##fileformat=VCFv4.2\n##contig=<ID=1>\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t1\t.\tA\tT\t.\t.\t.\n"))
	sc.EndOfInput()

	assert.Empty(t, sink.Diagnostics())
	assert.True(t, sc.IsAccepting())
	require.Len(t, handler.fileformats, 1)
	assert.Equal(t, Version42, handler.fileformats[0])
	require.Len(t, handler.metaLines, 1)
	assert.Equal(t, "contig=<ID=1>", handler.metaLines[0])
	require.Len(t, handler.headerLines, 1)
	assert.Equal(t, []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}, handler.headerLines[0])
	require.Len(t, handler.bodyLines, 1)
	assert.Equal(t, []string{"1", "1", ".", "A", "T", ".", ".", "."}, handler.bodyLines[0])
}

func TestScanner_RejectsUnrecognizedFileformat(t *testing.T) {
	sc, _, sink := newScannerFixture()
	sc.Feed([]byte("##fileformat=NOTAVERSION\n"))
	sc.EndOfInput()

	require.Len(t, sink.Diagnostics(), 1)
	assert.Equal(t, SectionFileformat, sink.Diagnostics()[0].Section)
	assert.False(t, sc.IsAccepting())
}

func TestScanner_RejectsSingleHashMetaLine(t *testing.T) {
	sc, _, sink := newScannerFixture()
	sc.Feed([]byte("##fileformat=VCFv4.2\n#notdoublehash\n"))
	sc.EndOfInput()

	require.Len(t, sink.Diagnostics(), 1)
	assert.Equal(t, SectionMeta, sink.Diagnostics()[0].Section)
}

func TestScanner_ResynchronizesAfterBadMetaLineAndKeepsParsingNextLine(t *testing.T) {
	sc, handler, sink := newScannerFixture()
	sc.Feed([]byte("##fileformat=VCFv4.2\n#notdoublehash\n##contig=<ID=1>\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"))
	sc.EndOfInput()

	require.Len(t, sink.Diagnostics(), 1)
	require.Len(t, handler.metaLines, 1)
	assert.Equal(t, "contig=<ID=1>", handler.metaLines[0])
	assert.False(t, sc.IsAccepting())
}

func TestScanner_ResynchronizesAfterBodyLineWithControlCharacter(t *testing.T) {
	sc, handler, sink := newScannerFixture()
	sc.Feed([]byte("##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t1\t.\tA\x01\tT\t.\t.\t.\n1\t1\t.\tA\tT\t.\t.\t.\n"))
	sc.EndOfInput()

	require.Len(t, sink.Diagnostics(), 1)
	assert.Equal(t, SectionBody, sink.Diagnostics()[0].Section)
	require.Len(t, handler.bodyLines, 1)
	assert.Equal(t, []string{"1", "1", ".", "A", "T", ".", ".", "."}, handler.bodyLines[0])
}

func TestScanner_TolerantOfStrayBlankLineBeforeHeader(t *testing.T) {
	sc, _, sink := newScannerFixture()
	sc.Feed([]byte("##fileformat=VCFv4.2\n\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"))
	sc.EndOfInput()

	assert.Empty(t, sink.Diagnostics())
}

func TestScanner_EndOfInputFlushesUnterminatedLine(t *testing.T) {
	sc, handler, _ := newScannerFixture()
	sc.Feed([]byte("##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO"))
	sc.EndOfInput()

	require.Len(t, handler.headerLines, 1)
}

func TestScanner_IsAcceptingRequiresHeaderAndNoErrors(t *testing.T) {
	sc, _, _ := newScannerFixture()
	assert.False(t, sc.IsAccepting())

	sc.Feed([]byte("##fileformat=VCFv4.2\n"))
	assert.False(t, sc.IsAccepting())

	sc.Feed([]byte("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"))
	assert.True(t, sc.IsAccepting())
}

func TestScanner_HandlesCRLFLineEndings(t *testing.T) {
	sc, handler, sink := newScannerFixture()
	sc.Feed([]byte("##fileformat=VCFv4.2\r\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\r\n1\t1\t.\tA\tT\t.\t.\t.\r\n"))
	sc.EndOfInput()

	assert.Empty(t, sink.Diagnostics())
	require.Len(t, handler.bodyLines, 1)
	assert.Equal(t, []string{"1", "1", ".", "A", "T", ".", ".", "."}, handler.bodyLines[0])
}

func TestScanner_FeedAcceptsArbitraryChunkBoundaries(t *testing.T) {
	full := "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t1\t.\tA\tT\t.\t.\t.\n"

	scWhole, handlerWhole, sinkWhole := newScannerFixture()
	scWhole.Feed([]byte(full))
	scWhole.EndOfInput()

	scChunked, handlerChunked, sinkChunked := newScannerFixture()
	for i := 0; i < len(full); i += 3 {
		end := i + 3
		if end > len(full) {
			end = len(full)
		}
		scChunked.Feed([]byte(full[i:end]))
	}
	scChunked.EndOfInput()

	assert.Equal(t, sinkWhole.Diagnostics(), sinkChunked.Diagnostics())
	require.Len(t, handlerChunked.bodyLines, len(handlerWhole.bodyLines))
	assert.Equal(t, handlerWhole.bodyLines, handlerChunked.bodyLines)
	assert.Equal(t, strings.Join(handlerWhole.bodyLines[0], "\t"), strings.Join(handlerChunked.bodyLines[0], "\t"))
}
