// Package reference loads and serves genomic reference sequences: a
// contig-keyed FASTA file, indexed on the fly for random access, and an
// optional download of a reference file from a remote URL. Both are
// out-of-scope collaborators the core validator package only sees through
// the vcf.ReferenceProvider interface; this package is one implementation
// of it, not a dependency of the core.
package reference

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// contigEntry records enough about one FASTA record to seek directly to
// any base within it, the way a samtools .fai index does: the byte offset
// of the first base, the sequence length in bases, and the line-wrapping
// width (bases per line, bytes per line, to account for the newline).
type contigEntry struct {
	length    int64
	offset    int64
	lineBases int64
	lineBytes int64
}

// FASTAProvider implements vcf.ReferenceProvider over a multi-contig FASTA
// file, building its offset index on first Load rather than reading a
// precomputed .fai sidecar. Gzip-compressed input is supported, same magic-byte
// sniff as the rest of this codebase uses, but since a gzip stream can't be
// seeked the decompressed bytes are held in memory instead of served
// straight off disk; a plain FASTA file is read with random-access ReadAt
// calls and never fully loaded.
type FASTAProvider struct {
	path   string
	file   *os.File
	source io.ReaderAt
	index  map[string]contigEntry
}

// NewFASTAProvider creates a provider over path. Load must be called before
// Sequence.
func NewFASTAProvider(path string) *FASTAProvider {
	return &FASTAProvider{path: path, index: make(map[string]contigEntry)}
}

// Load opens the FASTA file and scans it once to build the contig index.
// The underlying file handle (or decompressed buffer) is kept for
// subsequent Sequence calls; callers must call Close when done.
func (p *FASTAProvider) Load() error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("open FASTA file: %w", err)
	}
	p.file = f

	magic := make([]byte, 2)
	if _, err := io.ReadFull(f, magic); err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("read FASTA magic bytes: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek FASTA file: %w", err)
	}

	var scanSource io.Reader = f
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		decompressed, err := io.ReadAll(gz)
		if err != nil {
			return fmt.Errorf("decompress FASTA file: %w", err)
		}
		p.source = bytes.NewReader(decompressed)
		scanSource = bytes.NewReader(decompressed)
	} else {
		p.source = f
	}

	br := bufio.NewReaderSize(scanSource, 1<<20)

	var contig string
	var offset int64
	var length int64
	var lineBases, lineBytes int64
	var pos int64

	flush := func() {
		if contig != "" {
			p.index[contig] = contigEntry{length: length, offset: offset, lineBases: lineBases, lineBytes: lineBytes}
		}
	}

	for {
		line, err := br.ReadString('\n')
		lineLen := int64(len(line))
		trimmed := strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(trimmed, ">") {
			flush()
			contig = parseContigName(trimmed)
			length = 0
			lineBases = 0
			lineBytes = 0
			offset = pos + lineLen
		} else if trimmed != "" {
			if lineBases == 0 {
				lineBases = int64(len(trimmed))
				lineBytes = lineLen
			}
			length += int64(len(trimmed))
		}

		pos += lineLen
		if err != nil {
			break
		}
	}
	flush()

	return nil
}

// parseContigName extracts the contig name from a ">name description..."
// header line: everything up to the first whitespace run, minus the
// leading '>'.
func parseContigName(header string) string {
	header = strings.TrimPrefix(header, ">")
	if i := strings.IndexAny(header, " \t"); i >= 0 {
		return header[:i]
	}
	return header
}

// Sequence implements vcf.ReferenceProvider: it returns length bases
// starting at the 0-based offset start within contig, or "" if contig is
// unknown. start/length that run past the end of the contig are clamped.
func (p *FASTAProvider) Sequence(contig string, start, length int64) (string, error) {
	entry, ok := p.index[contig]
	if !ok {
		return "", nil
	}
	if start < 0 {
		start = 0
	}
	if start >= entry.length {
		return "", nil
	}
	if start+length > entry.length {
		length = entry.length - start
	}
	if length <= 0 {
		return "", nil
	}

	if entry.lineBases == 0 {
		return "", nil
	}
	startLine := start / entry.lineBases
	startCol := start % entry.lineBases
	byteOffset := entry.offset + startLine*entry.lineBytes + startCol

	out := make([]byte, 0, length)
	buf := make([]byte, entry.lineBytes)
	// The first read starts mid-line and covers only the rest of that
	// line; every later read starts at the beginning of a line.
	readLen := entry.lineBytes - startCol
	for int64(len(out)) < length {
		n, err := p.source.ReadAt(buf[:readLen], byteOffset)
		if n == 0 && err != nil {
			return "", fmt.Errorf("read FASTA contig %s: %w", contig, err)
		}
		chunk := strings.TrimRight(string(buf[:n]), "\r\n")
		remaining := length - int64(len(out))
		if int64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}
		out = append(out, chunk...)
		byteOffset += readLen
		readLen = entry.lineBytes
	}
	return string(out), nil
}

// HasContig reports whether the FASTA file declared contig.
func (p *FASTAProvider) HasContig(contig string) bool {
	_, ok := p.index[contig]
	return ok
}

// ContigLength returns the length of contig in bases, or 0 if unknown.
func (p *FASTAProvider) ContigLength(contig string) int64 {
	return p.index[contig].length
}

// Contigs returns the names of every contig found while indexing, sorted
// for stable output (used by the `reference index` CLI command).
func (p *FASTAProvider) Contigs() []string {
	names := make([]string, 0, len(p.index))
	for name := range p.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the underlying file handle.
func (p *FASTAProvider) Close() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}
