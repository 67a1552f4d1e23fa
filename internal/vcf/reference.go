package vcf

// ReferenceProvider is the reference-sequence collaborator contract: given
// a contig name, a start position, and a length, it returns the
// corresponding base string, or "" when the contig is unknown.
// The core validator never calls this itself — it is consulted only by the
// optional normalization/left-alignment layer that sits outside this
// package. Implementations may read a FASTA index from disk or fetch
// sequences remotely; this package takes no position on either.
type ReferenceProvider interface {
	Sequence(contig string, start, length int64) (string, error)
}
