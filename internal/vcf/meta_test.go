package vcf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMetaEntry_Freeform(t *testing.T) {
	entry, ok, _ := buildMetaEntry(1, "reference", "file:///ref.fa")
	require.True(t, ok)
	assert.Equal(t, "reference", entry.Category)
	assert.Equal(t, "file:///ref.fa", entry.Value)
	assert.False(t, entry.IsStructured())
}

func TestBuildMetaEntry_RejectsEmptyKey(t *testing.T) {
	_, ok, msg := buildMetaEntry(1, "", "file:///ref.fa")
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

func TestBuildMetaEntry_StructuredRequiresID(t *testing.T) {
	_, ok, msg := buildMetaEntry(1, "INFO", `<Number=1,Type=Integer,Description="x">`)
	assert.False(t, ok)
	assert.Contains(t, msg, "ID attribute")
}

func TestBuildMetaEntry_StructuredRejectsInvalidIDCharacters(t *testing.T) {
	_, ok, msg := buildMetaEntry(1, "INFO", `<ID=bad id,Number=1,Type=Integer,Description="x">`)
	assert.False(t, ok)
	assert.Contains(t, msg, "alphanumerics")
}

func TestBuildMetaEntry_InfoRequiresNumberTypeDescription(t *testing.T) {
	_, ok, msg := buildMetaEntry(1, "INFO", `<ID=DP,Number=1,Type=Integer>`)
	assert.False(t, ok)
	assert.Contains(t, msg, "Description")
}

func TestBuildMetaEntry_InfoRejectsMalformedNumber(t *testing.T) {
	_, ok, msg := buildMetaEntry(1, "INFO", `<ID=DP,Number=xyz,Type=Integer,Description="x">`)
	assert.False(t, ok)
	assert.Contains(t, msg, "Number")
}

func TestBuildMetaEntry_InfoRejectsUnknownType(t *testing.T) {
	_, ok, msg := buildMetaEntry(1, "INFO", `<ID=DP,Number=1,Type=Bogus,Description="x">`)
	assert.False(t, ok)
	assert.Contains(t, msg, "Type")
}

func TestBuildMetaEntry_AltRequiresValidPrefix(t *testing.T) {
	_, ok, msg := buildMetaEntry(1, "ALT", `<ID=FOO,Description="x">`)
	assert.False(t, ok)
	assert.Contains(t, msg, "DEL, INS, DUP, INV, CNV")

	entry, ok, _ := buildMetaEntry(1, "ALT", `<ID=DEL:ME,Description="x">`)
	require.True(t, ok)
	assert.Equal(t, "DEL:ME", entry.ID)
}

func TestBuildMetaEntry_FilterRequiresDescription(t *testing.T) {
	_, ok, msg := buildMetaEntry(1, "FILTER", `<ID=q10>`)
	assert.False(t, ok)
	assert.Contains(t, msg, "Description")
}

func TestBuildMetaEntry_StructuredAttributesWithQuotedCommas(t *testing.T) {
	entry, ok, _ := buildMetaEntry(1, "INFO", `<ID=DP,Number=1,Type=Integer,Description="depth, total">`)
	require.True(t, ok)
	assert.Equal(t, "depth, total", entry.Attributes["Description"])
}

func TestSource_MetaAccessors(t *testing.T) {
	src := NewSource("test.vcf")
	assert.False(t, src.HasReferenceMeta())

	src.AddMeta(&MetaEntry{Category: "reference", Value: "x"})
	assert.True(t, src.HasReferenceMeta())

	src.AddMeta(&MetaEntry{Category: "contig", ID: "1"})
	assert.True(t, src.HasContig("1"))
	assert.False(t, src.HasContig("2"))
	assert.True(t, src.HasMetaID("contig", "1"))
}
