package chunkers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragkit/docprep/pkg/types"
)

const guideDoc = `# Guide

An opening paragraph introducing the guide.

## Install

Instructions for installing the software.

### Linux

Steps specific to Linux machines.

## Usage

How to use the software day to day.`

func TestSectionMarkdownHierarchy(t *testing.T) {
	ms := NewMarkupSectioner(1000, 0)
	chunks := ms.Section(guideDoc, types.DocumentTypeMarkdown)
	require.Len(t, chunks, 4)

	assert.Equal(t, "Guide", chunks[0].Heading)
	assert.Equal(t, []string{"Guide"}, chunks[0].Hierarchy)

	assert.Equal(t, "Install", chunks[1].Heading)
	assert.Equal(t, []string{"Guide", "Install"}, chunks[1].Hierarchy)

	assert.Equal(t, "Linux", chunks[2].Heading)
	assert.Equal(t, []string{"Guide", "Install", "Linux"}, chunks[2].Hierarchy)

	// A depth-2 heading after depth-3 pops back to the document root.
	assert.Equal(t, "Usage", chunks[3].Heading)
	assert.Equal(t, []string{"Guide", "Usage"}, chunks[3].Hierarchy)
}

func TestSectionOffsetsBoundText(t *testing.T) {
	docs := []string{
		guideDoc,
		"plain text without any headings\n\nsplit across two paragraphs",
		"# Solo\n\nOne section only.",
	}

	for _, doc := range docs {
		for _, docType := range []types.DocumentType{types.DocumentTypeAuto, types.DocumentTypeMarkdown, types.DocumentTypePlain} {
			chunks := NewMarkupSectioner(1000, 0).Section(doc, docType)
			for _, chunk := range chunks {
				require.Equal(t, doc[chunk.StartIndex:chunk.EndIndex], chunk.Text)
				require.Equal(t, chunk.EndIndex-chunk.StartIndex, len(chunk.Text))
			}
		}
	}
}

func TestSectionHierarchyNotAliased(t *testing.T) {
	chunks := NewMarkupSectioner(1000, 0).Section(guideDoc, types.DocumentTypeMarkdown)
	require.Len(t, chunks, 4)

	// Later hierarchy mutations must not leak into earlier chunks.
	assert.Equal(t, []string{"Guide", "Install"}, chunks[1].Hierarchy)
	assert.Equal(t, []string{"Guide", "Install", "Linux"}, chunks[2].Hierarchy)
}

func TestSmallSectionsMergeForward(t *testing.T) {
	doc := "# A\n\ntiny\n\n# B\n\nThis section is long enough to be emitted on its own terms."

	chunks := NewMarkupSectioner(1000, 20).Section(doc, types.DocumentTypeMarkdown)
	require.Len(t, chunks, 1)

	// The undersized first section rides along with the next one.
	assert.Contains(t, chunks[0].Text, "tiny")
	assert.Contains(t, chunks[0].Text, "long enough to be emitted")
	assert.Equal(t, 0, chunks[0].StartIndex)
	assert.Equal(t, len(doc), chunks[0].EndIndex)
}

func TestFinalSectionAlwaysEmitted(t *testing.T) {
	doc := "# Heading\n\nA reasonably sized body for the one and only section.\n\n# End\n\nok"

	chunks := NewMarkupSectioner(1000, 20).Section(doc, types.DocumentTypeMarkdown)
	require.NotEmpty(t, chunks)

	// The trailing undersized section has nothing to merge into, so it is
	// still emitted rather than dropped.
	var all strings.Builder
	for _, chunk := range chunks {
		all.WriteString(chunk.Text)
	}
	assert.Contains(t, all.String(), "ok")
}

func TestOversizedSectionSplitsOnParagraphs(t *testing.T) {
	var b strings.Builder
	b.WriteString("# Big\n\n")
	for i := 0; i < 10; i++ {
		b.WriteString(strings.Repeat("word ", 30))
		b.WriteString("\n\n")
	}
	doc := b.String()

	chunks := NewMarkupSectioner(400, 0).Section(doc, types.DocumentTypeMarkdown)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 400+160) // one paragraph of slack
		assert.Equal(t, doc[chunk.StartIndex:chunk.EndIndex], chunk.Text)
		assert.Equal(t, "Big", chunk.Heading)
	}
}

func TestDetectDocumentType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want types.DocumentType
	}{
		{"markdown headings", "# Title\n\nBody text.", types.DocumentTypeMarkdown},
		{"html document", "<html><body><h1>Title</h1></body></html>", types.DocumentTypeHTML},
		{"html fragment", "<div class=\"content\">text</div>", types.DocumentTypeHTML},
		{"plain prose", "Just some plain text.\n\nAnother paragraph.", types.DocumentTypePlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDocumentType(tt.text))
		})
	}
}

func TestSectionHTML(t *testing.T) {
	doc := `<html><body><h1>Main Title</h1><section><h2>Part One</h2><p>Content of part one goes here.</p></section></body></html>`

	chunks := NewMarkupSectioner(1000, 0).Section(doc, types.DocumentTypeHTML)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.Equal(t, doc[chunk.StartIndex:chunk.EndIndex], chunk.Text)
	}

	headings := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		headings = append(headings, chunk.Heading)
	}
	assert.Contains(t, headings, "Main Title")
}

func TestSectionEmptyInput(t *testing.T) {
	assert.Empty(t, NewMarkupSectioner(1000, 0).Section("", types.DocumentTypeAuto))
	assert.Empty(t, NewMarkupSectioner(1000, 0).Section("   \n\n  ", types.DocumentTypeAuto))
}
