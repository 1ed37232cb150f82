package chunkers

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/ragkit/docprep/pkg/types"
)

// markdownHeadingRegex matches ATX headings and captures depth and text
var markdownHeadingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// htmlBlockTags are the structural elements extracted in HTML mode
var htmlBlockTags = []string{"h1", "h2", "h3", "h4", "h5", "h6", "section", "article", "div"}

// htmlMarkerRegex detects documents that should be sectioned as HTML
var htmlMarkerRegex = regexp.MustCompile(`(?i)<(!doctype|html|body|head|div|section|article|h[1-6])\b`)

// MarkupSectioner segments a document into a hierarchy-aware sequence of
// sections using its heading structure. Oversized sections are subdivided
// on paragraph boundaries with a running character cursor, so every emitted
// chunk's offsets bound its text within the input exactly.
type MarkupSectioner struct {
	maxChunkSize int
	minChunkSize int
}

// NewMarkupSectioner creates a sectioner with the given size bounds
func NewMarkupSectioner(maxChunkSize, minChunkSize int) *MarkupSectioner {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if minChunkSize < 0 {
		minChunkSize = 0
	}
	return &MarkupSectioner{
		maxChunkSize: maxChunkSize,
		minChunkSize: minChunkSize,
	}
}

// Section splits text into heading-delimited chunks. Heading and Hierarchy
// are populated for markup document types; plain text falls back to
// paragraph packing with no hierarchy.
func (ms *MarkupSectioner) Section(text string, docType types.DocumentType) []*Chunk {
	if strings.TrimSpace(text) == "" {
		return []*Chunk{}
	}

	if docType == types.DocumentTypeAuto || docType == "" {
		docType = DetectDocumentType(text)
	}

	switch docType {
	case types.DocumentTypeMarkdown:
		return ms.sectionMarkdown(text)
	case types.DocumentTypeHTML:
		return ms.sectionHTML(text)
	default:
		return ms.packParagraphs(text, 0, len(text), "", nil)
	}
}

// DetectDocumentType classifies a document as HTML, markdown or plain.
// HTML is recognized by structural tags; markdown by the presence of ATX
// headings in the goldmark AST.
func DetectDocumentType(text string) types.DocumentType {
	if htmlMarkerRegex.MatchString(text) {
		return types.DocumentTypeHTML
	}

	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader([]byte(text)))

	hasHeading := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.Heading); ok {
			hasHeading = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	if hasHeading {
		return types.DocumentTypeMarkdown
	}
	return types.DocumentTypePlain
}

// sectionMarkdown folds over lines carrying (hierarchy, accumulator span,
// cursor) as explicit values. The accumulator is a [start,end) span into
// text, never a rebuilt string, which keeps offsets auditable.
func (ms *MarkupSectioner) sectionMarkdown(text string) []*Chunk {
	var chunks []*Chunk

	var hierarchy []string
	heading := ""
	accStart := -1
	accEnd := 0

	flush := func(force bool) {
		if accStart < 0 {
			return
		}
		sectionText := text[accStart:accEnd]
		if !force && len(strings.TrimSpace(sectionText)) < ms.minChunkSize {
			// Too small to stand alone; carried into the next section.
			return
		}
		chunks = append(chunks, ms.newSectionChunk(sectionText, accStart, accEnd, heading, hierarchy))
		accStart = -1
	}

	lineStart := 0
	for lineStart <= len(text) {
		lineEnd := strings.IndexByte(text[lineStart:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += lineStart
		}
		line := text[lineStart:lineEnd]

		if m := markdownHeadingRegex.FindStringSubmatch(line); m != nil {
			flush(false)

			depth := len(m[1])
			headingText := strings.TrimSpace(m[2])
			if depth-1 < len(hierarchy) {
				hierarchy = hierarchy[:depth-1]
			}
			hierarchy = append(hierarchy, headingText)
			heading = headingText
		}

		if accStart < 0 {
			accStart = lineStart
		}
		accEnd = lineEnd

		// Oversized accumulators are subdivided on paragraph boundaries
		// immediately, inheriting the current heading and hierarchy.
		if accEnd-accStart > ms.maxChunkSize {
			chunks = append(chunks, ms.packParagraphs(text, accStart, accEnd, heading, hierarchy)...)
			accStart = -1
		}

		if lineEnd == len(text) {
			break
		}
		lineStart = lineEnd + 1
	}

	// The final accumulator always flushes: there is no next section left
	// to merge a short remainder into.
	flush(true)

	return chunks
}

// packParagraphs splits text[start:end) on blank-line boundaries and packs
// consecutive paragraphs into chunks bounded by maxChunkSize. Offsets are
// advanced by a running cursor, never recomputed by substring search.
func (ms *MarkupSectioner) packParagraphs(text string, start, end int, heading string, hierarchy []string) []*Chunk {
	var chunks []*Chunk

	curStart := -1
	curEnd := start

	paraStart := start
	for paraStart < end {
		sep := strings.Index(text[paraStart:end], "\n\n")
		paraEnd := end
		if sep >= 0 {
			paraEnd = paraStart + sep
		}

		paraLen := paraEnd - paraStart
		if curStart >= 0 && paraEnd-curStart > ms.maxChunkSize && paraLen > 0 {
			chunks = append(chunks, ms.newSectionChunk(text[curStart:curEnd], curStart, curEnd, heading, hierarchy))
			curStart = -1
		}

		if paraLen > 0 {
			if curStart < 0 {
				curStart = paraStart
			}
			curEnd = paraEnd
		}

		if sep < 0 {
			break
		}
		paraStart = paraEnd + 2
	}

	if curStart >= 0 && curEnd > curStart {
		chunks = append(chunks, ms.newSectionChunk(text[curStart:curEnd], curStart, curEnd, heading, hierarchy))
	}

	return chunks
}

// htmlElement is a matched structural element with byte-exact offsets
type htmlElement struct {
	start int
	end   int
}

// sectionHTML extracts structural elements with byte-exact offsets. Each
// tag is matched separately because RE2 has no backreferences; overlapping
// matches collapse to the outermost element, mirroring a single-pass scan.
func (ms *MarkupSectioner) sectionHTML(text string) []*Chunk {
	var elements []htmlElement
	for _, tag := range htmlBlockTags {
		re := regexp.MustCompile(`(?is)<` + tag + `\b[^>]*>.*?</` + tag + `>`)
		for _, loc := range re.FindAllStringIndex(text, -1) {
			elements = append(elements, htmlElement{start: loc[0], end: loc[1]})
		}
	}

	sort.Slice(elements, func(i, j int) bool {
		if elements[i].start != elements[j].start {
			return elements[i].start < elements[j].start
		}
		return elements[i].end > elements[j].end
	})

	var chunks []*Chunk
	lastEnd := 0
	for _, el := range elements {
		if el.start < lastEnd {
			continue
		}
		sectionText := text[el.start:el.end]
		if len(strings.TrimSpace(sectionText)) < ms.minChunkSize {
			continue
		}
		chunks = append(chunks, ms.newSectionChunk(sectionText, el.start, el.end, extractHTMLHeading(sectionText), nil))
		lastEnd = el.end
	}

	if len(chunks) == 0 {
		return ms.packParagraphs(text, 0, len(text), "", nil)
	}
	return chunks
}

// extractHTMLHeading returns the text of the first heading element inside
// fragment, or an empty string.
func extractHTMLHeading(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("h1,h2,h3,h4,h5,h6").First().Text())
}

func (ms *MarkupSectioner) newSectionChunk(text string, start, end int, heading string, hierarchy []string) *Chunk {
	var stack []string
	if len(hierarchy) > 0 {
		stack = make([]string, len(hierarchy))
		copy(stack, hierarchy)
	}
	return &Chunk{
		Text:       text,
		StartIndex: start,
		EndIndex:   end,
		Heading:    heading,
		Hierarchy:  stack,
		Strategy:   StrategyMarkup,
		CreatedAt:  time.Now(),
	}
}
