package chunkers

import "strings"

// contextSeparator joins the per-neighbor context snippets
const contextSeparator = " ... "

// ContextWindowBuilder attaches neighbor-derived context strings to a base
// chunk sequence. The chunks themselves are unchanged apart from the
// ContextBefore/ContextAfter fields.
type ContextWindowBuilder struct {
	contextWindow int
	overlapSize   int
}

// NewContextWindowBuilder creates a builder taking up to contextWindow
// neighbors on each side, trimmed to overlapSize characters from the near
// edge.
func NewContextWindowBuilder(contextWindow, overlapSize int) *ContextWindowBuilder {
	if contextWindow < 0 {
		contextWindow = 0
	}
	if overlapSize < 0 {
		overlapSize = 0
	}
	return &ContextWindowBuilder{
		contextWindow: contextWindow,
		overlapSize:   overlapSize,
	}
}

// AddContext populates ContextBefore and ContextAfter on every chunk. The
// first chunk has no before side and the last no after side; fewer
// neighbors than the window is not an error.
func (cb *ContextWindowBuilder) AddContext(chunks []*Chunk) []*Chunk {
	if cb.contextWindow == 0 {
		return chunks
	}

	for i, chunk := range chunks {
		if i > 0 {
			var before []string
			for j := max(0, i-cb.contextWindow); j < i; j++ {
				before = append(before, tailRunes(chunks[j].Text, cb.overlapSize))
			}
			chunk.ContextBefore = strings.Join(before, contextSeparator)
		}

		if i < len(chunks)-1 {
			var after []string
			for j := i + 1; j < min(len(chunks), i+1+cb.contextWindow); j++ {
				after = append(after, headRunes(chunks[j].Text, cb.overlapSize))
			}
			chunk.ContextAfter = strings.Join(after, contextSeparator)
		}
	}

	return chunks
}

// tailRunes returns the last n runes of s
func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// headRunes returns the first n runes of s
func headRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
