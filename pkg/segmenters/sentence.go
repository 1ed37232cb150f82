// Package segmenters splits raw text into spans with exact byte offsets.
// Segmenters back the token and semantic chunking strategies and re-split
// oversized sections produced by markup sectioning.
package segmenters

import (
	"strings"
	"unicode"
)

// defaultTokenEstimator approximates token counts at roughly four
// characters per token, which tracks common BPE vocabularies closely
// enough for size budgeting.
func defaultTokenEstimator(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// sentenceSpan is a sentence located in the original text
type sentenceSpan struct {
	text  string
	start int
	end   int
}

// scanSentences splits text into sentences, keeping byte offsets. A
// sentence ends at '.', '!', or '?' followed by whitespace, or at a
// paragraph break. Offsets always satisfy text[start:end] == sentence.
func scanSentences(text string) []sentenceSpan {
	var sentences []sentenceSpan
	start := 0

	flush := func(end int) {
		if end <= start {
			return
		}
		s := text[start:end]
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, sentenceSpan{text: s, start: start, end: end})
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			// Terminator runs ("..." or "?!") belong to the sentence.
			j := i
			for j+1 < len(text) && (text[j+1] == '.' || text[j+1] == '!' || text[j+1] == '?') {
				j++
			}
			if j+1 >= len(text) || unicode.IsSpace(rune(text[j+1])) {
				flush(j + 1)
			}
			i = j
		case '\n':
			if i+1 < len(text) && text[i+1] == '\n' {
				flush(i)
			}
		}
	}
	flush(len(text))

	return sentences
}

// scanWords splits text into whitespace-delimited words with byte offsets
func scanWords(text string) []sentenceSpan {
	var words []sentenceSpan
	start := -1

	for i := 0; i < len(text); i++ {
		isSpace := text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r'
		if isSpace {
			if start != -1 {
				words = append(words, sentenceSpan{text: text[start:i], start: start, end: i})
				start = -1
			}
		} else if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, sentenceSpan{text: text[start:], start: start, end: len(text)})
	}

	return words
}
