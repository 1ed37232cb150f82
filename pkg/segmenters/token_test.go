package segmenters

import (
	"context"
	"strings"
	"testing"
)

func TestTokenSegmenterOffsetsBoundText(t *testing.T) {
	seg, err := NewTokenSegmenter(20, 5)
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("alpha bravo charlie delta echo ", 20)
	spans, err := seg.Segment(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) < 2 {
		t.Fatalf("expected multiple spans, got %d", len(spans))
	}

	for i, span := range spans {
		if text[span.Start:span.End] != span.Text {
			t.Errorf("span %d: offsets do not bound text", i)
		}
	}
}

func TestTokenSegmenterCoversDocument(t *testing.T) {
	seg, _ := NewTokenSegmenter(10, 0)

	text := "one two three four five six seven eight nine ten eleven twelve"
	spans, err := seg.Segment(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	// Without overlap, consecutive spans tile the words in order.
	last := 0
	for _, span := range spans {
		if span.Start < last {
			t.Errorf("span starts before previous end: %d < %d", span.Start, last)
		}
		last = span.End
	}
	if spans[len(spans)-1].End != len(text) {
		t.Errorf("final span must reach the end of the document")
	}
}

func TestTokenSegmenterOverlap(t *testing.T) {
	seg, _ := NewTokenSegmenter(10, 4)

	text := strings.Repeat("word ", 40)
	spans, err := seg.Segment(context.Background(), strings.TrimSpace(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) < 2 {
		t.Fatalf("expected multiple spans, got %d", len(spans))
	}

	for i := 1; i < len(spans); i++ {
		if spans[i].Start >= spans[i-1].End {
			t.Errorf("span %d does not overlap its predecessor", i)
		}
		if spans[i].Start <= spans[i-1].Start {
			t.Errorf("span %d does not advance", i)
		}
	}
}

func TestTokenSegmenterEmptyInput(t *testing.T) {
	seg, _ := NewTokenSegmenter(10, 0)

	spans, err := seg.Segment(context.Background(), "   \n\t  ")
	if err != nil {
		t.Fatal(err)
	}
	if len(spans) != 0 {
		t.Errorf("whitespace-only input must produce no spans, got %d", len(spans))
	}
}

func TestTokenSegmenterRejectsBadConfig(t *testing.T) {
	if _, err := NewTokenSegmenter(0, 0); err == nil {
		t.Error("zero chunk size must be rejected")
	}
	if _, err := NewTokenSegmenter(10, 10); err == nil {
		t.Error("overlap equal to chunk size must be rejected")
	}
	if _, err := NewTokenSegmenter(10, -1); err == nil {
		t.Error("negative overlap must be rejected")
	}
}

func TestScanSentences(t *testing.T) {
	text := "First sentence. Second one! Third?\n\nNew paragraph without terminator"
	sentences := scanSentences(text)

	if len(sentences) != 4 {
		t.Fatalf("expected 4 sentences, got %d", len(sentences))
	}
	for i, s := range sentences {
		if text[s.start:s.end] != s.text {
			t.Errorf("sentence %d: offsets do not bound text", i)
		}
	}
	if strings.TrimSpace(sentences[0].text) != "First sentence." {
		t.Errorf("unexpected first sentence: %q", sentences[0].text)
	}
	if strings.TrimSpace(sentences[3].text) != "New paragraph without terminator" {
		t.Errorf("unexpected last sentence: %q", sentences[3].text)
	}
}

func TestScanSentencesKeepsEllipsisTogether(t *testing.T) {
	sentences := scanSentences("Wait... there is more. Done.")
	if len(sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(sentences))
	}
	if strings.TrimSpace(sentences[0].text) != "Wait..." {
		t.Errorf("ellipsis split incorrectly: %q", sentences[0].text)
	}
}
