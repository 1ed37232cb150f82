package chunkers

import "testing"

func TestIsSectionHeader(t *testing.T) {
	headers := []string{
		"# Markdown Heading",
		"## Deeper",
		"1. Introduction",
		"2.1 Background",
		"2.1. Background",
		"10.2.3 Numbered Deeply",
		"INTRODUCTION",
		"RELATED WORK",
		"===",
		"----------",
	}
	for _, line := range headers {
		if !IsSectionHeader(line) {
			t.Errorf("expected header: %q", line)
		}
	}

	nonHeaders := []string{
		"",
		"   ",
		"plain sentence of prose",
		"1.5 is a number mid-sentence", // lower-case after the number
		"THIS ALL CAPS LINE HAS FAR TOO MANY WORDS TO BE A HEADER",
		"--",
		"a A",
	}
	for _, line := range nonHeaders {
		if IsSectionHeader(line) {
			t.Errorf("expected non-header: %q", line)
		}
	}
}
