// Package cleaner removes non-essential boilerplate sections from document
// text before chunking: tables of contents, acknowledgements, references,
// appendices, and header/footer noise.
package cleaner

import (
	"regexp"
	"strings"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/interfaces"
	"github.com/ragkit/docprep/pkg/logger"
)

// Section names recorded in Result.SectionsRemoved
const (
	SectionTOC              = "Table of Contents"
	SectionAcknowledgements = "Acknowledgements"
	SectionReferences       = "References"
	SectionAppendix         = "Appendix"
	SectionHeadersFooters   = "Headers/Footers"
)

// sectionLookaheadLines bounds suppression after a section-start match.
// When no terminator appears within the window, removal stops rather than
// consuming the rest of the document.
const sectionLookaheadLines = 100

// ackLookaheadLines bounds the smart acknowledgements scan
const ackLookaheadLines = 50

// tocEndRunLength is how many consecutive non-indicator lines end a TOC in
// smart mode. Fixed policy carried over from tuning.
const tocEndRunLength = 5

// Section start patterns. Each alternative carries its own anchors and is
// matched against the trimmed line, so the tables are testable on their own.
var (
	tocPatterns = []string{
		`^table of contents?$`,
		`^contents?$`,
		`^toc$`,
		`^\d+\.\s*table of contents`,
		`^list of (figures|tables|illustrations)`,
	}

	acknowledgementPatterns = []string{
		`^acknowledgements?$`,
		`^acknowledgments?$`,
		`^thanks?$`,
		`^\d+\.\s*acknowledgements?`,
	}

	referencePatterns = []string{
		`^references?$`,
		`^bibliography$`,
		`^works? cited$`,
		`^citations?$`,
		`^\d+\.\s*references?`,
	}

	appendixPatterns = []string{
		`^appendix\s*[a-z]?$`,
		`^appendices$`,
		`^\d+\.\s*appendix`,
	}

	footerPatterns = []string{
		`^\d+\s*$`,
		`^page\s+\d+\s*$`,
		`^-\s*\d+\s*-$`,
	}

	// tocIndicators mark lines that belong to a table of contents: dotted
	// leaders, trailing page numbers, chapter/section references.
	tocIndicators = []string{
		`\.\.\.`,
		`\d+\s*$`,
		`chapter\s+\d+`,
		`section\s+\d+`,
	}

	// ackPhrases mark acknowledgement prose without a section heading
	ackPhrases = []string{
		"would like to thank",
		"grateful to",
		"special thanks",
		"like to acknowledge",
		"indebted to",
	}
)

var (
	tocRegex          = compilePatterns(tocPatterns)
	ackRegex          = compilePatterns(acknowledgementPatterns)
	refRegex          = compilePatterns(referencePatterns)
	appendixRegex     = compilePatterns(appendixPatterns)
	footerRegex       = compilePatterns(footerPatterns)
	tocIndicatorRegex = compilePatterns(tocIndicators)

	multiNewlineRegex = regexp.MustCompile(`\n{3,}`)
)

// compilePatterns combines multiple patterns into a single case-insensitive
// regex.
func compilePatterns(patterns []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(` + strings.Join(patterns, ")|(") + `)`)
}

// Options enumerate which sections to strip
type Options struct {
	// RemoveTOC removes the table of contents
	RemoveTOC bool `json:"remove_toc" yaml:"remove_toc"`

	// RemoveAcknowledgements removes acknowledgements sections
	RemoveAcknowledgements bool `json:"remove_acknowledgements" yaml:"remove_acknowledgements"`

	// RemoveReferences removes references and bibliographies. Off by
	// default: references are often worth retrieving.
	RemoveReferences bool `json:"remove_references" yaml:"remove_references"`

	// RemoveAppendices removes appendix sections
	RemoveAppendices bool `json:"remove_appendices" yaml:"remove_appendices"`

	// RemoveHeadersFooters drops page numbers and very short noise lines
	RemoveHeadersFooters bool `json:"remove_headers_footers" yaml:"remove_headers_footers"`

	// MinSectionLines is the minimum number of lines a section must have
	// to be worth a removal pass
	MinSectionLines int `json:"min_section_lines" yaml:"min_section_lines"`

	// SmartCleaning enables heuristic TOC/acknowledgement boundary
	// detection on top of the pattern passes
	SmartCleaning bool `json:"smart_cleaning" yaml:"smart_cleaning"`
}

// DefaultOptions returns the default cleaning options
func DefaultOptions() *Options {
	return &Options{
		RemoveTOC:              true,
		RemoveAcknowledgements: true,
		RemoveReferences:       false,
		RemoveAppendices:       false,
		RemoveHeadersFooters:   true,
		MinSectionLines:        3,
		SmartCleaning:          true,
	}
}

// Result describes what a cleaning pass did
type Result struct {
	// OriginalLength is the character length of the input
	OriginalLength int `json:"original_length" yaml:"original_length"`

	// CleanedLength is the character length of the output.
	// Invariant: CleanedLength <= OriginalLength.
	CleanedLength int `json:"cleaned_length" yaml:"cleaned_length"`

	// SectionsRemoved names every section type whose pattern matched and
	// from which at least one line was deleted
	SectionsRemoved []string `json:"sections_removed" yaml:"sections_removed"`

	// LinesRemoved is the number of lines deleted
	LinesRemoved int `json:"lines_removed" yaml:"lines_removed"`
}

// ReductionPercent returns the share of content removed
func (r *Result) ReductionPercent() float64 {
	if r.OriginalLength == 0 {
		return 0
	}
	return float64(r.OriginalLength-r.CleanedLength) / float64(r.OriginalLength) * 100
}

// DocumentCleaner strips non-essential sections from documents. Cleaning
// never fails; a document with no matches is returned unchanged.
type DocumentCleaner struct {
	opts Options
	log  interfaces.Logger
}

// New creates a cleaner with the given options (nil means defaults)
func New(opts *Options) *DocumentCleaner {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &DocumentCleaner{
		opts: *opts,
		log:  logger.NewLogger(),
	}
}

// Clean is a convenience wrapper around New(opts).Clean(text)
func Clean(text string, opts *Options) (string, *Result) {
	return New(opts).Clean(text)
}

// Clean removes the configured sections and normalizes whitespace
func (c *DocumentCleaner) Clean(text string) (string, *Result) {
	originalLength := len(text)
	originalLines := strings.Count(text, "\n") + 1
	var sectionsRemoved []string

	record := func(name string, removed bool) {
		if !removed {
			return
		}
		for _, existing := range sectionsRemoved {
			if existing == name {
				return
			}
		}
		sectionsRemoved = append(sectionsRemoved, name)
	}

	// Smart boundary detection runs before the pattern passes: the
	// pattern pass consumes the section start line, which would leave
	// the smart scan nothing to anchor on.
	if c.opts.SmartCleaning {
		if c.opts.RemoveTOC {
			var removed bool
			text, removed = smartRemoveTOC(text)
			record(SectionTOC, removed)
		}
		if c.opts.RemoveAcknowledgements {
			var removed bool
			text, removed = smartRemoveAcknowledgements(text)
			record(SectionAcknowledgements, removed)
		}
	}

	if c.opts.RemoveTOC {
		var removed bool
		text, removed = removeSection(text, tocRegex)
		record(SectionTOC, removed)
	}

	if c.opts.RemoveAcknowledgements {
		var removed bool
		text, removed = removeSection(text, ackRegex)
		record(SectionAcknowledgements, removed)
	}

	if c.opts.RemoveReferences {
		var removed bool
		text, removed = removeSection(text, refRegex)
		record(SectionReferences, removed)
	}

	if c.opts.RemoveAppendices {
		var removed bool
		text, removed = removeSection(text, appendixRegex)
		record(SectionAppendix, removed)
	}

	if c.opts.RemoveHeadersFooters {
		var removed bool
		text, removed = removeHeadersFooters(text)
		record(SectionHeadersFooters, removed)
	}

	text = normalizeWhitespace(text)

	result := &Result{
		OriginalLength:  originalLength,
		CleanedLength:   len(text),
		SectionsRemoved: sectionsRemoved,
		LinesRemoved:    originalLines - (strings.Count(text, "\n") + 1),
	}
	if result.LinesRemoved < 0 {
		result.LinesRemoved = 0
	}

	if len(sectionsRemoved) > 0 {
		c.log.Debug("document cleaned", map[string]interface{}{
			"sections_removed": strings.Join(sectionsRemoved, ", "),
			"reduction_pct":    result.ReductionPercent(),
		})
	}

	return text, result
}

// removeSection suppresses lines from a section-start match until the next
// structural header, bounded by the lookahead window.
func removeSection(text string, startRegex *regexp.Regexp) (string, bool) {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))

	skipping := false
	skipped := 0
	removed := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !skipping && startRegex.MatchString(trimmed) {
			skipping = true
			skipped = 0
			removed = true
			continue
		}

		if skipping {
			if chunkers.IsSectionHeader(trimmed) {
				skipping = false
			} else if skipped >= sectionLookaheadLines {
				// Fail-soft: no terminator within the window, keep the rest.
				skipping = false
			} else {
				skipped++
				continue
			}
		}

		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n"), removed
}

// smartRemoveTOC locates a TOC by its start pattern and ends it when a run
// of consecutive non-indicator lines shows the listing is over.
func smartRemoveTOC(text string) (string, bool) {
	lines := strings.Split(text, "\n")

	tocStart := -1
	for i, line := range lines {
		if tocRegex.MatchString(strings.TrimSpace(line)) {
			tocStart = i
			break
		}
	}
	if tocStart == -1 {
		return text, false
	}

	tocEnd := -1
	nonIndicatorRun := 0
	limit := min(tocStart+sectionLookaheadLines, len(lines))
	for i := tocStart + 1; i < limit; i++ {
		if tocIndicatorRegex.MatchString(strings.TrimSpace(lines[i])) {
			tocEnd = i
			nonIndicatorRun = 0
		} else {
			nonIndicatorRun++
		}
		if nonIndicatorRun >= tocEndRunLength {
			break
		}
	}

	if tocEnd <= tocStart {
		return text, false
	}

	remaining := make([]string, 0, len(lines)-(tocEnd-tocStart+1))
	remaining = append(remaining, lines[:tocStart]...)
	remaining = append(remaining, lines[tocEnd+1:]...)
	return strings.Join(remaining, "\n"), true
}

// smartRemoveAcknowledgements locates acknowledgement prose by heading or
// phrase and ends it at two consecutive blank lines or the next header.
func smartRemoveAcknowledgements(text string) (string, bool) {
	lines := strings.Split(text, "\n")

	ackStart := -1
	for i, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if ackRegex.MatchString(lower) {
			ackStart = i
			break
		}
		for _, phrase := range ackPhrases {
			if strings.Contains(lower, phrase) {
				ackStart = i
				break
			}
		}
		if ackStart != -1 {
			break
		}
	}
	if ackStart == -1 {
		return text, false
	}

	ackEnd := -1
	blankRun := 0
	limit := min(ackStart+ackLookaheadLines, len(lines))
	for i := ackStart + 1; i < limit; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			blankRun++
		} else {
			blankRun = 0
		}
		if blankRun >= 2 || chunkers.IsSectionHeader(trimmed) {
			ackEnd = i
			break
		}
	}

	if ackEnd <= ackStart {
		return text, false
	}

	remaining := make([]string, 0, len(lines)-(ackEnd-ackStart))
	remaining = append(remaining, lines[:ackStart]...)
	remaining = append(remaining, lines[ackEnd:]...)
	return strings.Join(remaining, "\n"), true
}

// removeHeadersFooters drops page-number lines and lines shorter than
// three characters.
func removeHeadersFooters(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	removed := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if footerRegex.MatchString(trimmed) || len(trimmed) < 3 {
			removed = true
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n"), removed
}

// normalizeWhitespace collapses runs of blank lines to a single blank line,
// trims trailing whitespace per line, and trims the document.
func normalizeWhitespace(text string) string {
	text = multiNewlineRegex.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// DetectSections reports which removable sections are present, mapping the
// section name to the line numbers of its start-pattern matches.
func DetectSections(text string) map[string][]int {
	sections := make(map[string][]int)

	checks := []struct {
		name  string
		regex *regexp.Regexp
	}{
		{SectionTOC, tocRegex},
		{SectionAcknowledgements, ackRegex},
		{SectionReferences, refRegex},
		{SectionAppendix, appendixRegex},
	}

	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, check := range checks {
			if check.regex.MatchString(trimmed) {
				sections[check.name] = append(sections[check.name], i)
			}
		}
	}

	return sections
}
