package contact

import (
	"fmt"
	"sort"
	"strings"
)

// DetectedPattern is one masked match. The masked value lives only here,
// never in the filtered text.
type DetectedPattern struct {
	Type        PatternType `json:"type"`
	MaskedValue string      `json:"masked_value"`
}

// Result is the outcome of analyzing one piece of text.
type Result struct {
	Detected        bool              `json:"detected"`
	FilteredContent string            `json:"filtered_content"`
	Patterns        []DetectedPattern `json:"patterns,omitempty"`
}

// span is a half-open match range in rune indices.
type span struct {
	start, end int
	ptype      PatternType
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Analyze finds all contact patterns in text, masks each match, and returns
// the filtered text with every matched span replaced by a literal
// "[<TYPE> 감지됨]" marker. Pure function; no persistence.
func Analyze(text string) Result {
	if text == "" {
		return Result{FilteredContent: text}
	}

	runes := []rune(text)
	var claimed []span
	var patterns []DetectedPattern

	collect := func(ptype PatternType, haystack string, source []rune) {
		for _, family := range registry {
			if family.ptype != ptype {
				continue
			}
			for _, re := range family.patterns {
				for _, loc := range re.FindAllStringIndex(haystack, -1) {
					s := span{
						start: len([]rune(haystack[:loc[0]])),
						end:   len([]rune(haystack[:loc[1]])),
						ptype: ptype,
					}
					if anyOverlap(claimed, s) {
						continue
					}
					claimed = append(claimed, s)
					patterns = append(patterns, DetectedPattern{
						Type:        ptype,
						MaskedValue: maskValue(ptype, string(source[s.start:s.end])),
					})
				}
			}
		}
	}

	for _, family := range registry {
		collect(family.ptype, text, runes)
	}

	// Phone numbers spelled with Korean digit words: normalize rune-for-rune
	// and re-run the phone family. Spans map back directly because the
	// normalization preserves rune count.
	if normalized, changed := normalizeKoreanDigits(text); changed {
		collect(PatternPhone, normalized, []rune(normalized))
	}

	if len(claimed) == 0 {
		return Result{FilteredContent: text}
	}

	sort.Slice(claimed, func(i, j int) bool { return claimed[i].start < claimed[j].start })

	var b strings.Builder
	cursor := 0
	for _, s := range claimed {
		b.WriteString(string(runes[cursor:s.start]))
		b.WriteString(fmt.Sprintf("[%s 감지됨]", s.ptype))
		cursor = s.end
	}
	b.WriteString(string(runes[cursor:]))

	return Result{
		Detected:        true,
		FilteredContent: b.String(),
		Patterns:        patterns,
	}
}

// MaskText returns only the filtered form of text. Used by the registry to
// scrub free-text fields at write time, independently of chat filtering.
func MaskText(text string) string {
	return Analyze(text).FilteredContent
}

func anyOverlap(claimed []span, s span) bool {
	for _, c := range claimed {
		if c.overlaps(s) {
			return true
		}
	}
	return false
}

// maskValue applies the type-specific masking rule to a raw match.
func maskValue(ptype PatternType, raw string) string {
	switch ptype {
	case PatternPhone:
		return maskPhone(raw)
	case PatternEmail:
		return maskEmail(raw)
	default:
		return maskGeneric(raw)
	}
}

// maskPhone keeps the first 3 and last 4 digits, masking the middle.
func maskPhone(raw string) string {
	var digits []rune
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 8 {
		return strings.Repeat("*", len(digits))
	}
	mid := len(digits) - 7
	return string(digits[:3]) + strings.Repeat("*", mid) + string(digits[len(digits)-4:])
}

// maskEmail keeps the first 2 local-part characters and the domain.
// Circumvention spellings without a literal "@" fall back to generic masking.
func maskEmail(raw string) string {
	at := strings.Index(raw, "@")
	if at < 0 {
		return maskGeneric(raw)
	}
	local := []rune(raw[:at])
	domain := raw[at:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + domain
	}
	return string(local[:2]) + strings.Repeat("*", len(local)-2) + domain
}

// maskGeneric keeps the first and last 2 characters; short values are
// masked entirely.
func maskGeneric(raw string) string {
	runes := []rune(raw)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
