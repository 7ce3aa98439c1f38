// Package contact detects attempts to exchange off-platform contact
// channels in user text. Pattern families are compiled once at init into an
// immutable registry; all functions here are pure and safe for concurrent
// use. Escalation and persistence live in the service layer.
package contact

import (
	"regexp"
	"strings"
)

// PatternType identifies a contact-pattern family.
type PatternType string

const (
	PatternPhone     PatternType = "PHONE"
	PatternEmail     PatternType = "EMAIL"
	PatternSNS       PatternType = "SNS"
	PatternURL       PatternType = "URL"
	PatternMessenger PatternType = "MESSENGER"
)

// patternFamily couples a type with its matchers. Families are tried in
// registry order; earlier families claim spans first.
type patternFamily struct {
	ptype    PatternType
	patterns []*regexp.Regexp
}

var (
	// Korean mobile/landline with optional separators, plus bare digit runs.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`01[016789][-.\s]?\d{3,4}[-.\s]?\d{4}`),
		regexp.MustCompile(`(02|0[3-6][1-5])[-.\s]?\d{3,4}[-.\s]?\d{4}`),
		regexp.MustCompile(`01\d{8,9}`),
	}

	// Standard address form plus circumvention spellings
	// ("골뱅이" for "@", "닷"/"점" for ".").
	emailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
		regexp.MustCompile(`(?i)[A-Za-z0-9._%+\-]+\s*골뱅이\s*[A-Za-z0-9\-]+\s*(닷|점|dot)\s*(com|net|org|kr|컴)`),
	}

	// Messenger-app handle mentions with optional keyword prefix and an ID token.
	snsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(카카오톡|카톡|카카오|kakao|인스타그램|인스타|instagram|insta|텔레그램|telegram|라인(?:\s|아이디)|line)\s*(아이디|계정|id)?\s*[:：]?\s*@?[A-Za-z0-9._\-]{3,20}`),
	}

	// Explicit scheme URLs, bare domains, obfuscated domain spellings.
	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://[^\s]+`),
		regexp.MustCompile(`(?i)www\.[^\s]+`),
		regexp.MustCompile(`(?i)[A-Za-z0-9\-]+\.(com|net|co\.kr|kr|io|me)(/[^\s]*)?`),
		regexp.MustCompile(`(?i)[A-Za-z0-9\-]+\s*(닷|점)\s*(컴|com|net|kr)`),
	}

	// Natural-language requests to move communication off-platform.
	messengerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(문자|전화|톡)\s*(로|으로)?\s*(연락|부탁|주세요|줘|해)`),
		regexp.MustCompile(`따로\s*(연락|얘기|이야기)`),
		regexp.MustCompile(`(연락처|번호)\s*(알려|남겨|보내)`),
	}

	// registry order doubles as claim priority: phone wins over url, email
	// over url, so an address never half-matches as a bare domain.
	registry = []patternFamily{
		{PatternPhone, phonePatterns},
		{PatternEmail, emailPatterns},
		{PatternURL, urlPatterns},
		{PatternSNS, snsPatterns},
		{PatternMessenger, messengerPatterns},
	}
)

// koreanDigits maps Korean number-words to Arabic digits. Static; used to
// normalize spelled-out phone numbers ("공일공" -> "010") before re-matching
// against the phone family. Every key is a single Hangul syllable so the
// normalized text has the same rune count as the original.
var koreanDigits = map[rune]rune{
	'공': '0',
	'영': '0',
	'일': '1',
	'이': '2',
	'삼': '3',
	'사': '4',
	'오': '5',
	'육': '6',
	'칠': '7',
	'팔': '8',
	'구': '9',
}

// normalizeKoreanDigits replaces Korean number-words rune-for-rune. Returns
// the normalized string and whether anything changed.
func normalizeKoreanDigits(text string) (string, bool) {
	changed := false
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if d, ok := koreanDigits[r]; ok {
			b.WriteRune(d)
			changed = true
		} else {
			b.WriteRune(r)
		}
	}
	return b.String(), changed
}
