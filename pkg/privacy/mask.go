package privacy

import (
	"regexp"
	"strings"

	"github.com/yakmate-inc/yakmate-engine/pkg/contact"
)

// Labeled Korean names in free text ("이름: 홍길동", "성함은 김철수").
// Bare names are left alone; guessing at arbitrary Hangul would mangle
// pharmacy descriptions.
var namePattern = regexp.MustCompile(`(이름|성함|담당자)\s*[:은는]?\s*([가-힣]{2,4})`)

// MaskPersonalInfo scrubs contact channels and labeled names from a
// free-text field at write time. Defense in depth: description and
// introduction fields are masked independently of any chat filtering.
// Pure function, no side effects.
func MaskPersonalInfo(text string) string {
	if text == "" {
		return text
	}

	masked := contact.MaskText(text)

	return namePattern.ReplaceAllStringFunc(masked, func(m string) string {
		sub := namePattern.FindStringSubmatch(m)
		name := []rune(sub[2])
		// Keep the family name, mask the rest.
		replacement := string(name[:1]) + strings.Repeat("*", len(name)-1)
		return strings.Replace(m, sub[2], replacement, 1)
	})
}
