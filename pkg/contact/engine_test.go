package contact

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_PhoneNumber(t *testing.T) {
	result := Analyze("제 번호는 010-1234-5678입니다")

	require.True(t, result.Detected)
	assert.Equal(t, "제 번호는 [PHONE 감지됨]입니다", result.FilteredContent)
	require.Len(t, result.Patterns, 1)
	assert.Equal(t, PatternPhone, result.Patterns[0].Type)
	assert.Equal(t, "010****5678", result.Patterns[0].MaskedValue)
}

func TestAnalyze_PhoneVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no separators", "01012345678로 전화주세요"},
		{"dots", "010.1234.5678"},
		{"spaces", "010 1234 5678"},
		{"landline seoul", "02-1234-5678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Analyze(tt.text)
			require.True(t, result.Detected, "should detect phone in %q", tt.text)
			assert.Contains(t, result.FilteredContent, "[PHONE 감지됨]")
			assert.NotContains(t, result.FilteredContent, "1234")
		})
	}
}

func TestAnalyze_KoreanDigitWords(t *testing.T) {
	result := Analyze("공일공 일이삼사 오육칠팔")

	require.True(t, result.Detected)
	assert.Contains(t, result.FilteredContent, "[PHONE 감지됨]")
	require.Len(t, result.Patterns, 1)
	assert.Equal(t, PatternPhone, result.Patterns[0].Type)
}

func TestAnalyze_Email(t *testing.T) {
	result := Analyze("이메일은 pharm.seller@example.com 입니다")

	require.True(t, result.Detected)
	assert.Contains(t, result.FilteredContent, "[EMAIL 감지됨]")
	assert.NotContains(t, result.FilteredContent, "example.com")
	require.Len(t, result.Patterns, 1)
	assert.Equal(t, PatternEmail, result.Patterns[0].Type)
	// First two local chars survive, the rest is masked.
	assert.True(t, strings.HasPrefix(result.Patterns[0].MaskedValue, "ph"))
	assert.Contains(t, result.Patterns[0].MaskedValue, "@example.com")
}

func TestAnalyze_EmailCircumvention(t *testing.T) {
	result := Analyze("연락처: pharma 골뱅이 naver 닷 com")

	require.True(t, result.Detected)
	assert.Contains(t, result.FilteredContent, "[EMAIL 감지됨]")
}

func TestAnalyze_SNSHandles(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"kakao id", "카톡 아이디 pharmseller로 연락주세요"},
		{"instagram", "인스타 @pharm_king 팔로우"},
		{"telegram", "텔레그램 pharm123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Analyze(tt.text)
			require.True(t, result.Detected, "should detect SNS in %q", tt.text)
			assert.Contains(t, result.FilteredContent, "[SNS 감지됨]")
		})
	}
}

func TestAnalyze_URL(t *testing.T) {
	result := Analyze("자세한 내용은 https://open.kakao.com/o/abc123 참고")

	require.True(t, result.Detected)
	assert.Contains(t, result.FilteredContent, "[URL 감지됨]")
	assert.NotContains(t, result.FilteredContent, "open.kakao.com")
}

func TestAnalyze_Messenger(t *testing.T) {
	result := Analyze("문자로 연락 주시면 됩니다")

	require.True(t, result.Detected)
	assert.Contains(t, result.FilteredContent, "[MESSENGER 감지됨]")
}

func TestAnalyze_CleanText(t *testing.T) {
	text := "권리금 협의 가능합니다. 약국 위치가 좋아요."
	result := Analyze(text)

	assert.False(t, result.Detected)
	assert.Equal(t, text, result.FilteredContent)
	assert.Empty(t, result.Patterns)
}

func TestAnalyze_EmptyText(t *testing.T) {
	result := Analyze("")

	assert.False(t, result.Detected)
	assert.Equal(t, "", result.FilteredContent)
}

func TestAnalyze_MultiplePatterns(t *testing.T) {
	result := Analyze("전화 010-1234-5678 또는 a.b@test.com")

	require.True(t, result.Detected)
	assert.Contains(t, result.FilteredContent, "[PHONE 감지됨]")
	assert.Contains(t, result.FilteredContent, "[EMAIL 감지됨]")
	assert.Len(t, result.Patterns, 2)
}

// Markers must not themselves trigger detection, so re-filtering already
// filtered text is a no-op.
func TestAnalyze_Idempotent(t *testing.T) {
	first := Analyze("제 번호는 010-1234-5678입니다")
	require.True(t, first.Detected)

	second := Analyze(first.FilteredContent)
	assert.False(t, second.Detected)
	assert.Equal(t, first.FilteredContent, second.FilteredContent)
}

func TestMaskText(t *testing.T) {
	assert.Equal(t, "연락처 [PHONE 감지됨]", MaskText("연락처 010-9999-8888"))
	assert.Equal(t, "깨끗한 텍스트", MaskText("깨끗한 텍스트"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "010****5678", maskPhone("010-1234-5678"))
	assert.Equal(t, "021***5678", maskPhone("02-1234-5678"))
	assert.Equal(t, "*******", maskPhone("1234567"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "ab***@test.com", maskEmail("abcde@test.com"))
	assert.Equal(t, "**@test.com", maskEmail("ab@test.com"))
}

func TestMaskGeneric(t *testing.T) {
	assert.Equal(t, "ph*******g1", maskGeneric("pharm_king1"))
	assert.Equal(t, "****", maskGeneric("abcd"))
}

func TestNormalizeKoreanDigits(t *testing.T) {
	normalized, changed := normalizeKoreanDigits("공일공")
	assert.True(t, changed)
	assert.Equal(t, "010", normalized)

	same, changed := normalizeKoreanDigits("안녕하세요")
	assert.False(t, changed)
	assert.Equal(t, "안녕하세요", same)

	// Rune count is preserved so match spans map back onto the raw text.
	mixed, changed := normalizeKoreanDigits("번호 공일공 끝")
	assert.True(t, changed)
	assert.Equal(t, len([]rune("번호 공일공 끝")), len([]rune(mixed)))
}
