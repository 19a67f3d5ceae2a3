package scoring

import (
	"strings"
	"unicode/utf8"

	types "github.com/yungbote/findable-backend/internal/domain"
)

// recommendationWindow is how many characters on each side of a name occurrence are searched for
// recommendation vocabulary.
const recommendationWindow = 100

var recommendationTerms = []string{
	"recommend",
	"suggest",
	"best",
	"top choice",
	"preferred",
	"excellent",
	"great option",
	"try",
	"use",
	"consider",
}

// IsMentioned reports whether the response text contains any of names, or whether the runner's
// explicit mention list carries one of them. names must already be lower-cased.
func IsMentioned(r *types.RunResult, names []string) bool {
	if r == nil || len(names) == 0 {
		return false
	}
	text := strings.ToLower(r.ResponseText)
	for _, n := range names {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	for _, m := range r.Mentions {
		for _, n := range names {
			if n != "" && strings.EqualFold(strings.TrimSpace(m), n) {
				return true
			}
		}
	}
	return false
}

// IsRecommended finds the earliest occurrence of any of names in the response and reports whether
// recommendation vocabulary appears within recommendationWindow characters of it.
func IsRecommended(r *types.RunResult, names []string) bool {
	if r == nil || len(names) == 0 {
		return false
	}
	text := strings.ToLower(r.ResponseText)
	start, end := -1, -1
	for _, n := range names {
		if n == "" {
			continue
		}
		if i := strings.Index(text, n); i >= 0 && (start < 0 || i < start) {
			start, end = i, i+len(n)
		}
	}
	if start < 0 {
		return false
	}
	window := text[backRunes(text, start, recommendationWindow):forwardRunes(text, end, recommendationWindow)]
	for _, term := range recommendationTerms {
		if strings.Contains(window, term) {
			return true
		}
	}
	return false
}

// backRunes steps back up to n runes from byte offset i.
func backRunes(s string, i, n int) int {
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return i
}

// forwardRunes steps forward up to n runes from byte offset i.
func forwardRunes(s string, i, n int) int {
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
