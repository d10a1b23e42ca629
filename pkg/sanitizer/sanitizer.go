package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reWhitespace = regexp.MustCompile(`\s+`)

func dropControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// SanitizeReason cleans a manual block reason: control characters are dropped
// and runs of whitespace become single spaces.
func SanitizeReason(input string) string {
	p := Pipeline{
		dropControl,
		collapseWhitespace,
	}
	return p.Apply(input)
}

// SanitizeID trims an identifier. Room ids are case sensitive.
func SanitizeID(input string) string {
	return strings.TrimSpace(input)
}

// SanitizeSlice applies strategy to each value, dropping empties and
// duplicates while keeping first-seen order.
func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}

func SanitizeIDs(ids []string) []string {
	return SanitizeSlice(ids, SanitizeID)
}
