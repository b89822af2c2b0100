package utils

import (
	"sort"
	"strings"
)

// assumedStaples are pantry items generation prompts treat as always on
// hand; they carry no signal for duplicate detection and are dropped from
// normalized ingredient sets.
var assumedStaples = map[string]bool{
	"salt":         true,
	"pepper":       true,
	"black pepper": true,
	"water":        true,
	"oil":          true,
	"neutral oil":  true,
}

// irregularPlurals maps plural ingredient forms the suffix rules get wrong.
var irregularPlurals = map[string]string{
	"leaves":   "leaf",
	"loaves":   "loaf",
	"halves":   "half",
	"knives":   "knife",
	"chilies":  "chili",
	"chillies": "chilli",
}

// NormalizeIngredient converts an ingredient name to its canonical form:
// lowercased, trimmed, punctuation stripped, inner whitespace collapsed,
// final word singularized.
func NormalizeIngredient(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return ""
	}

	var b strings.Builder
	for _, ch := range lowered {
		isKept := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == ' ' || ch == '-'
		if isKept {
			b.WriteRune(ch)
		} else {
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	if len(words) == 0 {
		return ""
	}

	words[len(words)-1] = singularize(words[len(words)-1])
	return strings.Join(words, " ")
}

// singularize collapses common English plural suffixes
func singularize(word string) string {
	if singular, ok := irregularPlurals[word]; ok {
		return singular
	}
	if len(word) <= 3 {
		return word
	}

	switch {
	case strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "oes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "shes"), strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "xes"), strings.HasSuffix(word, "zes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	default:
		return word
	}
}

// IsStaple reports whether a normalized ingredient is an assumed staple
func IsStaple(normalized string) bool {
	return assumedStaples[normalized]
}

// NormalizeIngredientSet normalizes every name, drops empties, staples and
// duplicates, and returns the set sorted. When dropping staples would leave
// the set empty (a staples-only recipe), the staples are kept so the set
// stays comparable.
func NormalizeIngredientSet(names []string) []string {
	seen := make(map[string]bool)
	var withoutStaples []string
	var all []string

	for _, name := range names {
		normalized := NormalizeIngredient(name)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		all = append(all, normalized)
		if !IsStaple(normalized) {
			withoutStaples = append(withoutStaples, normalized)
		}
	}

	result := withoutStaples
	if len(result) == 0 {
		result = all
	}
	sort.Strings(result)
	return result
}

// NormalizeIdentifier converts a string to a normalized identifier
func NormalizeIdentifier(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}

	var out string
	lastUnderscore := false

	for _, ch := range trimmed {
		isAlphaNum := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
		if isAlphaNum {
			out += string(ch)
			lastUnderscore = false
		} else if !lastUnderscore {
			out += "_"
			lastUnderscore = true
		}
	}

	// Clean up leading/trailing underscores
	out = strings.Trim(out, "_")
	return out
}

// NormalizeTags lowercases and identifier-izes tags, dropping empties and
// duplicates, returning a sorted set
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, tag := range tags {
		normalized := NormalizeIdentifier(tag)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	sort.Strings(result)
	return result
}
