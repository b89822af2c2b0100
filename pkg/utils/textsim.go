package utils

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// titleStopwords are filler words stripped before title comparison so that
// "Easy Creamy Mushroom Pasta" and "Mushroom Pasta" compare as near-equal.
var titleStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "for": true,
	"and": true, "with": true, "to": true, "on": true, "in": true,
	"easy": true, "simple": true, "quick": true, "creamy": true,
	"savory": true, "crispy": true,
}

// NormalizeTitle lowercases a title, strips punctuation and stopwords, and
// returns the remaining tokens in order
func NormalizeTitle(title string) []string {
	lowered := strings.ToLower(title)

	var b strings.Builder
	for _, ch := range lowered {
		isKept := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == ' '
		if isKept {
			b.WriteRune(ch)
		} else {
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if titleStopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Trigrams returns the character trigram multiset of the joined tokens.
// Strings shorter than three runes contribute themselves as a single gram.
func Trigrams(tokens []string) map[string]int {
	grams := make(map[string]int)
	joined := strings.Join(tokens, " ")
	runes := []rune(joined)

	if len(runes) == 0 {
		return grams
	}
	if len(runes) < 3 {
		grams[string(runes)]++
		return grams
	}
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])]++
	}
	return grams
}

// TrigramCosine computes cosine similarity between two trigram multisets.
// Two empty titles are identical (1.0); one empty title matches nothing.
func TrigramCosine(a, b map[string]int) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for gram, countA := range a {
		normA += float64(countA * countA)
		if countB, ok := b[gram]; ok {
			dot += float64(countA * countB)
		}
	}
	for _, countB := range b {
		normB += float64(countB * countB)
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Jaccard computes intersection-over-union set overlap for two string
// slices treated as sets. Two empty sets are identical (1.0); one empty
// set overlaps nothing.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	setA := make(map[string]bool, len(a))
	for _, item := range a {
		setA[item] = true
	}

	union := make(map[string]bool, len(a)+len(b))
	for item := range setA {
		union[item] = true
	}

	intersection := 0
	seenB := make(map[string]bool, len(b))
	for _, item := range b {
		if seenB[item] {
			continue
		}
		seenB[item] = true
		union[item] = true
		if setA[item] {
			intersection++
		}
	}

	return float64(intersection) / float64(len(union))
}

// LevenshteinRatio converts edit distance to a [0,1] similarity over the
// longer string's length
func LevenshteinRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}

	maxLen := len([]rune(a))
	if lb := len([]rune(b)); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	ratio := 1.0 - float64(dist)/float64(maxLen)
	if ratio < 0 {
		return 0.0
	}
	return ratio
}

// TitleSimilarity blends trigram cosine, token Jaccard and Levenshtein
// ratio over normalized titles into a single [0,1] score
func TitleSimilarity(tokensA, tokensB []string) float64 {
	joinedA := strings.Join(tokensA, " ")
	joinedB := strings.Join(tokensB, " ")

	cosine := TrigramCosine(Trigrams(tokensA), Trigrams(tokensB))
	tokenJaccard := Jaccard(tokensA, tokensB)
	editRatio := LevenshteinRatio(joinedA, joinedB)

	return 0.45*cosine + 0.45*tokenJaccard + 0.10*editRatio
}
