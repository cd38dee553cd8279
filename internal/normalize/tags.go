package normalize

import (
	"regexp"
	"sort"
	"strings"
)

var genderWords = regexp.MustCompile(`(?i)\b(?:women|men)(?:['’]s|s)?\b`)

// hintTags are the fixed tag sets seeded by a gender hint.
var hintTags = map[string][]string{
	"women": {"all clothing women", "womens", "women clothing", "women"},
	"men":   {"all clothing men", "mens", "men clothing", "men"},
}

var hintAliases = map[string]string{
	"women":  "women",
	"womens": "women",
	"woman":  "women",
	"ladies": "women",
	"female": "women",
	"men":    "men",
	"mens":   "men",
	"man":    "men",
	"male":   "men",
}

// NormalizeGenderHint folds the common spellings of a gender hint onto
// "women" or "men". Unknown hints are returned lowercased.
func NormalizeGenderHint(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	h = strings.ReplaceAll(strings.ReplaceAll(h, "'", ""), "’", "")
	if canon, ok := hintAliases[h]; ok {
		return canon
	}
	return h
}

// HintTags returns the tags a gender hint contributes.
func HintTags(hint string) []string {
	h := NormalizeGenderHint(hint)
	if h == "" {
		return nil
	}
	if tags, ok := hintTags[h]; ok {
		return append([]string(nil), tags...)
	}
	return []string{h}
}

// StripGenderWords removes "men's", "womens" and similar whole words from a
// product type, since gender is tracked in tags.
func StripGenderWords(s string) string {
	s = genderWords.ReplaceAllString(s, " ")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.Trim(s, " -/|,")
}

// DedupeTags drops blank tags and case-insensitive duplicates, keeping the
// casing of the first occurrence and the original order.
func DedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = cleanText(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// sortedTags dedupes and sorts tags lexicographically for reproducible output.
func sortedTags(tags []string) []string {
	out := DedupeTags(tags)
	sort.Strings(out)
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
