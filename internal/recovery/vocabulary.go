package recovery

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/signchain/signchain/internal/model"
)

// levelVocabulary maps lower-cased surface forms to canonical risk levels.
var levelVocabulary = map[string]model.RiskLevel{
	"high":     model.RiskHigh,
	"yüksek":   model.RiskHigh,
	"yuksek":   model.RiskHigh,
	"kritik":   model.RiskHigh,
	"critical": model.RiskHigh,
	"medium":   model.RiskMedium,
	"orta":     model.RiskMedium,
	"moderate": model.RiskMedium,
	"low":      model.RiskLow,
	"düşük":    model.RiskLow,
	"dusuk":    model.RiskLow,
}

var (
	summaryHeadings = newHeadingSet("ÖZET", "Summary")
	riskHeadings    = newHeadingSet("RİSK ANALİZİ", "RISK ANALIZI", "Risk Analysis", "RİSK", "RISK")
)

// NormalizeLevel folds a level token in any supported language or casing
// into one of the canonical levels. Unknown tokens become Medium.
func NormalizeLevel(token string) model.RiskLevel {
	key := strings.ToLower(strings.Trim(strings.TrimSpace(token), "*_`\"'[]()"))
	if level, ok := levelVocabulary[key]; ok {
		return level
	}
	return model.RiskMedium
}

// riskLinePattern matches "<Level> <sep> <description>" after an optional
// bullet marker and bold emphasis around the level token.
// The closing emphasis may sit on either side of the separator, as in
// "**High:** text" or "**High**: text".
var riskLinePattern = regexp.MustCompile(`(?i)^[\s\-*•]*\**(` + alternation(levelTokens()) + `)\**\s*[:\-–](?:\*+\s)?\s*(.+)$`)

func levelTokens() []string {
	tokens := make([]string, 0, len(levelVocabulary))
	for token := range levelVocabulary {
		tokens = append(tokens, token)
	}
	return tokens
}

// alternation joins terms into a regexp alternation, longest first so
// "yüksek" or "RİSK ANALİZİ" wins over any shorter prefix.
func alternation(terms []string) string {
	sorted := append([]string(nil), terms...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	for i, term := range sorted {
		sorted[i] = regexp.QuoteMeta(term)
	}
	return strings.Join(sorted, "|")
}

// headingSet recognizes section headings that start with one of its terms.
type headingSet struct {
	prefix *regexp.Regexp
}

func newHeadingSet(terms ...string) headingSet {
	return headingSet{prefix: regexp.MustCompile(`(?i)^(?:` + alternation(terms) + `)`)}
}

// match reports whether line opens a section. Markdown and emphasis markers
// are ignored. Text after a ":" or "-" separator is returned as the first
// line of the section; other trailing text such as "(3 madde)" is dropped.
// A line like "Özet olarak..." is prose, not a heading.
func (h headingSet) match(line string) (string, bool) {
	text := strings.TrimSpace(line)
	markdown := strings.HasPrefix(text, "#")
	text = strings.TrimSpace(strings.TrimLeft(text, "#"))
	text = strings.TrimLeft(text, "*_")

	loc := h.prefix.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	if isWordRune(firstRune(rest)) {
		return "", false
	}

	rest = strings.TrimSpace(strings.TrimLeft(rest, "*_"))
	first := firstRune(rest)
	switch {
	case rest == "":
		return "", true
	case strings.ContainsRune(":-–", first):
		return strings.Trim(rest[utf8.RuneLen(first):], "*_ \t"), true
	case markdown:
		return "", true
	}
	return "", !isWordRune(first)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
