package recovery

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	escapeReplacer = strings.NewReplacer(
		`\n`, "\n",
		`\r`, "\r",
		`\t`, "\t",
		`\"`, `"`,
		`\'`, "'",
	)
	latin1Escape   = regexp.MustCompile(`\\u00([0-9A-Fa-f]{2})`)
	leadingQuotes  = regexp.MustCompile("^\\s*[\"'`]+\\s*")
	trailingQuotes = regexp.MustCompile("\\s*[\"'`]+\\s*$")
)

// unescape decodes escape sequences that models leave in their output when
// they double-encode JSON.
func unescape(s string) string {
	if s == "" {
		return s
	}
	s = escapeReplacer.Replace(s)
	return latin1Escape.ReplaceAllStringFunc(s, func(m string) string {
		code, err := strconv.ParseUint(m[4:], 16, 8)
		if err != nil {
			return m
		}
		return string(rune(code))
	})
}

func stripOuterQuotes(s string) string {
	s = leadingQuotes.ReplaceAllString(s, "")
	return trailingQuotes.ReplaceAllString(s, "")
}

func stripEnclosingDoubleQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
