package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/altinukshini/fzsearch/internal/model"
)

// lineRe matches grep output in the form file:line:content. The file part
// cannot contain a colon; content may.
var lineRe = regexp.MustCompile(`^([^:]+):(\d+):(.*)$`)

// StripANSI removes terminal escape sequences. Engines may colorize output
// even when told not to.
func StripANSI(s string) string {
	return stripansi.Strip(s)
}

// ParseLine parses a raw result line using the strict file:digits:content
// layout. It reports false when the line does not conform.
func ParseLine(raw string) (model.SearchResult, bool) {
	m := lineRe.FindStringSubmatch(raw)
	if m == nil {
		return model.SearchResult{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return model.SearchResult{}, false
	}
	return model.SearchResult{
		File:    m[1],
		Line:    n,
		Content: strings.TrimSpace(m[3]),
	}, true
}

// ParseLineLoose splits on every colon: segment 0 is the file, segment 1 the
// line number and the rest is rejoined as content. Lines with fewer than
// three segments or no leading digits in the line segment are rejected.
func ParseLineLoose(raw string) (model.SearchResult, bool) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 || parts[0] == "" {
		return model.SearchResult{}, false
	}
	n, ok := leadingInt(parts[1])
	if !ok {
		return model.SearchResult{}, false
	}
	return model.SearchResult{
		File:    parts[0],
		Line:    n,
		Content: strings.TrimSpace(strings.Join(parts[2:], ":")),
	}, true
}

// Parse tries the strict layout first and falls back to the loose split.
func Parse(raw string) (model.SearchResult, bool) {
	if r, ok := ParseLine(raw); ok {
		return r, true
	}
	return ParseLineLoose(raw)
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
