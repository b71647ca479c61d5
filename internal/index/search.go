package index

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// MaxResults caps the number of entries a single Search call returns.
const MaxResults = 1000

// ErrNotReady is returned by Search when no completed scan is available.
var ErrNotReady = errors.New("index: not ready")

// Query is a parsed SEARCH_INDEX request.
type Query struct {
	Pattern string
	HasMin  bool
	MinSize uint64
	HasMax  bool
	MaxSize uint64
}

// ParseQuery tokenizes a SEARCH_INDEX query string on whitespace. Tokens
// of the form size:>N[KMG]B or size:<N[KMG]B (unit case-insensitive,
// missing unit meaning bytes) set the min/max size filter; every other
// token is a candidate name pattern, and the last one wins. An empty or
// all-size-filter query defaults the pattern to "*".
func ParseQuery(q string) Query {
	query := Query{Pattern: "*"}
	for _, tok := range strings.Fields(q) {
		if gt, lt, val, ok := parseSizeToken(tok); ok {
			if gt {
				query.HasMin = true
				query.MinSize = val
			}
			if lt {
				query.HasMax = true
				query.MaxSize = val
			}
			continue
		}
		query.Pattern = tok
	}
	return query
}

func parseSizeToken(tok string) (gt, lt bool, value uint64, ok bool) {
	const prefix = "size:"
	if len(tok) <= len(prefix) || !strings.EqualFold(tok[:len(prefix)], prefix) {
		return false, false, 0, false
	}
	rest := tok[len(prefix):]
	switch rest[0] {
	case '>':
		gt = true
	case '<':
		lt = true
	default:
		return false, false, 0, false
	}
	rest = rest[1:]

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return false, false, 0, false
	}
	n, err := strconv.ParseUint(rest[:i], 10, 64)
	if err != nil {
		return false, false, 0, false
	}

	unit := strings.ToUpper(rest[i:])
	unit = strings.TrimSuffix(unit, "B")
	var mult uint64
	switch unit {
	case "":
		mult = 1
	case "K":
		mult = 1024
	case "M":
		mult = 1024 * 1024
	case "G":
		mult = 1024 * 1024 * 1024
	default:
		return false, false, 0, false
	}
	return gt, lt, n * mult, true
}

// globToRegexp compiles a case-insensitive anchored regexp from a glob
// pattern where * matches any run of characters and ? matches exactly one.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

// Search matches entries against queryStr, returning up to MaxResults
// results. An entry matches when its size (if filters are present) is in
// range and either its leaf name or its full path matches the wildcard
// pattern. Returns ErrNotReady if no completed scan is available — the
// caller must not send any DATA frames in that case.
func (x *Index) Search(queryStr string) ([]Entry, error) {
	x.mu.RLock()
	ready := x.ready
	entries := x.entries
	x.mu.RUnlock()

	if !ready {
		return nil, ErrNotReady
	}

	q := ParseQuery(queryStr)
	re, err := globToRegexp(q.Pattern)
	if err != nil {
		return nil, err
	}

	var results []Entry
	for _, e := range entries {
		if q.HasMin && e.Size < q.MinSize {
			continue
		}
		if q.HasMax && e.Size > q.MaxSize {
			continue
		}
		if !re.MatchString(e.Name) && !re.MatchString(e.Path) {
			continue
		}
		results = append(results, e)
		if len(results) >= MaxResults {
			break
		}
	}
	return results, nil
}
