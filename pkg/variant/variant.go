// Package variant expands patterns such as "hotda(w)g" into the literal
// strings they denote ("hotdawg", "hotdag").
//
// A pattern is split left to right into fixed and optional segments. Each
// optional group is independently included or excluded, so a pattern with k
// groups always yields 2^k variants. Duplicates are kept.
//
// Malformed input is never rejected:
//   - a "(" with no later ")" is literal text;
//   - a "(" inside an open group belongs to the group ("(a(b)c)" gives the
//     group "a(b" followed by the fixed text "c)");
//   - a ")" outside any group is literal text;
//   - "()" is an empty optional group: "a()b" gives "ab" twice, and in
//     "x()y)" the group is empty and "y)" is fixed text. A group is never
//     stretched to the next ")" to find content.
//
// The number of groups is capped at MaxGroups. Expand panics above the cap;
// TryExpand reports ErrTooManyGroups and suits untrusted input.
package variant

import (
	"errors"
	"fmt"
	"strings"
)

// MaxGroups is the largest number of optional groups expanded, for at most
// 2^MaxGroups variants.
const MaxGroups = 16

// ErrTooManyGroups is returned by TryExpand for patterns above MaxGroups.
var ErrTooManyGroups = errors.New("too many optional groups")

// Segment is a contiguous span of a pattern.
type Segment struct {
	Text     string
	Optional bool
}

// Alternatives returns the strings this segment may contribute, include first.
func (s Segment) Alternatives() []string {
	if s.Optional {
		return []string{s.Text, ""}
	}
	return []string{s.Text}
}

// Split scans pattern into segments. Fixed segments are emitted between
// groups even when empty, so the result always starts and ends with a fixed
// segment.
func Split(pattern string) []Segment {
	var segs []Segment
	rest := pattern
	for {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open+1:], ')')
		if closing < 0 {
			break
		}
		closing += open + 1
		segs = append(segs,
			Segment{Text: rest[:open]},
			Segment{Text: rest[open+1 : closing], Optional: true},
		)
		rest = rest[closing+1:]
	}
	return append(segs, Segment{Text: rest})
}

// Count returns the number of optional groups in pattern.
func Count(pattern string) int {
	n := 0
	for _, s := range Split(pattern) {
		if s.Optional {
			n++
		}
	}
	return n
}

// Expand returns every variant of pattern. The first group is the most
// significant digit of the enumeration and each group is included before it
// is excluded, so the last group toggles between adjacent results.
// It panics when pattern has more than MaxGroups groups.
func Expand(pattern string) []string {
	out, err := TryExpand(pattern)
	if err != nil {
		panic(err)
	}
	return out
}

// TryExpand is Expand for untrusted patterns.
func TryExpand(pattern string) ([]string, error) {
	segs := Split(pattern)
	k := 0
	for _, s := range segs {
		if s.Optional {
			k++
		}
	}
	if k > MaxGroups {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyGroups, k, MaxGroups)
	}

	out := make([]string, 1, 1<<k)
	for _, s := range segs {
		alts := s.Alternatives()
		if len(alts) == 1 {
			for i := range out {
				out[i] += alts[0]
			}
			continue
		}
		next := make([]string, 0, 2*len(out))
		for _, prefix := range out {
			for _, a := range alts {
				next = append(next, prefix+a)
			}
		}
		out = next
	}
	return out, nil
}
