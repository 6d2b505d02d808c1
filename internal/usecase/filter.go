package usecase

import (
	"regexp"
	"strings"
)

// Title filtering is a pure function: identical input always yields the same
// decision. Deny markers knock out senior roles; an unambiguous junior/new-grad
// marker overrides, so "Senior Project, Junior Engineer Hire" still passes.

var denyMarkers = []string{
	"senior", "staff", "lead", "principal", "manager", "director", "architect", "sr",
}

var allowMarkers = []string{
	"junior", "jr", "entry level", "entry-level", "new grad", "new-grad",
	"graduate", "intern", "associate", "early career",
}

var markerPatterns = struct {
	deny  map[string]*regexp.Regexp
	allow map[string]*regexp.Regexp
}{
	deny:  compileMarkers(denyMarkers),
	allow: compileMarkers(allowMarkers),
}

func compileMarkers(markers []string) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(markers))
	for _, m := range markers {
		// word-boundary match; multi-word markers match across whitespace
		p := regexp.QuoteMeta(m)
		p = strings.ReplaceAll(p, `\ `, `\s+`)
		out[m] = regexp.MustCompile(`(?i)\b` + p + `\b`)
	}
	return out
}

// AllowTitle decides whether a posting title passes the seniority filter.
// The second return names the marker that decided.
func AllowTitle(title string) (bool, string) {
	for m, re := range markerPatterns.allow {
		if re.MatchString(title) {
			return true, m
		}
	}
	for m, re := range markerPatterns.deny {
		if re.MatchString(title) {
			return false, m
		}
	}
	return true, ""
}
