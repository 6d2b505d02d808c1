// Package fill holds the platform fillers: each knows one ATS vendor's form
// layout and drives a browser session through it, pulling values from the
// applicant profile and free-text answers from the answer engine.
package fill

import (
	"regexp"
	"strings"
)

// labelPatterns maps form-label text to canonical profile field keys. Order
// matters: the first match wins, and more specific patterns sit above the
// generic ones.
var labelPatterns = []struct {
	re  *regexp.Regexp
	key string
}{
	{regexp.MustCompile(`(?i)first\s*name|given\s*name`), "first_name"},
	{regexp.MustCompile(`(?i)last\s*name|family\s*name|surname`), "last_name"},
	{regexp.MustCompile(`(?i)full\s*name|your\s*name|legal\s*name`), "full_name"},
	{regexp.MustCompile(`(?i)e-?mail`), "email"},
	{regexp.MustCompile(`(?i)phone|mobile|cell`), "phone"},
	{regexp.MustCompile(`(?i)street|address\s*line`), "street"},
	{regexp.MustCompile(`(?i)\bcity\b`), "city"},
	{regexp.MustCompile(`(?i)\bstate\b|province|region`), "state"},
	{regexp.MustCompile(`(?i)zip|postal`), "zip"},
	{regexp.MustCompile(`(?i)country`), "country"},
	{regexp.MustCompile(`(?i)current\s*location|location`), "location"},
	{regexp.MustCompile(`(?i)linked\s*in`), "linkedin"},
	{regexp.MustCompile(`(?i)git\s*hub`), "github"},
	{regexp.MustCompile(`(?i)portfolio|personal\s*(web)?site|website`), "website"},
	{regexp.MustCompile(`(?i)authori[sz]ed\s+to\s+work|legally\s+(able|eligible)\s+to\s+work|work\s+authori[sz]ation`), "authorized_us"},
	{regexp.MustCompile(`(?i)sponsor(ship)?|require.*visa|visa.*require`), "requires_sponsorship"},
	{regexp.MustCompile(`(?i)\bgender\b`), "gender"},
	{regexp.MustCompile(`(?i)ethnicity|race`), "ethnicity"},
	{regexp.MustCompile(`(?i)veteran`), "veteran_status"},
	{regexp.MustCompile(`(?i)disability`), "disability_status"},
}

// uploadPattern marks fields that take a document rather than text.
var uploadPattern = regexp.MustCompile(`(?i)resume|cv\b|cover\s*letter|attach`)

// coverLetterPattern narrows an upload to the cover-letter document kind.
var coverLetterPattern = regexp.MustCompile(`(?i)cover\s*letter`)

// questionPattern spots free-text questions that need a composed answer
// rather than a profile value.
var questionPattern = regexp.MustCompile(`(?i)why|describe|tell\s+us|explain|what\s+(interests|excites|motivates)|how\s+did\s+you\s+hear`)

// captchaPattern marks challenge widgets. Never solved, always escalated.
var captchaPattern = regexp.MustCompile(`(?i)captcha|recaptcha|hcaptcha|are\s+you\s+a\s+robot`)

// CanonicalKey maps a label to the profile field key it asks for, or "" when
// no pattern matches.
func CanonicalKey(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	for _, p := range labelPatterns {
		if p.re.MatchString(label) {
			return p.key
		}
	}
	return ""
}

// IsUpload reports whether the label asks for a document, and which kind.
func IsUpload(label string) (kind string, ok bool) {
	if !uploadPattern.MatchString(label) {
		return "", false
	}
	if coverLetterPattern.MatchString(label) {
		return "cover_letter", true
	}
	return "resume", true
}

// IsFreeTextQuestion reports whether the label is an open question for the
// answer engine.
func IsFreeTextQuestion(label string) bool {
	return questionPattern.MatchString(label)
}

// HasChallenge reports whether the page markup carries a CAPTCHA widget.
func HasChallenge(html string) bool {
	return captchaPattern.MatchString(html)
}

// matchOption picks the select option matching the wanted value, tolerating
// Yes/No against longer option texts.
func matchOption(options []string, want string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(want)) {
			return o, true
		}
	}
	lowerWant := strings.ToLower(want)
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), lowerWant) {
			return o, true
		}
	}
	return "", false
}
