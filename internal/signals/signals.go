// Package signals scans document text for sales and lead-generation
// signals: email addresses, phone numbers, and call-to-action phrases.
package signals

import (
	"regexp"
	"strings"
)

// Record holds the signals extracted from one document.
type Record struct {
	URL    string   `json:"url"`
	Emails []string `json:"emails"`
	Phones []string `json:"phones"`
	CTAs   []string `json:"ctas"`
}

// Empty reports whether no signal of any kind was found.
func (r Record) Empty() bool {
	return len(r.Emails) == 0 && len(r.Phones) == 0 && len(r.CTAs) == 0
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\-\s]{7,}\d`)
)

// ctaPhrases are matched as lowercase substrings and reported in this
// order, independent of where they appear in the text.
var ctaPhrases = []string{
	"contact us",
	"get a quote",
	"buy now",
	"sign up",
	"subscribe",
	"free trial",
	"request demo",
	"book a call",
}

// Emails returns the email addresses found in text, deduplicated in
// first-seen order.
func Emails(text string) []string {
	return dedupe(emailPattern.FindAllString(text, -1))
}

// Phones returns phone-shaped digit runs found in text, deduplicated in
// first-seen order. The pattern is deliberately loose: an optional plus,
// then at least nine digits allowing dashes and spaces between them.
func Phones(text string) []string {
	return dedupe(phonePattern.FindAllString(text, -1))
}

// CTAs returns the call-to-action phrases present in text. Matching is
// case-insensitive.
func CTAs(text string) []string {
	lowered := strings.ToLower(text)
	var found []string
	for _, phrase := range ctaPhrases {
		if strings.Contains(lowered, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}

// Extract gathers all signals for one document.
func Extract(url, text string) Record {
	return Record{
		URL:    url,
		Emails: Emails(text),
		Phones: Phones(text),
		CTAs:   CTAs(text),
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
