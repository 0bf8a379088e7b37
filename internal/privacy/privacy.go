// Package privacy strips credentials and positions from text before it is
// logged or sent to external services.
package privacy

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// any scheme://... token; shoutrrr service URLs carry tokens in userinfo and path
	urlPattern = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9+.-]*://\S+`)

	// lat=55.7558 or "lon": 37.6173
	coordinatePattern = regexp.MustCompile(`(?i)("?(?:lat|lon|latitude|longitude)"?\s*[:=]\s*)-?\d+(?:\.\d+)?`)
)

// ScrubMessage replaces URLs with their redacted form and masks coordinates.
func ScrubMessage(message string) string {
	message = urlPattern.ReplaceAllStringFunc(message, RedactURL)
	return coordinatePattern.ReplaceAllString(message, "${1}[redacted]")
}

// RedactURL keeps the scheme and host of rawURL and drops credentials, path and query.
// Unparseable input is replaced entirely.
func RedactURL(rawURL string) string {
	trailing := ""
	if i := strings.IndexAny(rawURL, `"')`); i >= 0 {
		rawURL, trailing = rawURL[:i], rawURL[i:]
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "[redacted-url]" + trailing
	}

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != nil {
		b.WriteString("[redacted]@")
	}
	b.WriteString(u.Host)
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" {
		b.WriteString("/[redacted]")
	}
	b.WriteString(trailing)
	return b.String()
}
