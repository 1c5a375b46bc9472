// Package identifier canonicalizes user-supplied references to public
// Telegram entities (channels, bots, usernames).
package identifier

import (
	"regexp"
	"strings"
)

// Telegram usernames are 4-32 characters of [A-Za-z0-9_]. The lower bound is
// what t.me actually serves pages for, not what the apps let you register.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]{4,32}$`)

var linkPrefixes = []string{
	"https://t.me/",
	"http://t.me/",
	"https://telegram.me/",
	"http://telegram.me/",
	"t.me/",
	"telegram.me/",
}

// Normalize canonicalizes raw into the "@name" form. It accepts a full t.me
// link, a sigil-prefixed "@name", or a bare name; everything else is
// rejected. The three accepted shapes of the same name normalize to the same
// canonical reference.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	lower := strings.ToLower(s)
	for _, prefix := range linkPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			// Strip a joinchat-style query or trailing slash.
			if i := strings.IndexAny(s, "/?#"); i >= 0 {
				s = s[:i]
			}
			break
		}
	}

	s = strings.TrimPrefix(s, "@")
	if !namePattern.MatchString(s) {
		return "", false
	}
	// Usernames are case-insensitive; fold so "@Foo" and "@foo" reference the
	// same entity (and the same watch row).
	return "@" + strings.ToLower(s), true
}

// Username strips the sigil from a canonical reference.
func Username(canonical string) string {
	return strings.TrimPrefix(canonical, "@")
}
