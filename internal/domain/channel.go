package domain

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidChannel is returned by NormalizeChannel for input that cannot be
// turned into a channel identifier.
var ErrInvalidChannel = errors.New("invalid channel name")

// maxChannelRunes bounds the stored identifier, '@' included.
const maxChannelRunes = 128

// linkHosts are recognised so that pasted links resolve to the same
// identifier as a bare username.
var linkHosts = []string{"t.me/", "telegram.me/"}

// NormalizeChannel converts user input ("news", "@News", "https://t.me/news",
// "t.me/s/news") into the canonical "@news" form used as both the
// subscription key and the cache key. Telegram usernames are case-insensitive,
// so the name is lower-cased. The function is idempotent.
func NormalizeChannel(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "@") {
		s = strings.TrimPrefix(s, "https://")
		s = strings.TrimPrefix(s, "http://")
		s = strings.TrimPrefix(s, "www.")
		for _, host := range linkHosts {
			if strings.HasPrefix(s, host) {
				// t.me/s/<name> is the web preview of the same channel
				s = strings.TrimPrefix(strings.TrimPrefix(s, host), "s/")
				break
			}
		}
		s = strings.TrimSuffix(s, "/")
	}
	s = strings.TrimLeft(s, "@")
	if s == "" || !utf8.ValidString(s) {
		return "", ErrInvalidChannel
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune("/?#@", r) {
			return "", ErrInvalidChannel
		}
	}
	out := "@" + cases.Lower(language.Und).String(s)
	if utf8.RuneCountInString(out) > maxChannelRunes {
		return "", ErrInvalidChannel
	}
	return out, nil
}
