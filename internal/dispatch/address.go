package dispatch

import (
	"strings"

	"github.com/samber/lo"
)

// ParseRecipients splits a comma separated recipient list and trims each entry.
// An empty list yields a single empty recipient, which then fails at send time.
func ParseRecipients(raw string) []string {
	return lo.Map(strings.Split(raw, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
}

// NormalizeAddress turns a phone number as typed by a user into a transport
// address. Input that already carries a domain ("user@server") is kept as is;
// everything else is reduced to its digits and given the default domain.
func NormalizeAddress(raw, domain string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.Contains(trimmed, "@") {
		return trimmed
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, trimmed)
	return digits + "@" + domain
}
