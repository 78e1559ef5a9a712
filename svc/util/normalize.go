package util

import (
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeURL canonicalizes a user-supplied slug into its storage key:
// punycode ASCII-compatible encoding, lowercased, with the single trailing
// delimiter introduced by the encoding stripped. Idempotent, so it is safe
// to apply on every read, write, and comparison path.
func NormalizeURL(raw string) string {
	ascii, err := idna.Punycode.ToASCII(raw)
	if err != nil {
		ascii = raw
	}
	ascii = strings.ToLower(ascii)
	if strings.HasSuffix(ascii, "-") && !strings.HasSuffix(strings.ToLower(raw), "-") {
		ascii = strings.TrimSuffix(ascii, "-")
	}
	return ascii
}
