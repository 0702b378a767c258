// Package shortid implements the base32 encoding used for human-facing issue
// identifiers and the parser for qualified short IDs like "PROJECT-1C".
// The alphabet and digit semantics must stay byte-for-byte stable: encoded
// values are persisted and live in shared URLs.
package shortid

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// alphabet omits I, L, O and U to avoid ambiguous glyphs. Decoding maps
// O back to 0 and I/L back to 1 so hand-copied IDs still resolve.
const alphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// ErrInvalidEncoding is returned by Decode for input containing characters
// outside the alphabet.
var ErrInvalidEncoding = errors.New("invalid base32 encoding")

var shortIDRe = regexp.MustCompile(`^(.*?)(?:[\s_-])([A-Za-z0-9]+)$`)

// ShortID is the parsed form of a qualified short ID: the owning project's
// slug plus the per-project sequential ID.
type ShortID struct {
	ProjectSlug string
	ShortID     int64
}

// Encode returns the base32 representation of n.
func Encode(n uint64) string {
	if n == 0 {
		return alphabet[:1]
	}
	var buf [13]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%32]
		n /= 32
	}
	return string(buf[i:])
}

// Decode parses a base32 string produced by Encode. Input is case-insensitive
// and tolerates the O/0 and I/L/1 aliases.
func Decode(s string) (uint64, error) {
	if s == "" {
		return 0, ErrInvalidEncoding
	}
	var n uint64
	for _, r := range strings.ToUpper(s) {
		switch r {
		case 'O':
			r = '0'
		case 'I', 'L':
			r = '1'
		}
		idx := strings.IndexRune(alphabet, r)
		if idx < 0 {
			return 0, fmt.Errorf("%w: unexpected character %q", ErrInvalidEncoding, r)
		}
		if n > (math.MaxUint64-uint64(idx))/32 {
			return 0, fmt.Errorf("%w: value does not fit in 64 bits", ErrInvalidEncoding)
		}
		n = n*32 + uint64(idx)
	}
	return n, nil
}

// Parse splits a qualified short ID into its project slug and numeric ID.
// The encoded portion is whatever follows the last whitespace, underscore or
// hyphen; everything before it (which may itself contain separators) is the
// slug, lowercased. Tokens that fail to decode, or decode to a value larger
// than the short_id column can hold, are not short IDs rather than errors.
func Parse(value string) (ShortID, bool) {
	m := shortIDRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return ShortID{}, false
	}
	n, err := Decode(m[2])
	if err != nil || n > math.MaxInt64 {
		return ShortID{}, false
	}
	return ShortID{ProjectSlug: strings.ToLower(m[1]), ShortID: int64(n)}, true
}

// LooksLikeShortID reports whether value matches the qualified short ID
// grammar. It does not attempt to decode the trailing token, so it is a cheap
// pre-filter before a full lookup.
func LooksLikeShortID(value string) bool {
	return shortIDRe.MatchString(strings.TrimSpace(value))
}

// Qualified renders the human-facing form of a short ID, e.g. "INTERNAL-1C".
func Qualified(projectSlug string, shortID int64) string {
	return strings.ToUpper(projectSlug) + "-" + Encode(uint64(shortID))
}
