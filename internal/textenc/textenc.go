// Package textenc repairs free text that the registry service delivered
// through a Latin-1/UTF-8 encoding mix-up.
package textenc

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Repair recovers the intended characters of a string that was read under
// the wrong encoding somewhere upstream. It is a best-effort heuristic
// and never fails: input that cannot be repaired comes back unchanged.
//
// Two corruptions occur in practice. UTF-8 text decoded as Latin-1 shows
// up as mojibake ("circulaciÃ³n"); re-encoding each rune as its Latin-1
// byte recovers the original UTF-8 sequence. The reverse case is raw
// Latin-1 bytes smuggled into a string, which is detectable because the
// string is not valid UTF-8. Text that is neither (plain ASCII, or
// already-correct UTF-8) falls through the Latin-1 round trip unchanged.
func Repair(s string) string {
	if utf8.ValidString(s) {
		fixed, err := charmap.ISO8859_1.NewEncoder().String(s)
		if err == nil && utf8.ValidString(fixed) {
			return fixed
		}
		return s
	}

	fixed, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return fixed
}
