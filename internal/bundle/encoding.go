package bundle

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// FixEncoding repairs text whose UTF-8 bytes were decoded as Latin-1 by the
// exporter ("MÃ©xico" becomes "México"). Each rune is mapped back to its
// Latin-1 byte and the bytes are re-read as UTF-8. When any rune falls outside
// Latin-1, or the bytes are not valid UTF-8, s is returned unchanged.
func FixEncoding(s string) string {
	if s == "" || isASCII(s) {
		return s
	}

	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	if !utf8.ValidString(raw) {
		return s
	}
	return raw
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
