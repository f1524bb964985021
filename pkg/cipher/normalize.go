package cipher

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText canonicalises free text before encryption so equal names typed on different
// keyboards map to the same ciphertext: NFC composition and collapsed whitespace.
func NormalizeText(value string) string {
	return strings.Join(strings.Fields(norm.NFC.String(value)), " ")
}

// NormalizeNumber canonicalises registry and control numbers: NFKC, upper case, no spaces.
func NormalizeNumber(value string) string {
	folded := norm.NFKC.String(value)
	return strings.ToUpper(strings.Join(strings.Fields(folded), ""))
}
