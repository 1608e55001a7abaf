// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean normalizes strings used to join municipal datasets.
// Portal exports disagree on accents, casing, and punctuation for the
// same administrative names; everything here reduces them to a canonical
// form before joining.
package clean

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Strip removes diacritics from s by decomposing characters and dropping
// combining marks, turning "São Miguel" into "Sao Miguel". Characters that
// cannot be decomposed pass through unchanged. The chain is built per call:
// transform.Chain carries internal buffers and is not safe to share across
// goroutines.
func Strip(s string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return out
}

// subprefeituraReplacer applies the municipal naming quirks after accent
// stripping and uppercasing. "MOOCA/ARICANDUVA" and "MOOCA-ARICANDUVA"
// name the same subprefeitura; "SAO MIGUEL PAULISTA" appears as plain
// "SAO MIGUEL" in the IBGE layers, and "PIRITUBA-JARAGUA" as "PIRITUBA".
var subprefeituraReplacer = strings.NewReplacer(
	"'", " ",
	"/", "-",
	" PAULISTA", "",
	"-JARAGUA", "",
)

// Subprefeitura returns the canonical form of a subprefeitura name:
// accent-stripped, uppercased, with the known naming quirks removed.
func Subprefeitura(s string) string {
	return subprefeituraReplacer.Replace(strings.ToUpper(Strip(s)))
}

// Slug returns a filesystem-safe identifier for a resource name:
// accent-stripped, lowercased, with every run of non-alphanumeric
// characters collapsed to a single hyphen.
func Slug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(Strip(s)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
