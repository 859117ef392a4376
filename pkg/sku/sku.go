// Package sku genera códigos de producto legibles a partir del nombre.
package sku

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	prefixLen = 4
	suffixLen = 5
	alphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Normalize quita acentos, deja solo letras/dígitos y pasa a mayúsculas.
// "Mesa de Cedro Maciço" -> "MESADECEDROMACICO".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	var b strings.Builder
	for _, r := range out {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Generate arma un SKU "PREF-XXXXX": prefijo desde el nombre y sufijo aleatorio.
func Generate(name string) string {
	prefix := Normalize(name)
	if len(prefix) > prefixLen {
		prefix = prefix[:prefixLen]
	}
	if prefix == "" {
		prefix = "PROD"
	}
	return prefix + "-" + randomSuffix(suffixLen)
}

func randomSuffix(n int) string {
	var b strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			b.WriteByte(alphabet[i%len(alphabet)])
			continue
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}
