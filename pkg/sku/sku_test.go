package sku

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "MESADECEDROMACICO", Normalize("Mesa de Cedro Maciço"))
	assert.Equal(t, "CADEIRA2", Normalize("cadeira #2"))
	assert.Equal(t, "", Normalize("  --  "))
}

func TestGenerate_Formato(t *testing.T) {
	s := Generate("Sofá retrátil")
	assert.True(t, strings.HasPrefix(s, "SOFA-"), s)
	assert.Len(t, s, prefixLen+1+suffixLen)

	assert.True(t, strings.HasPrefix(Generate("???"), "PROD-"))
}

func TestGenerate_SufijosDistintos(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		seen[Generate("Mesa")] = true
	}
	assert.Greater(t, len(seen), 1)
}
