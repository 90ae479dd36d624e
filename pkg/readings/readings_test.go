package readings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotatorReading(t *testing.T) {
	a, err := NewAnnotator()
	require.NoError(t, err)

	assert.Equal(t, "いぬ", a.Reading("犬"))
	assert.Equal(t, "ねこ", a.Reading("猫"))
	assert.Equal(t, "", a.Reading(""))
	assert.Equal(t, "", a.Reading("犬猫ペンギン"), "multi-token input has no single reading")
}

func TestToHiragana(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"ア", "あ"},
		{"カ", "か"},
		{"ガ", "が"},
		{"パ", "ぱ"},
		{"ン", "ん"},
		{"ー", "ー"},
		{"abc", "abc"},
		{"あいう", "あいう"},
		{"ケン", "けん"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, ToHiragana(tt.in), "ToHiragana(%q)", tt.in)
	}
}
