// Package readings looks up how a character is read when it stands alone
// as a word, using kagome's IPA morphological dictionary.
package readings

import (
	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// IPA feature index of the katakana reading.
const featureReading = 7

// Annotator resolves standalone readings.
type Annotator struct {
	t *tokenizer.Tokenizer
}

// NewAnnotator creates a tokenizer over the IPA dictionary.
func NewAnnotator() (*Annotator, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Annotator{t: t}, nil
}

// Reading returns the hiragana reading of literal when the dictionary
// tokenizes it as a single known word, and "" otherwise.
func (a *Annotator) Reading(literal string) string {
	tokens := a.t.Tokenize(literal)
	if len(tokens) != 1 {
		return ""
	}
	tok := tokens[0]
	if tok.Class != tokenizer.KNOWN || tok.Surface != literal {
		return ""
	}
	features := tok.Features()
	if len(features) <= featureReading || features[featureReading] == "*" {
		return ""
	}
	return ToHiragana(features[featureReading])
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
