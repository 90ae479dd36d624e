package kanjidic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryJSONKeepsOrder(t *testing.T) {
	d := NewDictionary()
	d.Set("猫", Record{Meanings: []string{"cat"}})
	d.Set("犬", Record{Meanings: []string{"dog"}, OnReadings: []string{"ケン"}})
	d.Set("亜", Record{})

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t,
		`{"猫":{"meanings":["cat"],"on_readings":[],"kun_readings":[]},`+
			`"犬":{"meanings":["dog"],"on_readings":["ケン"],"kun_readings":[]},`+
			`"亜":{"meanings":[],"on_readings":[],"kun_readings":[]}}`,
		string(data))

	back := NewDictionary()
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, []string{"猫", "犬", "亜"}, back.Literals())
	rec, ok := back.Get("犬")
	require.True(t, ok)
	assert.Equal(t, []string{"ケン"}, rec.OnReadings)
}

func TestDictionaryUnmarshalRejectsArray(t *testing.T) {
	d := NewDictionary()
	assert.Error(t, json.Unmarshal([]byte(`[]`), d))
}
