// Package kanjidic parses KANJIDIC2 into a literal-keyed dictionary of
// meanings and readings, and reads the JSON form back.
package kanjidic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Record is the dictionary data of one character.
type Record struct {
	Meanings    []string `json:"meanings"`
	OnReadings  []string `json:"on_readings"`
	KunReadings []string `json:"kun_readings"`
}

// Dictionary maps literals to records and remembers the order in which
// literals were first added. Its JSON form is an object in that order.
type Dictionary struct {
	order   []string
	records map[string]Record
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{records: make(map[string]Record)}
}

// Set stores rec under literal. Replacing an existing literal keeps its
// original position.
func (d *Dictionary) Set(literal string, rec Record) {
	if d.records == nil {
		d.records = make(map[string]Record)
	}
	if _, exists := d.records[literal]; !exists {
		d.order = append(d.order, literal)
	}
	d.records[literal] = rec.normalized()
}

// Get returns the record of literal.
func (d *Dictionary) Get(literal string) (Record, bool) {
	rec, ok := d.records[literal]
	return rec, ok
}

// Len returns the number of literals.
func (d *Dictionary) Len() int { return len(d.order) }

// Literals returns the literals in insertion order.
func (d *Dictionary) Literals() []string {
	return append([]string(nil), d.order...)
}

func (r Record) normalized() Record {
	if r.Meanings == nil {
		r.Meanings = []string{}
	}
	if r.OnReadings == nil {
		r.OnReadings = []string{}
	}
	if r.KunReadings == nil {
		r.KunReadings = []string{}
	}
	return r
}

// MarshalJSON writes the dictionary as an object in insertion order.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, literal := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(literal)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.records[literal])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of records, keeping key order.
func (d *Dictionary) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("dictionary: expected JSON object, got %v", tok)
	}

	*d = Dictionary{records: make(map[string]Record)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		literal, ok := tok.(string)
		if !ok {
			return fmt.Errorf("dictionary: expected key, got %v", tok)
		}
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return fmt.Errorf("dictionary: record %q: %w", literal, err)
		}
		d.Set(literal, rec)
	}
	_, err = dec.Token()
	return err
}

// Load reads a dictionary JSON document.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := NewDictionary()
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary %s: %w", path, err)
	}
	return d, nil
}

// Save writes d as indented JSON, creating the parent directory.
func (d *Dictionary) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
