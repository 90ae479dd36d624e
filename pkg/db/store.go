package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// ErrNotFound is returned when a literal is not catalogued.
var ErrNotFound = errors.New("kanji not found")

// UpsertKanji inserts the kanji row or updates it in place, returning its id.
func UpsertKanji(db DBExecutor, k Kanji) (int64, error) {
	literal := strings.TrimSpace(k.Literal)
	if literal == "" {
		return 0, fmt.Errorf("literal must be non-empty")
	}

	var id int64
	query := `INSERT INTO kanji (literal, image_path, text, ipa_reading)
			  VALUES (?, ?, ?, ?)
			  ON CONFLICT(literal)
			  DO UPDATE SET
			    image_path = excluded.image_path,
			    text = excluded.text,
			    ipa_reading = excluded.ipa_reading
			  RETURNING id`

	err := db.QueryRow(query, literal, nullableString(k.ImagePath), k.Text, nullableString(k.IPAReading)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert kanji %q: %w", literal, err)
	}
	return id, nil
}

// ReplaceMeanings replaces the ordered meanings of a kanji.
func ReplaceMeanings(db DBExecutor, kanjiID int64, meanings []string) error {
	if kanjiID <= 0 {
		return fmt.Errorf("kanjiID must be positive")
	}
	if _, err := db.Exec(`DELETE FROM meanings WHERE kanji_id = ?`, kanjiID); err != nil {
		return err
	}
	for i, m := range meanings {
		if _, err := db.Exec(`INSERT INTO meanings (kanji_id, position, text) VALUES (?, ?, ?)`, kanjiID, i, m); err != nil {
			return fmt.Errorf("insert meaning %d: %w", i, err)
		}
	}
	return nil
}

// ReplaceReadings replaces the ordered readings of one kind for a kanji.
func ReplaceReadings(db DBExecutor, kanjiID int64, kind string, readings []string) error {
	if kanjiID <= 0 {
		return fmt.Errorf("kanjiID must be positive")
	}
	if kind != ReadingOn && kind != ReadingKun {
		return fmt.Errorf("unknown reading kind %q", kind)
	}
	if _, err := db.Exec(`DELETE FROM readings WHERE kanji_id = ? AND kind = ?`, kanjiID, kind); err != nil {
		return err
	}
	for i, r := range readings {
		if _, err := db.Exec(`INSERT INTO readings (kanji_id, kind, position, text) VALUES (?, ?, ?, ?)`, kanjiID, kind, i, r); err != nil {
			return fmt.Errorf("insert %s reading %d: %w", kind, i, err)
		}
	}
	return nil
}

// SaveKanji upserts k and replaces all of its child rows.
func SaveKanji(db DBExecutor, k Kanji) (int64, error) {
	id, err := UpsertKanji(db, k)
	if err != nil {
		return 0, err
	}
	if err := ReplaceMeanings(db, id, k.Meanings); err != nil {
		return 0, err
	}
	if err := ReplaceReadings(db, id, ReadingOn, k.OnReadings); err != nil {
		return 0, err
	}
	if err := ReplaceReadings(db, id, ReadingKun, k.KunReadings); err != nil {
		return 0, err
	}
	return id, nil
}

// GetKanji loads a catalogued kanji with its meanings and readings.
func GetKanji(db DBExecutor, literal string) (Kanji, error) {
	var k Kanji
	var img, text, ipa sql.NullString
	err := db.QueryRow(`SELECT id, literal, image_path, text, ipa_reading, added_at FROM kanji WHERE literal = ?`, literal).
		Scan(&k.ID, &k.Literal, &img, &text, &ipa, &k.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Kanji{}, fmt.Errorf("%w: %q", ErrNotFound, literal)
	}
	if err != nil {
		return Kanji{}, err
	}
	k.ImagePath = img.String
	k.Text = text.String
	k.IPAReading = ipa.String

	if k.Meanings, err = queryStrings(db, `SELECT text FROM meanings WHERE kanji_id = ? ORDER BY position`, k.ID); err != nil {
		return Kanji{}, err
	}
	if k.OnReadings, err = queryStrings(db, `SELECT text FROM readings WHERE kanji_id = ? AND kind = ? ORDER BY position`, k.ID, ReadingOn); err != nil {
		return Kanji{}, err
	}
	if k.KunReadings, err = queryStrings(db, `SELECT text FROM readings WHERE kanji_id = ? AND kind = ? ORDER BY position`, k.ID, ReadingKun); err != nil {
		return Kanji{}, err
	}
	return k, nil
}

// FindByReading returns the literals having the given on or kun reading.
func FindByReading(db DBExecutor, reading string) ([]string, error) {
	return queryStrings(db, `SELECT DISTINCT k.literal FROM kanji k JOIN readings r ON r.kanji_id = k.id WHERE r.text = ? ORDER BY k.id`, reading)
}

// CountKanji returns the number of catalogued kanji.
func CountKanji(db DBExecutor) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM kanji`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func queryStrings(db DBExecutor, query string, args ...interface{}) ([]string, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullableString returns nil for "" else the value.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
