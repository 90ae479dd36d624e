package db

import "time"

// Reading kinds stored in the readings table.
const (
	ReadingOn  = "on"
	ReadingKun = "kun"
)

// Kanji is one catalogued character with its meanings and readings.
type Kanji struct {
	ID          int64
	Literal     string
	ImagePath   string
	Text        string
	IPAReading  string
	Meanings    []string
	OnReadings  []string
	KunReadings []string
	AddedAt     time.Time
}
