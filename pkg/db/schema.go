package db

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS kanji (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	literal TEXT NOT NULL UNIQUE,
	image_path TEXT,
	text TEXT,
	ipa_reading TEXT,
	added_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS meanings (
	kanji_id INTEGER NOT NULL REFERENCES kanji(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	text TEXT NOT NULL,
	PRIMARY KEY (kanji_id, position)
);

CREATE TABLE IF NOT EXISTS readings (
	kanji_id INTEGER NOT NULL REFERENCES kanji(id) ON DELETE CASCADE,
	kind TEXT NOT NULL CHECK (kind IN ('on', 'kun')),
	position INTEGER NOT NULL,
	text TEXT NOT NULL,
	PRIMARY KEY (kanji_id, kind, position)
);

CREATE INDEX IF NOT EXISTS idx_readings_text ON readings(text);
`
