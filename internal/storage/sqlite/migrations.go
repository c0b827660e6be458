package sqlite

// Schema defines the SQLite database schema
const Schema = `
-- Irrigation fields table
CREATE TABLE IF NOT EXISTS fields (
	field_name TEXT PRIMARY KEY,
	crop_factor REAL NOT NULL,
	fertilizer_week INTEGER NOT NULL
);

-- Daily reference evapotranspiration readings (one row per date)
CREATE TABLE IF NOT EXISTS weather_data (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL UNIQUE,
	et0 REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_weather_data_date ON weather_data(date);

-- Derived ETc values. Uniqueness of (field_name, date) is maintained by the
-- replace operation; there is deliberately no FK to fields so deleting a
-- field leaves its history behind.
CREATE TABLE IF NOT EXISTS etc_calculations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	field_name TEXT NOT NULL,
	date TEXT NOT NULL,
	etc_value REAL NOT NULL,
	calculated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_etc_calculations_field_date ON etc_calculations(field_name, date);
CREATE INDEX IF NOT EXISTS idx_etc_calculations_calculated_at ON etc_calculations(calculated_at);
`
