package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agritrack/irriplan/internal/field"
	"github.com/agritrack/irriplan/internal/storage"
)

// Store implements storage.Store using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store with the given database path
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// UpsertField inserts or overwrites the field row keyed by name
func (s *Store) UpsertField(f field.Field) error {
	if f.Name == "" {
		return field.ValidationError{Field: "name", Message: "field name must be a non-empty string"}
	}
	if f.CropFactor < 0 {
		return field.ValidationError{Field: "cropFactor", Message: "crop factor must be a non-negative number"}
	}

	query := `
		INSERT INTO fields (field_name, crop_factor, fertilizer_week)
		VALUES (?, ?, ?)
		ON CONFLICT(field_name) DO UPDATE SET
			crop_factor = excluded.crop_factor,
			fertilizer_week = excluded.fertilizer_week
	`

	if _, err := s.db.Exec(query, f.Name, f.CropFactor, f.FertilizerWeek); err != nil {
		return &storage.StorageError{Op: "upsert field", Err: err}
	}

	return nil
}

// GetField retrieves a single field by name; nil when absent
func (s *Store) GetField(name string) (*field.Field, error) {
	var f field.Field
	err := s.db.QueryRow(
		"SELECT field_name, crop_factor, fertilizer_week FROM fields WHERE field_name = ?", name,
	).Scan(&f.Name, &f.CropFactor, &f.FertilizerWeek)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &storage.StorageError{Op: "get field", Err: err}
	}
	return &f, nil
}

// ListFields returns all fields ordered by name ascending
func (s *Store) ListFields() ([]field.Field, error) {
	rows, err := s.db.Query("SELECT field_name, crop_factor, fertilizer_week FROM fields ORDER BY field_name")
	if err != nil {
		return nil, &storage.StorageError{Op: "list fields", Err: err}
	}
	defer rows.Close()

	var fields []field.Field
	for rows.Next() {
		var f field.Field
		if err := rows.Scan(&f.Name, &f.CropFactor, &f.FertilizerWeek); err != nil {
			return nil, &storage.StorageError{Op: "scan field", Err: err}
		}
		fields = append(fields, f)
	}

	if err := rows.Err(); err != nil {
		return nil, &storage.StorageError{Op: "list fields", Err: err}
	}

	return fields, nil
}

// DeleteField removes the field row; no error if absent. Historical ETc rows
// referencing the field are left untouched.
func (s *Store) DeleteField(name string) error {
	if _, err := s.db.Exec("DELETE FROM fields WHERE field_name = ?", name); err != nil {
		return &storage.StorageError{Op: "delete field", Err: err}
	}
	return nil
}

// UpsertWeatherReading inserts or replaces the single reading for a date
func (s *Store) UpsertWeatherReading(r field.WeatherReading) error {
	if err := r.Validate(); err != nil {
		return err
	}

	if _, err := s.db.Exec("INSERT OR REPLACE INTO weather_data (date, et0) VALUES (?, ?)", r.Date, r.ET0); err != nil {
		return &storage.StorageError{Op: "upsert weather reading", Err: err}
	}

	return nil
}

// GetWeatherReadings returns the stored readings for the given dates, ordered
// by date. Dates with no stored reading are simply absent from the result.
func (s *Store) GetWeatherReadings(dates []string) ([]field.WeatherReading, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT date, et0 FROM weather_data WHERE date IN (%s) ORDER BY date",
		placeholders(len(dates)),
	)

	rows, err := s.db.Query(query, dateArgs(dates)...)
	if err != nil {
		return nil, &storage.StorageError{Op: "get weather readings", Err: err}
	}
	defer rows.Close()

	var readings []field.WeatherReading
	for rows.Next() {
		var r field.WeatherReading
		if err := rows.Scan(&r.Date, &r.ET0); err != nil {
			return nil, &storage.StorageError{Op: "scan weather reading", Err: err}
		}
		readings = append(readings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, &storage.StorageError{Op: "get weather readings", Err: err}
	}

	return readings, nil
}

// ReplaceEtcCalculations replaces the ETc row for every (field, date) pair in
// the batch. All deletions and insertions run in one transaction so a failure
// mid-batch leaves the previous rows fully intact.
func (s *Store) ReplaceEtcCalculations(batch []field.EtcCalculation) error {
	if len(batch) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return &storage.StorageError{Op: "begin replace etc", Err: err}
	}
	defer tx.Rollback()

	calculatedAt := time.Now().UTC().Format(time.RFC3339)

	for _, calc := range batch {
		if _, err := tx.Exec(
			"DELETE FROM etc_calculations WHERE field_name = ? AND date = ?",
			calc.FieldName, calc.Date,
		); err != nil {
			return &storage.StorageError{Op: "delete etc row", Err: err}
		}

		if _, err := tx.Exec(
			"INSERT INTO etc_calculations (field_name, date, etc_value, calculated_at) VALUES (?, ?, ?, ?)",
			calc.FieldName, calc.Date, calc.EtcValue, calculatedAt,
		); err != nil {
			return &storage.StorageError{Op: "insert etc row", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &storage.StorageError{Op: "commit replace etc", Err: err}
	}

	return nil
}

// GetEtcForDates returns all ETc rows whose date is in the given set
func (s *Store) GetEtcForDates(dates []string) ([]field.EtcCalculation, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT field_name, date, etc_value, calculated_at FROM etc_calculations WHERE date IN (%s) ORDER BY field_name, date",
		placeholders(len(dates)),
	)

	rows, err := s.db.Query(query, dateArgs(dates)...)
	if err != nil {
		return nil, &storage.StorageError{Op: "get etc for dates", Err: err}
	}
	defer rows.Close()

	return scanEtcRows(rows)
}

// EtcHistory retrieves ETc rows with optional filtering, newest first
func (s *Store) EtcHistory(filter storage.EtcFilter) ([]field.EtcCalculation, error) {
	query := `
		SELECT field_name, date, etc_value, calculated_at
		FROM etc_calculations
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.FieldName != "" {
		query += " AND field_name = ?"
		args = append(args, filter.FieldName)
	}

	if filter.Date != "" {
		query += " AND date = ?"
		args = append(args, filter.Date)
	}

	query += " ORDER BY calculated_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else {
		query += " LIMIT 100" // Default limit
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &storage.StorageError{Op: "query etc history", Err: err}
	}
	defer rows.Close()

	return scanEtcRows(rows)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// scanEtcRows reads etc_calculations rows into domain values
func scanEtcRows(rows *sql.Rows) ([]field.EtcCalculation, error) {
	var calcs []field.EtcCalculation
	for rows.Next() {
		var calc field.EtcCalculation
		var calculatedAt string

		if err := rows.Scan(&calc.FieldName, &calc.Date, &calc.EtcValue, &calculatedAt); err != nil {
			return nil, &storage.StorageError{Op: "scan etc row", Err: err}
		}

		ts, err := time.Parse(time.RFC3339, calculatedAt)
		if err != nil {
			return nil, &storage.StorageError{Op: "parse calculated_at", Err: err}
		}
		calc.CalculatedAt = ts

		calcs = append(calcs, calc)
	}

	if err := rows.Err(); err != nil {
		return nil, &storage.StorageError{Op: "iterate etc rows", Err: err}
	}

	return calcs, nil
}

// placeholders builds a "?, ?, ?" list for IN clauses
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// dateArgs widens a date slice for Query variadics
func dateArgs(dates []string) []interface{} {
	args := make([]interface{}, len(dates))
	for i, d := range dates {
		args[i] = d
	}
	return args
}
