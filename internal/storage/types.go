package storage

import (
	"github.com/agritrack/irriplan/internal/field"
)

// Store defines the interface for persisting fields, weather readings and
// derived ETc calculations
type Store interface {
	// UpsertField inserts or overwrites the field row keyed by name
	UpsertField(f field.Field) error

	// GetField retrieves a single field by name; nil when absent
	GetField(name string) (*field.Field, error)

	// ListFields returns all fields ordered by name ascending
	ListFields() ([]field.Field, error)

	// DeleteField removes the field row; no error if absent
	DeleteField(name string) error

	// UpsertWeatherReading inserts or replaces the single reading for a date
	UpsertWeatherReading(r field.WeatherReading) error

	// GetWeatherReadings returns the stored readings for the given dates,
	// ordered by date; dates with no reading are simply absent
	GetWeatherReadings(dates []string) ([]field.WeatherReading, error)

	// ReplaceEtcCalculations atomically replaces the ETc row for every
	// (field, date) pair present in the batch
	ReplaceEtcCalculations(batch []field.EtcCalculation) error

	// GetEtcForDates returns all ETc rows whose date is in the given set
	GetEtcForDates(dates []string) ([]field.EtcCalculation, error)

	// EtcHistory retrieves ETc rows with optional filtering, newest first
	EtcHistory(filter EtcFilter) ([]field.EtcCalculation, error)

	// Close closes the storage connection
	Close() error
}

// EtcFilter defines filtering options for ETc history queries
type EtcFilter struct {
	FieldName string
	Date      string
	Limit     int
}

// StorageError wraps an underlying persistence fault
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return "storage: " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the underlying driver error
func (e *StorageError) Unwrap() error {
	return e.Err
}
