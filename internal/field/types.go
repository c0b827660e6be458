package field

import (
	"fmt"
	"math"
	"time"
)

// DateFormat is the ISO-8601 calendar date layout used everywhere dates are
// stored or displayed.
const DateFormat = "2006-01-02"

// Field represents an irrigation field with its crop coefficient
type Field struct {
	Name           string  `yaml:"name"`
	CropFactor     float64 `yaml:"cropFactor"`
	FertilizerWeek int     `yaml:"fertilizerWeek"`
}

// Validate checks the field against the domain rules
func (f Field) Validate() error {
	if f.Name == "" {
		return ValidationError{Field: "name", Message: "field name must be a non-empty string"}
	}
	if f.CropFactor < 0 || math.IsNaN(f.CropFactor) || math.IsInf(f.CropFactor, 0) {
		return ValidationError{Field: "cropFactor", Message: "crop factor must be a non-negative number"}
	}
	if f.FertilizerWeek < 1 {
		return ValidationError{Field: "fertilizerWeek", Message: "fertilizer week must be a positive integer"}
	}
	return nil
}

// WeatherReading is the reference evapotranspiration (ET0, mm/day) recorded
// for a single calendar date. At most one reading exists per date.
type WeatherReading struct {
	Date string
	ET0  float64
}

// Validate checks the reading's date format and ET0 range
func (r WeatherReading) Validate() error {
	if err := ValidateDate(r.Date); err != nil {
		return err
	}
	// ParseFloat accepts "NaN" and "Inf", so the range check alone is not
	// enough to keep non-finite values out of the store
	if r.ET0 < 0 || math.IsNaN(r.ET0) || math.IsInf(r.ET0, 0) {
		return ValidationError{Field: "et0", Message: "ET0 must be a non-negative number"}
	}
	return nil
}

// EtcCalculation is a derived crop evapotranspiration value for one
// (field, date) pair. CalculatedAt is assigned by the store on insert.
type EtcCalculation struct {
	FieldName    string
	Date         string
	EtcValue     float64
	CalculatedAt time.Time
}

// ValidateDate reports whether s is a valid ISO-8601 calendar date
func ValidateDate(s string) error {
	if _, err := time.Parse(DateFormat, s); err != nil {
		return ValidationError{Field: "date", Message: fmt.Sprintf("date %q must be in ISO 8601 format (YYYY-MM-DD)", s)}
	}
	return nil
}

// FieldList is the parsed form of a field definition file
type FieldList struct {
	APIVersion string  `yaml:"apiVersion"`
	Kind       string  `yaml:"kind"`
	Fields     []Field `yaml:"fields"`
}

// ListWithFile pairs a FieldList with its source file path
type ListWithFile struct {
	List *FieldList
	File string
}

// ValidationError reports invalid user or file input for a single value
type ValidationError struct {
	File    string
	Field   string
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	switch {
	case e.File != "" && e.Field != "":
		return e.File + ": " + e.Field + ": " + e.Message
	case e.File != "":
		return e.File + ": " + e.Message
	case e.Field != "":
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// NotFoundError reports an edit or delete against a missing key
type NotFoundError struct {
	Kind string
	Name string
}

// Error implements the error interface
func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// DuplicateError reports an explicit add against an existing key
type DuplicateError struct {
	Kind string
	Name string
}

// Error implements the error interface
func (e DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}
