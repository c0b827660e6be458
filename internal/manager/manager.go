// Package manager orchestrates validated field and weather mutations and the
// immediate ETc derivation that follows every weather entry.
package manager

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/agritrack/irriplan/internal/eval"
	"github.com/agritrack/irriplan/internal/field"
	"github.com/agritrack/irriplan/internal/storage"
)

// defaultFields seeds an empty database so first-time users have something to
// attach weather data to. Crop factors start at zero and must be edited
// before the ETc values mean anything.
var defaultFields = []field.Field{
	{Name: "DF1B", CropFactor: 0, FertilizerWeek: 1},
	{Name: "SS2B", CropFactor: 0, FertilizerWeek: 1},
	{Name: "MF8B", CropFactor: 0, FertilizerWeek: 1},
}

// Manager validates and applies create/update/delete operations on fields and
// weather entries, delegating persistence to the store
type Manager struct {
	store storage.Store
	log   *zap.SugaredLogger
	clock clockwork.Clock
}

// New creates a manager backed by the given store
func New(store storage.Store, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		store: store,
		log:   logger,
		clock: clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source. Pass nil to reset to real time.
func (m *Manager) SetClock(c clockwork.Clock) {
	if c == nil {
		m.clock = clockwork.NewRealClock()
		return
	}
	m.clock = c
}

// AddField creates a new field. An explicit add must not silently overwrite,
// so an existing name fails with DuplicateError.
func (m *Manager) AddField(name string, cropFactor float64, fertilizerWeek int) error {
	f := field.Field{Name: name, CropFactor: cropFactor, FertilizerWeek: fertilizerWeek}
	if err := f.Validate(); err != nil {
		return err
	}

	existing, err := m.store.GetField(name)
	if err != nil {
		return err
	}
	if existing != nil {
		return field.DuplicateError{Kind: "field", Name: name}
	}

	if err := m.store.UpsertField(f); err != nil {
		return err
	}
	m.recalcWindow("field add")
	return nil
}

// EditField merges the supplied values into an existing field. Nil arguments
// keep the current value.
func (m *Manager) EditField(name string, cropFactor *float64, fertilizerWeek *int) error {
	existing, err := m.store.GetField(name)
	if err != nil {
		return err
	}
	if existing == nil {
		return field.NotFoundError{Kind: "field", Name: name}
	}

	f := *existing
	if cropFactor != nil {
		f.CropFactor = *cropFactor
	}
	if fertilizerWeek != nil {
		f.FertilizerWeek = *fertilizerWeek
	}
	if err := f.Validate(); err != nil {
		return err
	}

	if err := m.store.UpsertField(f); err != nil {
		return err
	}
	m.recalcWindow("field edit")
	return nil
}

// DeleteField removes a field. Historical ETc rows for the field stay behind.
func (m *Manager) DeleteField(name string) error {
	existing, err := m.store.GetField(name)
	if err != nil {
		return err
	}
	if existing == nil {
		return field.NotFoundError{Kind: "field", Name: name}
	}

	return m.store.DeleteField(name)
}

// ListFields returns all fields ordered by name
func (m *Manager) ListFields() ([]field.Field, error) {
	return m.store.ListFields()
}

// RecordWeather persists an ET0 reading and immediately recalculates ETc for
// the whole current date window. A recalculation failure is logged but does
// not undo or fail the weather entry itself.
func (m *Manager) RecordWeather(date string, et0 float64) error {
	r := field.WeatherReading{Date: date, ET0: et0}
	if err := r.Validate(); err != nil {
		return err
	}

	if err := m.store.UpsertWeatherReading(r); err != nil {
		return err
	}

	m.recalcWindow("weather entry")
	return nil
}

// recalcWindow re-derives ETc for the current date window after a mutation.
// Failures are logged, never returned: the triggering write has already
// succeeded and replacement is atomic, so prior values stay consistent.
func (m *Manager) recalcWindow(trigger string) {
	if err := m.Recalculate(m.NextThreeDates()); err != nil {
		m.log.Warnf("recalculation after %s failed: %v", trigger, err)
	}
}

// Recalculate derives ETc for every computable field across every stored
// reading in the given dates, replacing prior values per (field, date) pair
// in one atomic batch.
func (m *Manager) Recalculate(dates []string) error {
	fields, err := m.store.ListFields()
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	readings, err := m.store.GetWeatherReadings(dates)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		return nil
	}

	batch := eval.ComputeEtcForAll(fields, readings)
	if len(batch) == 0 {
		return nil
	}

	return m.store.ReplaceEtcCalculations(batch)
}

// NextThreeDates returns the three consecutive dates starting from tomorrow,
// in ISO-8601 form
func (m *Manager) NextThreeDates() []string {
	now := m.clock.Now()
	dates := make([]string, 0, 3)
	for i := 1; i <= 3; i++ {
		dates = append(dates, now.AddDate(0, 0, i).Format(field.DateFormat))
	}
	return dates
}

// EnsureFields seeds the store when it holds no fields yet. With a definition
// directory it validates and imports those files; otherwise it falls back to
// the built-in defaults.
func (m *Manager) EnsureFields(fieldsDir, schemaPath string) error {
	existing, err := m.store.ListFields()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	if fieldsDir == "" {
		for _, f := range defaultFields {
			if err := m.store.UpsertField(f); err != nil {
				return err
			}
		}
		m.log.Infof("seeded %d default fields", len(defaultFields))
		return nil
	}

	validator, err := field.NewValidator(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to create validator: %w", err)
	}
	if errs := validator.ValidateDirectory(fieldsDir); len(errs) > 0 {
		return fmt.Errorf("field definitions in %s failed validation: %d errors, first: %v", fieldsDir, len(errs), errs[0])
	}

	lists, loadErrs := field.LoadFromDirectory(fieldsDir)
	if len(loadErrs) > 0 {
		return fmt.Errorf("failed to load field definitions: %d errors", len(loadErrs))
	}

	count := 0
	for _, list := range lists {
		for _, f := range list.List.Fields {
			if err := m.store.UpsertField(f); err != nil {
				return err
			}
			count++
		}
	}
	m.log.Infof("imported %d fields from %s", count, fieldsDir)
	return nil
}
