package sqlite

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/agritrack/irriplan/internal/field"
	"github.com/agritrack/irriplan/internal/storage"
)

func setupTestDB(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpfile.Close()

	store, err := NewStore(tmpfile.Name())
	if err != nil {
		os.Remove(tmpfile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.Remove(tmpfile.Name())
	}

	return store, cleanup
}

func TestStore_UpsertField_RoundTrip(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	f := field.Field{Name: "DF1B", CropFactor: 0.8, FertilizerWeek: 12}
	if err := store.UpsertField(f); err != nil {
		t.Fatalf("failed to upsert field: %v", err)
	}

	got, err := store.GetField("DF1B")
	if err != nil {
		t.Fatalf("failed to get field: %v", err)
	}
	if got == nil {
		t.Fatal("expected field, got nil")
	}
	if got.CropFactor != 0.8 || got.FertilizerWeek != 12 {
		t.Errorf("unexpected field values: %+v", got)
	}

	// Upsert again with new values overwrites
	f.CropFactor = 0.95
	f.FertilizerWeek = 14
	if err := store.UpsertField(f); err != nil {
		t.Fatalf("failed to overwrite field: %v", err)
	}

	got, err = store.GetField("DF1B")
	if err != nil {
		t.Fatalf("failed to get field after overwrite: %v", err)
	}
	if got.CropFactor != 0.95 || got.FertilizerWeek != 14 {
		t.Errorf("expected overwritten values, got %+v", got)
	}

	fields, err := store.ListFields()
	if err != nil {
		t.Fatalf("failed to list fields: %v", err)
	}
	if len(fields) != 1 {
		t.Errorf("expected exactly 1 field row, got %d", len(fields))
	}
}

func TestStore_UpsertField_Validation(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	var verr field.ValidationError

	err := store.UpsertField(field.Field{Name: "", CropFactor: 0.8, FertilizerWeek: 1})
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for empty name, got %v", err)
	}

	err = store.UpsertField(field.Field{Name: "DF1B", CropFactor: -0.1, FertilizerWeek: 1})
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for negative crop factor, got %v", err)
	}
}

func TestStore_ListFields_SortedByName(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	for _, name := range []string{"SS2B", "DF1B", "MF8B"} {
		if err := store.UpsertField(field.Field{Name: name, CropFactor: 0.5, FertilizerWeek: 1}); err != nil {
			t.Fatalf("failed to upsert %s: %v", name, err)
		}
	}

	fields, err := store.ListFields()
	if err != nil {
		t.Fatalf("failed to list fields: %v", err)
	}

	want := []string{"DF1B", "MF8B", "SS2B"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(fields))
	}
	for i, name := range want {
		if fields[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, fields[i].Name)
		}
	}
}

func TestStore_GetField_NotFound(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := store.GetField("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil field for nonexistent name")
	}
}

func TestStore_DeleteField_IdempotentAndKeepsHistory(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.UpsertField(field.Field{Name: "DF1B", CropFactor: 0.8, FertilizerWeek: 12}); err != nil {
		t.Fatalf("failed to upsert field: %v", err)
	}

	batch := []field.EtcCalculation{{FieldName: "DF1B", Date: "2025-01-10", EtcValue: 4.0}}
	if err := store.ReplaceEtcCalculations(batch); err != nil {
		t.Fatalf("failed to store etc calculation: %v", err)
	}

	if err := store.DeleteField("DF1B"); err != nil {
		t.Fatalf("failed to delete field: %v", err)
	}

	// Deleting again is not an error
	if err := store.DeleteField("DF1B"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}

	// Historical ETc rows stay behind (no cascade)
	calcs, err := store.GetEtcForDates([]string{"2025-01-10"})
	if err != nil {
		t.Fatalf("failed to get etc rows: %v", err)
	}
	if len(calcs) != 1 {
		t.Errorf("expected orphaned etc row to remain, got %d rows", len(calcs))
	}
}

func TestStore_UpsertWeatherReading_ReplacesDate(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.UpsertWeatherReading(field.WeatherReading{Date: "2025-01-10", ET0: 5.0}); err != nil {
		t.Fatalf("failed to upsert reading: %v", err)
	}
	if err := store.UpsertWeatherReading(field.WeatherReading{Date: "2025-01-10", ET0: 6.0}); err != nil {
		t.Fatalf("failed to replace reading: %v", err)
	}

	readings, err := store.GetWeatherReadings([]string{"2025-01-10"})
	if err != nil {
		t.Fatalf("failed to get readings: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected exactly 1 reading for the date, got %d", len(readings))
	}
	if readings[0].ET0 != 6.0 {
		t.Errorf("expected the later value 6.0, got %f", readings[0].ET0)
	}
}

func TestStore_UpsertWeatherReading_Validation(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	var verr field.ValidationError

	err := store.UpsertWeatherReading(field.WeatherReading{Date: "10-01-2025", ET0: 5.0})
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for malformed date, got %v", err)
	}

	err = store.UpsertWeatherReading(field.WeatherReading{Date: "2025-01-10", ET0: -1})
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for negative ET0, got %v", err)
	}
}

func TestStore_GetWeatherReadings_MissingDatesAbsent(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.UpsertWeatherReading(field.WeatherReading{Date: "2025-01-10", ET0: 5.0}); err != nil {
		t.Fatalf("failed to upsert reading: %v", err)
	}
	if err := store.UpsertWeatherReading(field.WeatherReading{Date: "2025-01-12", ET0: 4.5}); err != nil {
		t.Fatalf("failed to upsert reading: %v", err)
	}

	readings, err := store.GetWeatherReadings([]string{"2025-01-10", "2025-01-11", "2025-01-12"})
	if err != nil {
		t.Fatalf("failed to get readings: %v", err)
	}

	if len(readings) != 2 {
		t.Fatalf("expected 2 readings (missing date absent, not an error), got %d", len(readings))
	}
	if readings[0].Date != "2025-01-10" || readings[1].Date != "2025-01-12" {
		t.Errorf("expected readings ordered by date, got %+v", readings)
	}
}

func TestStore_ReplaceEtcCalculations_NoDuplicatePairs(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	first := []field.EtcCalculation{
		{FieldName: "DF1B", Date: "2025-01-10", EtcValue: 4.0},
		{FieldName: "DF1B", Date: "2025-01-11", EtcValue: 4.4},
		{FieldName: "SS2B", Date: "2025-01-10", EtcValue: 3.25},
	}
	if err := store.ReplaceEtcCalculations(first); err != nil {
		t.Fatalf("failed to store first batch: %v", err)
	}

	// Recalculation with a changed value for one pair
	second := []field.EtcCalculation{
		{FieldName: "DF1B", Date: "2025-01-10", EtcValue: 4.8},
	}
	if err := store.ReplaceEtcCalculations(second); err != nil {
		t.Fatalf("failed to store second batch: %v", err)
	}

	calcs, err := store.GetEtcForDates([]string{"2025-01-10", "2025-01-11"})
	if err != nil {
		t.Fatalf("failed to get etc rows: %v", err)
	}
	if len(calcs) != 3 {
		t.Fatalf("expected 3 rows (one per pair, no duplicates), got %d", len(calcs))
	}

	byKey := make(map[string]float64)
	for _, c := range calcs {
		byKey[c.FieldName+"/"+c.Date] = c.EtcValue
	}
	if byKey["DF1B/2025-01-10"] != 4.8 {
		t.Errorf("expected replaced value 4.8, got %f", byKey["DF1B/2025-01-10"])
	}
	if byKey["DF1B/2025-01-11"] != 4.4 {
		t.Errorf("expected untouched value 4.4, got %f", byKey["DF1B/2025-01-11"])
	}
	if byKey["SS2B/2025-01-10"] != 3.25 {
		t.Errorf("expected untouched value 3.25, got %f", byKey["SS2B/2025-01-10"])
	}

	for _, c := range calcs {
		if c.CalculatedAt.IsZero() {
			t.Errorf("expected calculated_at to be set for %s/%s", c.FieldName, c.Date)
		}
	}
}

func TestStore_ReplaceEtcCalculations_LastWriteWinsWithinBatch(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	batch := []field.EtcCalculation{
		{FieldName: "DF1B", Date: "2025-01-10", EtcValue: 4.0},
		{FieldName: "DF1B", Date: "2025-01-10", EtcValue: 4.8},
	}
	if err := store.ReplaceEtcCalculations(batch); err != nil {
		t.Fatalf("failed to store batch: %v", err)
	}

	calcs, err := store.GetEtcForDates([]string{"2025-01-10"})
	if err != nil {
		t.Fatalf("failed to get etc rows: %v", err)
	}
	if len(calcs) != 1 {
		t.Fatalf("expected 1 row for the pair, got %d", len(calcs))
	}
	if calcs[0].EtcValue != 4.8 {
		t.Errorf("expected last value in batch to win, got %f", calcs[0].EtcValue)
	}
}

func TestStore_ReplaceEtcCalculations_FailedBatchLeavesPriorRows(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	seed := []field.EtcCalculation{
		{FieldName: "DF1B", Date: "2025-01-10", EtcValue: 4.0},
	}
	if err := store.ReplaceEtcCalculations(seed); err != nil {
		t.Fatalf("failed to store seed batch: %v", err)
	}

	// A NaN value binds as NULL and trips the etc_value NOT NULL constraint,
	// failing the batch after the DF1B row was already deleted and rewritten
	// inside the transaction
	bad := []field.EtcCalculation{
		{FieldName: "DF1B", Date: "2025-01-10", EtcValue: 9.9},
		{FieldName: "SS2B", Date: "2025-01-10", EtcValue: math.NaN()},
	}
	err := store.ReplaceEtcCalculations(bad)
	if err == nil {
		t.Fatal("expected the batch to fail")
	}
	var serr *storage.StorageError
	if !errors.As(err, &serr) {
		t.Errorf("expected StorageError, got %v", err)
	}

	calcs, err := store.GetEtcForDates([]string{"2025-01-10"})
	if err != nil {
		t.Fatalf("failed to read back etc rows: %v", err)
	}
	if len(calcs) != 1 {
		t.Fatalf("expected the single prior row to survive the rollback, got %d rows", len(calcs))
	}
	if calcs[0].FieldName != "DF1B" || calcs[0].EtcValue != 4.0 {
		t.Errorf("expected prior row (DF1B, 4.0) intact, got (%s, %f)", calcs[0].FieldName, calcs[0].EtcValue)
	}
}

func TestStore_EtcHistory_Filters(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	batch := []field.EtcCalculation{
		{FieldName: "DF1B", Date: "2025-01-10", EtcValue: 4.0},
		{FieldName: "DF1B", Date: "2025-01-11", EtcValue: 4.4},
		{FieldName: "SS2B", Date: "2025-01-10", EtcValue: 3.25},
	}
	if err := store.ReplaceEtcCalculations(batch); err != nil {
		t.Fatalf("failed to store batch: %v", err)
	}

	records, err := store.EtcHistory(storage.EtcFilter{FieldName: "DF1B"})
	if err != nil {
		t.Fatalf("failed to query history by field: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records for DF1B, got %d", len(records))
	}

	records, err = store.EtcHistory(storage.EtcFilter{Date: "2025-01-10"})
	if err != nil {
		t.Fatalf("failed to query history by date: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records for 2025-01-10, got %d", len(records))
	}

	records, err = store.EtcHistory(storage.EtcFilter{Limit: 1})
	if err != nil {
		t.Fatalf("failed to query history with limit: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record with limit, got %d", len(records))
	}
}
