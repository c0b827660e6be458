// Package report assembles display-ready tables from fields and derived ETc
// values. Purely presentational; no persistence side effects.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agritrack/irriplan/internal/field"
	"github.com/agritrack/irriplan/internal/storage"
)

// Builder reads fields and ETc rows back from the store and renders them
type Builder struct {
	store storage.Store
}

// NewBuilder creates a report builder backed by the given store
func NewBuilder(store storage.Store) *Builder {
	return &Builder{store: store}
}

// BuildEtcTable renders the ETc table for the given dates: one row per field
// sorted by name, one column per date, N/A where no calculation exists.
func (b *Builder) BuildEtcTable(dates []string) (string, error) {
	fields, err := b.store.ListFields()
	if err != nil {
		return "", err
	}

	calcs, err := b.store.GetEtcForDates(dates)
	if err != nil {
		return "", err
	}

	return FormatEtcTable(fields, dates, calcs), nil
}

// FormatEtcTable renders fields x dates as a markdown table
func FormatEtcTable(fields []field.Field, dates []string, calcs []field.EtcCalculation) string {
	if len(fields) == 0 {
		return "No fields available to display."
	}
	if len(dates) == 0 {
		return "No weather data available to display."
	}

	sorted := make([]field.Field, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	// Index calculations by (field, date) for cell lookup
	values := make(map[string]map[string]float64)
	for _, calc := range calcs {
		if values[calc.FieldName] == nil {
			values[calc.FieldName] = make(map[string]float64)
		}
		values[calc.FieldName][calc.Date] = calc.EtcValue
	}

	var sb strings.Builder

	sb.WriteString("| Field | ")
	sb.WriteString(strings.Join(dates, " | "))
	sb.WriteString(" |\n")

	sb.WriteString("|")
	for i := 0; i < len(dates)+1; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	for i, f := range sorted {
		sb.WriteString("| ")
		sb.WriteString(f.Name)
		for _, date := range dates {
			sb.WriteString(" | ")
			if v, ok := values[f.Name][date]; ok {
				sb.WriteString(fmt.Sprintf("%.2f", v))
			} else {
				sb.WriteString("N/A")
			}
		}
		sb.WriteString(" |")
		if i < len(sorted)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatFieldTable renders the field listing shown by the menu
func FormatFieldTable(fields []field.Field) string {
	if len(fields) == 0 {
		return "No fields available to display."
	}

	sorted := make([]field.Field, len(fields))
	copy(sorted, fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-15s %-15s %-15s\n", "Field Name", "Crop Factor", "Fertilizer Week"))
	sb.WriteString(strings.Repeat("-", 50))
	for _, f := range sorted {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%-15s %-15.2f %-15d", f.Name, f.CropFactor, f.FertilizerWeek))
	}
	return sb.String()
}
