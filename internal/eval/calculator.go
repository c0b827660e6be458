// Package eval derives crop evapotranspiration (ETc) from reference
// evapotranspiration readings. It is a pure compute layer: callers fetch
// fields and readings, eval multiplies.
package eval

import (
	"github.com/agritrack/irriplan/internal/field"
)

// ComputeEtc calculates ETc for a single field and reading.
//
// Formula: ETc = ET0 x Kc (crop factor)
func ComputeEtc(f field.Field, r field.WeatherReading) float64 {
	return r.ET0 * f.CropFactor
}

// ComputeEtcForAll pairs every computable field with every reading.
//
// Fields with an invalid (negative) crop factor are skipped rather than
// reported: one misconfigured field must not block ETc derivation for the
// rest. Result order is unspecified; the report layer sorts independently.
func ComputeEtcForAll(fields []field.Field, readings []field.WeatherReading) []field.EtcCalculation {
	var results []field.EtcCalculation

	for _, f := range fields {
		if f.CropFactor < 0 {
			continue
		}
		for _, r := range readings {
			results = append(results, field.EtcCalculation{
				FieldName: f.Name,
				Date:      r.Date,
				EtcValue:  ComputeEtc(f, r),
			})
		}
	}

	return results
}
