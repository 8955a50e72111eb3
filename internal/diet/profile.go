package diet

import (
	"fmt"
	"math"
	"strings"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// ParseSex accepts "male"/"female" and the single-letter forms "M"/"F".
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return SexMale, nil
	case "female", "f":
		return SexFemale, nil
	}
	return "", fmt.Errorf("sex must be one of: male, female (got %q)", s)
}

// PatientProfile is the anthropometric snapshot every calculation reads from.
// Body composition fields are optional; nil means "not measured" and is never
// replaced with a guess inside the engine.
type PatientProfile struct {
	WeightKg   float64  `json:"weight_kg"`
	HeightM    float64  `json:"height_m"`
	AgeYears   int      `json:"age_years"`
	Sex        Sex      `json:"sex"`
	BodyFatPct *float64 `json:"body_fat_pct,omitempty"`
	LeanMassKg *float64 `json:"lean_mass_kg,omitempty"`
}

// HeightCM is the height in centimetres used by the Mifflin and Harris-Benedict formulas.
func (p PatientProfile) HeightCM() float64 {
	return p.HeightM * 100
}

// Validate checks every field against its domain and returns the first violation.
func (p PatientProfile) Validate() error {
	if !(p.WeightKg > 0) || math.IsInf(p.WeightKg, 0) {
		return &OutOfRangeError{Field: "weight_kg", Value: p.WeightKg, Min: 0, Max: math.Inf(1)}
	}
	if !(p.HeightM > 0) || math.IsInf(p.HeightM, 0) {
		return &OutOfRangeError{Field: "height_m", Value: p.HeightM, Min: 0, Max: math.Inf(1)}
	}
	if p.AgeYears < 0 {
		return &OutOfRangeError{Field: "age_years", Value: float64(p.AgeYears), Min: 0, Max: math.Inf(1)}
	}
	if p.Sex != SexMale && p.Sex != SexFemale {
		return fmt.Errorf("sex must be one of: male, female (got %q)", p.Sex)
	}
	if p.BodyFatPct != nil && (*p.BodyFatPct < 0 || *p.BodyFatPct > 100 || math.IsNaN(*p.BodyFatPct)) {
		return &OutOfRangeError{Field: "body_fat_pct", Value: *p.BodyFatPct, Min: 0, Max: 100}
	}
	if p.LeanMassKg != nil && !(*p.LeanMassKg > 0) {
		return &OutOfRangeError{Field: "lean_mass_kg", Value: *p.LeanMassKg, Min: 0, Max: math.Inf(1)}
	}
	return nil
}

// LeanMass returns the supplied lean body mass, or derives it from body-fat
// percentage. ok is false when neither is available.
func (p PatientProfile) LeanMass() (kg float64, ok bool) {
	if p.LeanMassKg != nil {
		return *p.LeanMassKg, true
	}
	if p.BodyFatPct != nil {
		return p.WeightKg * (1 - *p.BodyFatPct/100), true
	}
	return 0, false
}
