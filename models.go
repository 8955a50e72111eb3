package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"lg/diet-planner-api/internal/diet"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// practitioner maps to the practitioners table. AuthToken and Password are
// hidden from JSON responses.
type practitioner struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	AuthToken string     `json:"-" db:"auth_token"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// patient maps to the patients table. Anthropometric fields are nullable: a
// patient can be registered before the first consultation.
type patient struct {
	ID             int        `json:"id"              db:"id"`
	PractitionerID int        `json:"practitioner_id" db:"practitioner_id"`
	Name           string     `json:"name"            db:"name"`
	Sex            *string    `json:"sex"             db:"sex"`
	DateOfBirth    *DateOnly  `json:"date_of_birth"   db:"date_of_birth"`
	HeightCM       *float64   `json:"height_cm"       db:"height_cm"`
	WeightKG       *float64   `json:"weight_kg"       db:"weight_kg"`
	BodyFatPct     *float64   `json:"body_fat_pct"    db:"body_fat_pct"`
	LeanMassKG     *float64   `json:"lean_mass_kg"    db:"lean_mass_kg"`
	ActivityLevel  *string    `json:"activity_level"  db:"activity_level"`
	DietType       *string    `json:"diet_type"       db:"diet_type"`
	CreatedAt      *time.Time `json:"created_at"      db:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"      db:"updated_at"`

	// Computed from the latest measurement and date of birth; not stored.
	Profile *diet.PatientProfile `json:"profile,omitempty" db:"-"`
}

// measurement maps to patient_measurements: one row per patient per day.
type measurement struct {
	ID         int        `json:"id"           db:"id"`
	PatientID  int        `json:"patient_id"   db:"patient_id"`
	Date       DateOnly   `json:"date"         db:"date"`
	WeightKG   float64    `json:"weight_kg"    db:"weight_kg"`
	BodyFatPct *float64   `json:"body_fat_pct" db:"body_fat_pct"`
	CreatedAt  *time.Time `json:"created_at"   db:"created_at"`
}

// presetRow and presetFoodRow are the scan shapes of meal_presets and
// meal_preset_foods; the API returns diet.MealPreset.
type presetRow struct {
	ID       int    `db:"id"`
	Name     string `db:"name"`
	MealType string `db:"meal_type"`
	DietType string `db:"diet_type"`
}

type presetFoodRow struct {
	PresetID       int     `db:"preset_id"`
	Name           string  `db:"name"`
	QuantityG      float64 `db:"quantity_g"`
	ProteinPer100g float64 `db:"protein_per_100g"`
	CarbsPer100g   float64 `db:"carbs_per_100g"`
	FatsPer100g    float64 `db:"fats_per_100g"`
	FiberPer100g   float64 `db:"fiber_per_100g"`
}

/* ─── Request types ──────────────────────────────────────────────────── */

// patchPatientRequest is the request body for PATCH /api/patients/:id.
// All fields are pointers; only non-nil fields get written to the database.
type patchPatientRequest struct {
	Name          *string  `json:"name"`
	Sex           *string  `json:"sex"`
	DateOfBirth   *string  `json:"date_of_birth"` // YYYY-MM-DD string, stored as date
	HeightCM      *float64 `json:"height_cm"`
	WeightKG      *float64 `json:"weight_kg"`
	BodyFatPct    *float64 `json:"body_fat_pct"`
	LeanMassKG    *float64 `json:"lean_mass_kg"`
	ActivityLevel *string  `json:"activity_level"`
	DietType      *string  `json:"diet_type"`
}

// createSessionRequest is the request body for POST /api/sessions. Without a
// patient the profile can be supplied later through PUT /profile.
type createSessionRequest struct {
	PatientID *int `json:"patient_id"`
}

// updateQuantityRequest is the request body for PATCH .../foods/:foodId.
type updateQuantityRequest struct {
	QuantityG *float64 `json:"quantity_g"`
}

// substitutesRequest is the request body for POST .../substitutes. Query
// defaults to the food's own name.
type substitutesRequest struct {
	Basis  string `json:"basis"`
	Query  string `json:"query"`
	Source string `json:"source"`
	Limit  int    `json:"limit"`
}

// createPresetRequest saves a session meal into the preset library.
type createPresetRequest struct {
	SessionID string `json:"session_id"`
	MealID    int    `json:"meal_id"`
	Name      string `json:"name"`
	DietType  string `json:"diet_type"`
}
