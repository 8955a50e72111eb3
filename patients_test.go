package main

import (
	"reflect"
	"testing"
	"time"

	"lg/diet-planner-api/internal/diet"
)

// makePatient constructs a fully-populated patient record. Individual tests
// nil out fields to exercise the missing-field reporting.
func makePatient() patient {
	sex := "M"
	dob := DateOnly{time.Date(1994, 6, 15, 0, 0, 0, 0, time.UTC)}
	height, weight, bodyFat := 175.0, 72.0, 18.0
	return patient{
		ID:          7,
		Name:        "Test Patient",
		Sex:         &sex,
		DateOfBirth: &dob,
		HeightCM:    &height,
		WeightKG:    &weight,
		BodyFatPct:  &bodyFat,
	}
}

var profileDay = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

/* ─── Age ────────────────────────────────────────────────────────────── */

// TestAgeOn verifies the birthday boundary is handled.
func TestAgeOn(t *testing.T) {
	dob := time.Date(1990, 3, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		today time.Time
		want  int
	}{
		{time.Date(2020, 3, 9, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), 30},
	}
	for _, tc := range cases {
		if got := ageOn(dob, tc.today); got != tc.want {
			t.Errorf("ageOn(%s) = %d, want %d", tc.today.Format("2006-01-02"), got, tc.want)
		}
	}
}

/* ─── Profile assembly ───────────────────────────────────────────────── */

// TestProfileFromRow_Complete verifies unit conversion, sex parsing and age.
func TestProfileFromRow_Complete(t *testing.T) {
	prof, missing := profileFromRow(makePatient(), nil, profileDay)
	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
	if prof.WeightKg != 72 || prof.HeightM != 1.75 || prof.AgeYears != 29 || prof.Sex != diet.SexMale {
		t.Errorf("profile = %+v", prof)
	}
	if prof.BodyFatPct == nil || *prof.BodyFatPct != 18 {
		t.Errorf("BodyFatPct = %v, want 18", prof.BodyFatPct)
	}
	if err := prof.Validate(); err != nil {
		t.Errorf("profile does not validate: %v", err)
	}
}

// TestProfileFromRow_LatestMeasurementWins verifies a measurement overrides
// the weight and body fat stored on the patient.
func TestProfileFromRow_LatestMeasurementWins(t *testing.T) {
	bf := 21.5
	latest := &measurement{WeightKG: 69.4, BodyFatPct: &bf}
	prof, _ := profileFromRow(makePatient(), latest, profileDay)
	if prof.WeightKg != 69.4 {
		t.Errorf("WeightKg = %v, want 69.4", prof.WeightKg)
	}
	if prof.BodyFatPct == nil || *prof.BodyFatPct != 21.5 {
		t.Errorf("BodyFatPct = %v, want 21.5", prof.BodyFatPct)
	}

	// A measurement without body fat keeps the patient's value.
	latest.BodyFatPct = nil
	prof, _ = profileFromRow(makePatient(), latest, profileDay)
	if prof.BodyFatPct == nil || *prof.BodyFatPct != 18 {
		t.Errorf("BodyFatPct = %v, want 18 from patient", prof.BodyFatPct)
	}
}

// TestProfileFromRow_MissingFields verifies gaps are reported rather than
// filled with defaults.
func TestProfileFromRow_MissingFields(t *testing.T) {
	bad := "unknown"
	cases := []struct {
		name  string
		mutFn func(p *patient)
		want  []string
	}{
		{"nil WeightKG", func(p *patient) { p.WeightKG = nil }, []string{"weight_kg"}},
		{"nil HeightCM", func(p *patient) { p.HeightCM = nil }, []string{"height_cm"}},
		{"nil DateOfBirth", func(p *patient) { p.DateOfBirth = nil }, []string{"date_of_birth"}},
		{"nil Sex", func(p *patient) { p.Sex = nil }, []string{"sex"}},
		{"unparseable Sex", func(p *patient) { p.Sex = &bad }, []string{"sex"}},
		{"everything", func(p *patient) { *p = patient{} }, []string{"weight_kg", "height_cm", "date_of_birth", "sex"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := makePatient()
			tc.mutFn(&p)
			_, missing := profileFromRow(p, nil, profileDay)
			if !reflect.DeepEqual(missing, tc.want) {
				t.Errorf("missing = %v, want %v", missing, tc.want)
			}
		})
	}
}

/* ─── Patch validation ───────────────────────────────────────────────── */

// TestValidatePatientPatch covers the enum and range guards on PATCH.
func TestValidatePatientPatch(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(f float64) *float64 { return &f }

	cases := []struct {
		name string
		body patchPatientRequest
		ok   bool
	}{
		{"empty", patchPatientRequest{}, true},
		{"valid fields", patchPatientRequest{Sex: str("female"), ActivityLevel: str("moderate"), DietType: str("ketogenic"), HeightCM: num(160)}, true},
		{"bad sex", patchPatientRequest{Sex: str("x")}, false},
		{"bad activity", patchPatientRequest{ActivityLevel: str("active")}, false},
		{"bad diet", patchPatientRequest{DietType: str("paleo")}, false},
		{"bad dob", patchPatientRequest{DateOfBirth: str("15/06/1994")}, false},
		{"zero height", patchPatientRequest{HeightCM: num(0)}, false},
		{"body fat over 100", patchPatientRequest{BodyFatPct: num(101)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := validatePatientPatch(tc.body)
			if (msg == "") != tc.ok {
				t.Errorf("validatePatientPatch() = %q, want ok=%v", msg, tc.ok)
			}
		})
	}
}
