package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lg/diet-planner-api/internal/diet"
)

/* ─── Profile assembly ───────────────────────────────────────────────── */

// incompleteProfileError reports patient fields the calculations need but the
// record does not have yet.
type incompleteProfileError struct {
	PatientID int
	Missing   []string
}

func (e *incompleteProfileError) Error() string {
	return fmt.Sprintf("patient %d profile incomplete: missing %s", e.PatientID, strings.Join(e.Missing, ", "))
}

// ageOn returns whole years between dob and today.
func ageOn(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Before(dob.AddDate(age, 0, 0)) {
		age--
	}
	return age
}

// profileFromRow builds the engine profile from a patient record and its
// latest measurement (nil when none). The latest measurement wins over the
// weight and body fat stored on the patient. Missing required fields are
// listed rather than defaulted.
func profileFromRow(p patient, latest *measurement, today time.Time) (diet.PatientProfile, []string) {
	var prof diet.PatientProfile
	var missing []string

	switch {
	case latest != nil:
		prof.WeightKg = latest.WeightKG
	case p.WeightKG != nil:
		prof.WeightKg = *p.WeightKG
	default:
		missing = append(missing, "weight_kg")
	}

	if p.HeightCM != nil {
		prof.HeightM = *p.HeightCM / 100
	} else {
		missing = append(missing, "height_cm")
	}

	if p.DateOfBirth != nil {
		prof.AgeYears = ageOn(p.DateOfBirth.Time, today)
	} else {
		missing = append(missing, "date_of_birth")
	}

	if p.Sex != nil {
		if s, err := diet.ParseSex(*p.Sex); err == nil {
			prof.Sex = s
		} else {
			missing = append(missing, "sex")
		}
	} else {
		missing = append(missing, "sex")
	}

	if latest != nil && latest.BodyFatPct != nil {
		prof.BodyFatPct = latest.BodyFatPct
	} else {
		prof.BodyFatPct = p.BodyFatPct
	}
	prof.LeanMassKg = p.LeanMassKG

	return prof, missing
}

// pgPatientProvider implements diet.PatientDataProvider over the patients
// and patient_measurements tables, scoped to one practitioner.
type pgPatientProvider struct {
	db             *pgxpool.Pool
	practitionerID int
}

func (p *pgPatientProvider) loadPatient(ctx context.Context, patientID int) (patient, *measurement, error) {
	row, err := queryOne[patient](p.db, ctx,
		"SELECT * FROM patients WHERE id = @id AND practitioner_id = @practitionerID",
		pgx.NamedArgs{"id": patientID, "practitionerID": p.practitionerID})
	if err != nil {
		return patient{}, nil, err
	}
	latest, err := queryMany[measurement](p.db, ctx,
		"SELECT * FROM patient_measurements WHERE patient_id = @id ORDER BY date DESC LIMIT 1",
		pgx.NamedArgs{"id": patientID})
	if err != nil {
		return patient{}, nil, err
	}
	if len(latest) == 0 {
		return row, nil, nil
	}
	return row, &latest[0], nil
}

// GetProfile returns pgx.ErrNoRows for an unknown (or foreign) patient and
// *incompleteProfileError, alongside the partial profile, when required
// fields are missing.
func (p *pgPatientProvider) GetProfile(ctx context.Context, patientID int) (diet.PatientProfile, error) {
	row, latest, err := p.loadPatient(ctx, patientID)
	if err != nil {
		return diet.PatientProfile{}, err
	}
	prof, missing := profileFromRow(row, latest, time.Now())
	if len(missing) > 0 {
		return prof, &incompleteProfileError{PatientID: patientID, Missing: missing}
	}
	return prof, nil
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// getPatient returns one of the practitioner's patients. The computed profile
// is included when the record is complete.
// GET /api/patients/:id.
func (h *Handler) getPatient(c *gin.Context) {
	practitionerID := c.GetInt("practitioner_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid patient id")
		return
	}

	provider := &pgPatientProvider{db: h.db, practitionerID: practitionerID}
	row, latest, err := provider.loadPatient(c, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "patient not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch patient")
		}
		return
	}
	if prof, missing := profileFromRow(row, latest, time.Now()); len(missing) == 0 {
		row.Profile = &prof
	}

	c.JSON(http.StatusOK, row)
}

// validatePatientPatch rejects enum and range violations before anything is
// written, so a bad value never breaks later target calculations.
func validatePatientPatch(body patchPatientRequest) string {
	if body.Sex != nil {
		if _, err := diet.ParseSex(*body.Sex); err != nil {
			return "sex must be one of: male, female"
		}
	}
	if body.ActivityLevel != nil {
		if _, err := diet.ParseActivityLevel(*body.ActivityLevel); err != nil {
			return "activity_level must be one of: sedentary, light, moderate, very_active, extra_active"
		}
	}
	if body.DietType != nil {
		if _, err := diet.ParseDietType(*body.DietType); err != nil {
			return "diet_type must be one of: balanced, low_carb, ketogenic, high_protein, mediterranean, custom"
		}
	}
	if body.DateOfBirth != nil {
		if _, err := time.Parse("2006-01-02", *body.DateOfBirth); err != nil {
			return "invalid date_of_birth, expected YYYY-MM-DD"
		}
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"height_cm", body.HeightCM},
		{"weight_kg", body.WeightKG},
		{"lean_mass_kg", body.LeanMassKG},
	} {
		if f.v != nil && *f.v <= 0 {
			return f.name + " must be positive"
		}
	}
	if body.BodyFatPct != nil && (*body.BodyFatPct < 0 || *body.BodyFatPct > 100) {
		return "body_fat_pct must be between 0 and 100"
	}
	return ""
}

// patchPatient updates only the provided patient fields.
// PATCH /api/patients/:id. Uses pointer fields in the request body to
// distinguish "not provided" from zero. Only non-nil fields get updated.
func (h *Handler) patchPatient(c *gin.Context) {
	practitionerID := c.GetInt("practitioner_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid patient id")
		return
	}

	var body patchPatientRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validatePatientPatch(body); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	// Build SET clause dynamically: only update fields the client actually sent
	setClauses := []string{}
	args := pgx.NamedArgs{"id": id, "practitionerID": practitionerID}

	if body.Name != nil {
		setClauses = append(setClauses, "name = @name")
		args["name"] = *body.Name
	}
	if body.Sex != nil {
		sex, _ := diet.ParseSex(*body.Sex)
		setClauses = append(setClauses, "sex = @sex")
		args["sex"] = string(sex)
	}
	if body.DateOfBirth != nil {
		setClauses = append(setClauses, "date_of_birth = @dateOfBirth")
		args["dateOfBirth"] = *body.DateOfBirth
	}
	if body.HeightCM != nil {
		setClauses = append(setClauses, "height_cm = @heightCM")
		args["heightCM"] = *body.HeightCM
	}
	if body.WeightKG != nil {
		setClauses = append(setClauses, "weight_kg = @weightKG")
		args["weightKG"] = *body.WeightKG
	}
	if body.BodyFatPct != nil {
		setClauses = append(setClauses, "body_fat_pct = @bodyFatPct")
		args["bodyFatPct"] = *body.BodyFatPct
	}
	if body.LeanMassKG != nil {
		setClauses = append(setClauses, "lean_mass_kg = @leanMassKG")
		args["leanMassKG"] = *body.LeanMassKG
	}
	if body.ActivityLevel != nil {
		setClauses = append(setClauses, "activity_level = @activityLevel")
		args["activityLevel"] = *body.ActivityLevel
	}
	if body.DietType != nil {
		setClauses = append(setClauses, "diet_type = @dietType")
		args["dietType"] = *body.DietType
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	query := "UPDATE patients SET " +
		strings.Join(setClauses, ", ") +
		", updated_at = now() WHERE id = @id AND practitioner_id = @practitionerID RETURNING *"

	p, err := queryOne[patient](h.db, c, query, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "patient not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to update patient")
		}
		return
	}

	c.JSON(http.StatusOK, p)
}
