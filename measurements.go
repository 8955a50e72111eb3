package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// ownedPatient restricts a statement to patients of the current practitioner.
const ownedPatient = "EXISTS (SELECT 1 FROM patients WHERE id = @patientID AND practitioner_id = @practitionerID)"

// getMeasurements returns a patient's measurements within [start, end].
// GET /api/patients/:id/measurements?start=YYYY-MM-DD&end=YYYY-MM-DD. Both
// params required. Returns an empty array (not null) if none exist in range.
func (h *Handler) getMeasurements(c *gin.Context) {
	practitionerID := c.GetInt("practitioner_id")
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid patient id")
		return
	}
	start := c.Query("start")
	end := c.Query("end")

	if start == "" || end == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	if _, err := time.Parse("2006-01-02", start); err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	if _, err := time.Parse("2006-01-02", end); err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if start > end {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	entries, err := queryMany[measurement](h.db, c,
		`SELECT * FROM patient_measurements
		 WHERE patient_id = @patientID AND date >= @start AND date <= @end AND `+ownedPatient+`
		 ORDER BY date ASC`,
		pgx.NamedArgs{"patientID": patientID, "practitionerID": practitionerID, "start": start, "end": end})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch measurements")
		return
	}
	if entries == nil {
		entries = []measurement{}
	}

	c.JSON(http.StatusOK, entries)
}

// upsertMeasurement creates or updates the measurement for the given date.
// POST /api/patients/:id/measurements. Body: { "date", "weight_kg", "body_fat_pct"? }.
// The UNIQUE(patient_id, date) constraint means posting the same date updates in place.
func (h *Handler) upsertMeasurement(c *gin.Context) {
	practitionerID := c.GetInt("practitioner_id")
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid patient id")
		return
	}

	var body struct {
		Date       string   `json:"date"`
		WeightKG   float64  `json:"weight_kg"`
		BodyFatPct *float64 `json:"body_fat_pct"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date == "" {
		body.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if body.WeightKG <= 0 || body.WeightKG > 999.9 {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 999.9")
		return
	}
	if body.BodyFatPct != nil && (*body.BodyFatPct < 0 || *body.BodyFatPct > 100) {
		apiError(c, http.StatusBadRequest, "body_fat_pct must be between 0 and 100")
		return
	}

	entry, err := queryOne[measurement](h.db, c,
		`INSERT INTO patient_measurements (patient_id, date, weight_kg, body_fat_pct)
		 SELECT @patientID, @date, @weightKG, @bodyFatPct WHERE `+ownedPatient+`
		 ON CONFLICT (patient_id, date) DO UPDATE
		   SET weight_kg = EXCLUDED.weight_kg, body_fat_pct = EXCLUDED.body_fat_pct
		 RETURNING *`,
		pgx.NamedArgs{
			"patientID": patientID, "practitionerID": practitionerID,
			"date": body.Date, "weightKG": body.WeightKG, "bodyFatPct": body.BodyFatPct,
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "patient not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to upsert measurement")
		}
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// deleteMeasurement removes a measurement by ID.
// DELETE /api/patients/:id/measurements/:measurementId. Returns 204 on success,
// 404 if not found or the patient belongs to someone else.
func (h *Handler) deleteMeasurement(c *gin.Context) {
	practitionerID := c.GetInt("practitioner_id")

	result, err := h.db.Exec(c,
		"DELETE FROM patient_measurements WHERE id = @id AND patient_id = @patientID AND "+ownedPatient,
		pgx.NamedArgs{"id": c.Param("measurementId"), "patientID": c.Param("id"), "practitionerID": practitionerID})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to delete measurement")
		return
	}
	if result.RowsAffected() == 0 {
		apiError(c, http.StatusNotFound, "measurement not found")
		return
	}

	c.Status(http.StatusNoContent)
}
