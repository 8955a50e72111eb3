package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"lg/diet-planner-api/internal/diet"
)

/* ─── Session registry ───────────────────────────────────────────────── */

// sessionEntry is one live planning session. mu serialises every call into
// session, which is single-writer. The searcher is safe on its own and is
// used without holding mu so a slow catalog never blocks edits.
type sessionEntry struct {
	mu             sync.Mutex
	id             string
	practitionerID int
	patientID      *int
	createdAt      time.Time
	session        *diet.Session
	searcher       *diet.SubstituteSearcher
}

// sessionRegistry keeps sessions in memory, keyed by uuid. Sessions are
// working state and are not persisted.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*sessionEntry)}
}

func (r *sessionRegistry) add(e *sessionEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[e.id] = e
}

// get returns the session only if it belongs to practitionerID.
func (r *sessionRegistry) get(id string, practitionerID int) (*sessionEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok || e.practitionerID != practitionerID {
		return nil, false
	}
	return e, true
}

func (r *sessionRegistry) remove(id string, practitionerID int) (*sessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok || e.practitionerID != practitionerID {
		return nil, false
	}
	delete(r.sessions, id)
	return e, true
}

/* ─── Response shapes & error mapping ────────────────────────────────── */

// sessionView is the JSON shape of a session. ProfileIssue is only set when
// a patient record could not be turned into a usable profile.
type sessionView struct {
	ID           string               `json:"id"`
	PatientID    *int                 `json:"patient_id"`
	CreatedAt    time.Time            `json:"created_at"`
	Profile      *diet.PatientProfile `json:"profile"`
	Targets      *diet.Targets        `json:"targets"`
	Meals        []diet.MealSummary   `json:"meals"`
	Totals       diet.NutrientTotals  `json:"totals"`
	CanUndo      bool                 `json:"can_undo"`
	CanRedo      bool                 `json:"can_redo"`
	ProfileIssue string               `json:"profile_issue,omitempty"`
}

// view snapshots the session. Caller holds e.mu.
func (e *sessionEntry) view() sessionView {
	v := sessionView{
		ID:        e.id,
		PatientID: e.patientID,
		CreatedAt: e.createdAt,
		Meals:     e.session.MealSummaries(),
		Totals:    e.session.Totals(),
		CanUndo:   e.session.CanUndo(),
		CanRedo:   e.session.CanRedo(),
	}
	if p, ok := e.session.Profile(); ok {
		v.Profile = &p
	}
	if t, ok := e.session.Targets(); ok {
		v.Targets = &t
	}
	return v
}

// dietStatus maps engine errors to HTTP status codes.
func dietStatus(err error) int {
	var (
		missing *diet.MissingInputError
		invalid *diet.InvalidMacroProfileError
		oor     *diet.OutOfRangeError
		failed  *diet.SearchFailedError
	)
	switch {
	case diet.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, diet.ErrStaleSearch), errors.Is(err, diet.ErrDuplicateID):
		return http.StatusConflict
	case errors.As(err, &failed):
		return http.StatusBadGateway
	case errors.As(err, &missing), errors.As(err, &invalid), errors.As(err, &oor),
		errors.Is(err, diet.ErrUnknownMethod), errors.Is(err, diet.ErrUnknownActivityLevel),
		errors.Is(err, diet.ErrUnknownDietType), errors.Is(err, diet.ErrUnknownBasis):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// dietError writes the response for an engine error. Unexpected errors are
// logged under fn and hidden from the client.
func dietError(c *gin.Context, fn string, err error) {
	status := dietStatus(err)
	switch status {
	case http.StatusInternalServerError:
		log.Printf("[%s] %v", fn, err)
		apiError(c, status, "internal error")
	case http.StatusBadGateway:
		log.Printf("[%s] %v", fn, err)
		c.JSON(status, gin.H{"error": err.Error(), "retryable": true})
	default:
		apiError(c, status, err.Error())
	}
}

/* ─── Request helpers ────────────────────────────────────────────────── */

// sessionFor resolves :id for the authenticated practitioner, writing a 404
// when it does not exist.
func (h *Handler) sessionFor(c *gin.Context) (*sessionEntry, bool) {
	e, ok := h.sessions.get(c.Param("id"), c.GetInt("practitioner_id"))
	if !ok {
		apiError(c, http.StatusNotFound, "session not found")
	}
	return e, ok
}

// intParam parses a numeric path param, writing a 400 on failure.
func intParam(c *gin.Context, name, label string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid "+label)
		return 0, false
	}
	return v, true
}

/* ─── Session lifecycle ──────────────────────────────────────────────── */

// createSession opens a planning session, loading the patient's profile when
// patient_id is given. An incomplete patient record still opens a session;
// the gap is reported in profile_issue and the profile can be set later.
// POST /api/sessions.
func (h *Handler) createSession(c *gin.Context) {
	practitionerID := c.GetInt("practitioner_id")

	var body createSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	e := &sessionEntry{
		id:             uuid.New().String(),
		practitionerID: practitionerID,
		patientID:      body.PatientID,
		createdAt:      time.Now().UTC(),
		session:        diet.NewSession(diet.WithHistoryLimit(h.historyLimit)),
		searcher:       diet.NewSubstituteSearcher(h.catalog),
	}

	var issue string
	if body.PatientID != nil {
		prof, err := h.patientsFor(practitionerID).GetProfile(c, *body.PatientID)
		var incomplete *incompleteProfileError
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			apiError(c, http.StatusNotFound, "patient not found")
			return
		case errors.As(err, &incomplete):
			issue = incomplete.Error()
		case err != nil:
			log.Printf("[createSession] profile lookup for patient %d failed: %v", *body.PatientID, err)
			apiError(c, http.StatusInternalServerError, "failed to load patient profile")
			return
		default:
			if err := e.session.SetProfile(prof); err != nil {
				issue = err.Error()
			}
		}
	}

	h.sessions.add(e)

	e.mu.Lock()
	v := e.view()
	e.mu.Unlock()
	v.ProfileIssue = issue

	c.JSON(http.StatusCreated, v)
}

// getSession returns the full session state.
// GET /api/sessions/:id.
func (h *Handler) getSession(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c.JSON(http.StatusOK, e.view())
}

// deleteSession discards a session and abandons any search in flight.
// DELETE /api/sessions/:id. Returns 204.
func (h *Handler) deleteSession(c *gin.Context) {
	e, ok := h.sessions.remove(c.Param("id"), c.GetInt("practitioner_id"))
	if !ok {
		apiError(c, http.StatusNotFound, "session not found")
		return
	}
	e.searcher.Cancel()
	c.Status(http.StatusNoContent)
}

/* ─── Profile, targets & progress ────────────────────────────────────── */

// putSessionProfile replaces the session's profile. Targets computed from
// the old profile are dropped.
// PUT /api/sessions/:id/profile.
func (h *Handler) putSessionProfile(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var body diet.PatientProfile
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.SetProfile(body); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, e.view())
}

// computeSessionTargets runs BMR → TDEE → goal → macros for the session profile.
// POST /api/sessions/:id/targets.
func (h *Handler) computeSessionTargets(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var body diet.TargetRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.session.ComputeTargets(body)
	if err != nil {
		dietError(c, "computeSessionTargets", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// getSessionProgress compares planned totals against targets.
// GET /api/sessions/:id/progress.
func (h *Handler) getSessionProgress(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"progress": e.session.Progress(),
		"meals":    e.session.MealSummaries(),
	})
}

/* ─── Meals ──────────────────────────────────────────────────────────── */

// addMeal appends a meal (optionally with foods) to the workspace.
// POST /api/sessions/:id/meals.
func (h *Handler) addMeal(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	var body diet.Meal
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.session.AddMeal(body)
	if err != nil {
		dietError(c, "addMeal", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// updateMeal patches label, meal type or time of day.
// PATCH /api/sessions/:id/meals/:mealId.
func (h *Handler) updateMeal(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}
	var body diet.MealPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Label == nil && body.MealType == nil && body.TimeOfDay == nil {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.session.UpdateMeal(mealID, body)
	if err != nil {
		dietError(c, "updateMeal", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// removeMeal deletes a meal and its foods.
// DELETE /api/sessions/:id/meals/:mealId. Returns 204.
func (h *Handler) removeMeal(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.RemoveMeal(mealID); err != nil {
		dietError(c, "removeMeal", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// duplicateMeal copies a meal, inserting the copy right after the original.
// POST /api/sessions/:id/meals/:mealId/duplicate.
func (h *Handler) duplicateMeal(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	m, err := e.session.DuplicateMeal(mealID)
	if err != nil {
		dietError(c, "duplicateMeal", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

/* ─── Foods ──────────────────────────────────────────────────────────── */

// addFood adds a food line to a meal.
// POST /api/sessions/:id/meals/:mealId/foods.
func (h *Handler) addFood(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}
	var body diet.MealFood
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		apiError(c, http.StatusBadRequest, "name is required")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	f, err := e.session.AddFoodToMeal(mealID, body)
	if err != nil {
		dietError(c, "addFood", err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// updateFoodQuantity changes a food's quantity in grams.
// PATCH /api/sessions/:id/meals/:mealId/foods/:foodId. Body: { "quantity_g" }.
func (h *Handler) updateFoodQuantity(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}
	foodID, ok := intParam(c, "foodId", "food id")
	if !ok {
		return
	}
	var body updateQuantityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.QuantityG == nil {
		apiError(c, http.StatusBadRequest, "quantity_g is required")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	f, err := e.session.UpdateFoodQuantity(mealID, foodID, *body.QuantityG)
	if err != nil {
		dietError(c, "updateFoodQuantity", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// removeFood deletes a food line.
// DELETE /api/sessions/:id/meals/:mealId/foods/:foodId. Returns 204.
func (h *Handler) removeFood(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}
	foodID, ok := intParam(c, "foodId", "food id")
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.session.RemoveFoodFromMeal(mealID, foodID); err != nil {
		dietError(c, "removeFood", err)
		return
	}
	c.Status(http.StatusNoContent)
}

/* ─── Substitution ───────────────────────────────────────────────────── */

// searchSubstitutes looks up catalog foods that carry the same grams of the
// basis nutrient as the selected food. The session lock is released before
// the catalog call; a search superseded by a newer one returns 409.
// POST /api/sessions/:id/meals/:mealId/foods/:foodId/substitutes.
func (h *Handler) searchSubstitutes(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}
	foodID, ok := intParam(c, "foodId", "food id")
	if !ok {
		return
	}
	var body substitutesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	e.mu.Lock()
	req, err := e.session.SubstituteRequest(mealID, foodID, diet.BasisNutrient(body.Basis), body.Query,
		diet.SearchFilters{Source: body.Source, Limit: body.Limit})
	e.mu.Unlock()
	if err != nil {
		dietError(c, "searchSubstitutes", err)
		return
	}

	opts, err := e.searcher.Search(c.Request.Context(), req)
	if err != nil {
		dietError(c, "searchSubstitutes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": req.Query, "basis": req.Basis, "options": opts})
}

// replaceFood swaps a food for a chosen substitution option, keeping its id.
// POST /api/sessions/:id/meals/:mealId/foods/:foodId/replace.
func (h *Handler) replaceFood(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}
	foodID, ok := intParam(c, "foodId", "food id")
	if !ok {
		return
	}
	var body diet.SubstitutionOption
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		apiError(c, http.StatusBadRequest, "name is required")
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	f, err := e.session.ReplaceFood(mealID, foodID, body)
	if err != nil {
		dietError(c, "replaceFood", err)
		return
	}
	c.JSON(http.StatusOK, f)
}

/* ─── History ────────────────────────────────────────────────────────── */

// undo reverts the last mutation. applied is false when there was nothing to undo.
// POST /api/sessions/:id/undo.
func (h *Handler) undo(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	applied := e.session.Undo()
	c.JSON(http.StatusOK, gin.H{"applied": applied, "session": e.view()})
}

// redo reapplies the last undone mutation.
// POST /api/sessions/:id/redo.
func (h *Handler) redo(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	applied := e.session.Redo()
	c.JSON(http.StatusOK, gin.H{"applied": applied, "session": e.view()})
}
