package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lg/diet-planner-api/internal/diet"
)

// presetRepository extends the engine's read-only preset port with the
// lookups and writes the API needs. Unknown ids return pgx.ErrNoRows.
type presetRepository interface {
	diet.PresetStore
	GetPreset(ctx context.Context, id int) (diet.MealPreset, error)
	CreatePreset(ctx context.Context, p diet.MealPreset) (diet.MealPreset, error)
}

/* ─── Postgres store ─────────────────────────────────────────────────── */

// pgPresetStore keeps presets in meal_presets with their foods in
// meal_preset_foods, ordered by position.
type pgPresetStore struct {
	db *pgxpool.Pool
}

const presetColumns = "id, name, meal_type, diet_type"

const presetFoodColumns = "preset_id, name, quantity_g, protein_per_100g, carbs_per_100g, fats_per_100g, fiber_per_100g"

// ListPresets returns presets filtered by meal type and diet type; empty
// filters match everything.
func (s *pgPresetStore) ListPresets(ctx context.Context, mealType string, dietType diet.DietType) ([]diet.MealPreset, error) {
	rows, err := queryMany[presetRow](s.db, ctx,
		`SELECT `+presetColumns+` FROM meal_presets
		 WHERE (@mealType = '' OR meal_type = @mealType)
		   AND (@dietType = '' OR diet_type = @dietType)
		 ORDER BY name ASC`,
		pgx.NamedArgs{"mealType": mealType, "dietType": string(dietType)})
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return s.withFoods(ctx, rows)
}

func (s *pgPresetStore) GetPreset(ctx context.Context, id int) (diet.MealPreset, error) {
	row, err := queryOne[presetRow](s.db, ctx,
		"SELECT "+presetColumns+" FROM meal_presets WHERE id = @id",
		pgx.NamedArgs{"id": id})
	if err != nil {
		return diet.MealPreset{}, err
	}
	presets, err := s.withFoods(ctx, []presetRow{row})
	if err != nil {
		return diet.MealPreset{}, err
	}
	return presets[0], nil
}

// withFoods loads the food lines for rows in one query.
func (s *pgPresetStore) withFoods(ctx context.Context, rows []presetRow) ([]diet.MealPreset, error) {
	presets := make([]diet.MealPreset, len(rows))
	if len(rows) == 0 {
		return presets, nil
	}
	ids := make([]int, len(rows))
	byID := make(map[int]int, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
		byID[r.ID] = i
		presets[i] = diet.MealPreset{
			ID:       r.ID,
			Name:     r.Name,
			MealType: r.MealType,
			DietType: diet.DietType(r.DietType),
			Foods:    []diet.PresetFood{},
		}
	}

	foods, err := queryMany[presetFoodRow](s.db, ctx,
		`SELECT `+presetFoodColumns+` FROM meal_preset_foods
		 WHERE preset_id = ANY(@ids)
		 ORDER BY preset_id, position`,
		pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("load preset foods: %w", err)
	}
	for _, f := range foods {
		i := byID[f.PresetID]
		presets[i].Foods = append(presets[i].Foods, diet.PresetFood{
			Name:           f.Name,
			QuantityG:      f.QuantityG,
			ProteinPer100g: f.ProteinPer100g,
			CarbsPer100g:   f.CarbsPer100g,
			FatsPer100g:    f.FatsPer100g,
			FiberPer100g:   f.FiberPer100g,
		})
	}
	return presets, nil
}

// CreatePreset inserts the preset and its foods in one transaction.
func (s *pgPresetStore) CreatePreset(ctx context.Context, p diet.MealPreset) (diet.MealPreset, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return diet.MealPreset{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO meal_presets (name, meal_type, diet_type)
		 VALUES (@name, @mealType, @dietType) RETURNING id`,
		pgx.NamedArgs{"name": p.Name, "mealType": p.MealType, "dietType": string(p.DietType)},
	).Scan(&p.ID)
	if err != nil {
		return diet.MealPreset{}, fmt.Errorf("insert preset: %w", err)
	}

	for i, f := range p.Foods {
		_, err := tx.Exec(ctx,
			`INSERT INTO meal_preset_foods
			   (preset_id, position, name, quantity_g, protein_per_100g, carbs_per_100g, fats_per_100g, fiber_per_100g)
			 VALUES (@presetID, @position, @name, @quantityG, @protein, @carbs, @fats, @fiber)`,
			pgx.NamedArgs{
				"presetID": p.ID, "position": i, "name": f.Name, "quantityG": f.QuantityG,
				"protein": f.ProteinPer100g, "carbs": f.CarbsPer100g,
				"fats": f.FatsPer100g, "fiber": f.FiberPer100g,
			})
		if err != nil {
			return diet.MealPreset{}, fmt.Errorf("insert preset food %q: %w", f.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return diet.MealPreset{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// listPresets returns the preset library, optionally filtered.
// GET /api/presets?meal_type=&diet_type=. Returns an empty array (not null).
func (h *Handler) listPresets(c *gin.Context) {
	mealType := strings.TrimSpace(c.Query("meal_type"))
	var dietType diet.DietType
	if raw := c.Query("diet_type"); raw != "" {
		d, err := diet.ParseDietType(raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
		dietType = d
	}

	presets, err := h.presets.ListPresets(c, mealType, dietType)
	if err != nil {
		dietError(c, "listPresets", err)
		return
	}
	if presets == nil {
		presets = []diet.MealPreset{}
	}
	c.JSON(http.StatusOK, presets)
}

// createPreset saves a meal from a live session into the preset library.
// POST /api/presets. Body: { "session_id", "meal_id", "name", "diet_type" }.
func (h *Handler) createPreset(c *gin.Context) {
	var body createPresetRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		apiError(c, http.StatusBadRequest, "name is required")
		return
	}
	dietType := diet.DietBalanced
	if body.DietType != "" {
		d, err := diet.ParseDietType(body.DietType)
		if err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
		dietType = d
	}

	e, ok := h.sessions.get(body.SessionID, c.GetInt("practitioner_id"))
	if !ok {
		apiError(c, http.StatusNotFound, "session not found")
		return
	}
	e.mu.Lock()
	m, err := e.session.Meal(body.MealID)
	e.mu.Unlock()
	if err != nil {
		dietError(c, "createPreset", err)
		return
	}
	if len(m.Foods) == 0 {
		apiError(c, http.StatusBadRequest, "meal has no foods")
		return
	}

	p, err := h.presets.CreatePreset(c, diet.PresetFromMeal(strings.TrimSpace(body.Name), dietType, m))
	if err != nil {
		dietError(c, "createPreset", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// applyPreset adds every food of a preset to a session meal as one undo step.
// POST /api/sessions/:id/meals/:mealId/presets/:presetId.
func (h *Handler) applyPreset(c *gin.Context) {
	e, ok := h.sessionFor(c)
	if !ok {
		return
	}
	mealID, ok := intParam(c, "mealId", "meal id")
	if !ok {
		return
	}
	presetID, ok := intParam(c, "presetId", "preset id")
	if !ok {
		return
	}

	preset, err := h.presets.GetPreset(c, presetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "preset not found")
		} else {
			dietError(c, "applyPreset", err)
		}
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	added, err := e.session.ApplyPreset(mealID, preset)
	if err != nil {
		dietError(c, "applyPreset", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": added, "session": e.view()})
}
