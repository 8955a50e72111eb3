package diet

import (
	"fmt"
	"math"
)

// NutrientTotals is always derived from food items. Kcal is recomputed from
// the macros so it can never drift from an independently entered calorie value.
type NutrientTotals struct {
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatsG    float64 `json:"fats_g"`
	FiberG   float64 `json:"fiber_g"`
}

func (t NutrientTotals) Add(o NutrientTotals) NutrientTotals {
	return totalsFromMacros(t.ProteinG+o.ProteinG, t.CarbsG+o.CarbsG, t.FatsG+o.FatsG, t.FiberG+o.FiberG)
}

func totalsFromMacros(protein, carbs, fats, fiber float64) NutrientTotals {
	return NutrientTotals{
		Kcal:     protein*KcalPerGramProtein + carbs*KcalPerGramCarbs + fats*KcalPerGramFat,
		ProteinG: protein,
		CarbsG:   carbs,
		FatsG:    fats,
		FiberG:   fiber,
	}
}

// MealFood is one food line inside a meal, with macros per 100 g.
type MealFood struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	QuantityG      float64 `json:"quantity_g"`
	ProteinPer100g float64 `json:"protein_per_100g"`
	CarbsPer100g   float64 `json:"carbs_per_100g"`
	FatsPer100g    float64 `json:"fats_per_100g"`
	FiberPer100g   float64 `json:"fiber_per_100g"`
}

// Totals scales the per-100g profile to the food's quantity.
func (f MealFood) Totals() NutrientTotals {
	k := f.QuantityG / 100
	return totalsFromMacros(f.ProteinPer100g*k, f.CarbsPer100g*k, f.FatsPer100g*k, f.FiberPer100g*k)
}

func (f MealFood) validate() error {
	if err := nonNegative("quantity_g", f.QuantityG); err != nil {
		return err
	}
	for _, v := range []struct {
		field string
		value float64
	}{
		{"protein_per_100g", f.ProteinPer100g},
		{"carbs_per_100g", f.CarbsPer100g},
		{"fats_per_100g", f.FatsPer100g},
		{"fiber_per_100g", f.FiberPer100g},
	} {
		if err := nonNegative(v.field, v.value); err != nil {
			return err
		}
	}
	return nil
}

func nonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return &OutOfRangeError{Field: field, Value: v, Min: 0, Max: math.Inf(1)}
	}
	return nil
}

type Meal struct {
	ID        int        `json:"id"`
	Label     string     `json:"label"`
	MealType  string     `json:"meal_type,omitempty"`
	TimeOfDay string     `json:"time_of_day"`
	Foods     []MealFood `json:"foods"`
}

// MealTotals sums every food in the meal.
func MealTotals(m Meal) NutrientTotals {
	var t NutrientTotals
	for _, f := range m.Foods {
		t = t.Add(f.Totals())
	}
	return t
}

// MealPatch carries the meal fields to change; nil fields are left alone.
type MealPatch struct {
	Label     *string `json:"label"`
	MealType  *string `json:"meal_type"`
	TimeOfDay *string `json:"time_of_day"`
}

// Workspace is the editable day plan. It is not safe for concurrent use.
//
// Meal and food ids are unique within the workspace and strictly increasing:
// an id is never handed out twice, even after the item is deleted or the
// deletion is undone.
type Workspace struct {
	meals      []Meal
	lastMealID int
	lastFoodID int
}

func NewWorkspace() *Workspace {
	return &Workspace{meals: []Meal{}}
}

// Meals returns a deep copy of the meal collection in display order.
func (w *Workspace) Meals() []Meal {
	return cloneMeals(w.meals)
}

func (w *Workspace) Meal(id int) (Meal, error) {
	i, err := w.mealIndex(id)
	if err != nil {
		return Meal{}, err
	}
	return cloneMeal(w.meals[i]), nil
}

// Totals sums MealTotals across every meal. Recomputed on each call.
func (w *Workspace) Totals() NutrientTotals {
	var t NutrientTotals
	for _, m := range w.meals {
		t = t.Add(MealTotals(m))
	}
	return t
}

// AddMeal appends m. A zero meal or food id is assigned; a non-zero id must be
// greater than every id used so far, otherwise ErrDuplicateID.
func (w *Workspace) AddMeal(m Meal) (Meal, error) {
	m = cloneMeal(m)
	for _, f := range m.Foods {
		if err := f.validate(); err != nil {
			return Meal{}, err
		}
	}
	mealID, err := nextID(m.ID, w.lastMealID)
	if err != nil {
		return Meal{}, err
	}
	// Check food ids before committing anything so a failure leaves w untouched.
	lastFood := w.lastFoodID
	for i := range m.Foods {
		id, err := nextID(m.Foods[i].ID, lastFood)
		if err != nil {
			return Meal{}, err
		}
		m.Foods[i].ID = id
		lastFood = id
	}
	m.ID = mealID
	w.lastMealID = mealID
	w.lastFoodID = lastFood
	w.meals = append(w.meals, m)
	return cloneMeal(m), nil
}

func (w *Workspace) RemoveMeal(id int) error {
	i, err := w.mealIndex(id)
	if err != nil {
		return err
	}
	w.meals = append(w.meals[:i], w.meals[i+1:]...)
	return nil
}

func (w *Workspace) UpdateMeal(id int, patch MealPatch) (Meal, error) {
	i, err := w.mealIndex(id)
	if err != nil {
		return Meal{}, err
	}
	m := &w.meals[i]
	if patch.Label != nil {
		m.Label = *patch.Label
	}
	if patch.MealType != nil {
		m.MealType = *patch.MealType
	}
	if patch.TimeOfDay != nil {
		m.TimeOfDay = *patch.TimeOfDay
	}
	return cloneMeal(*m), nil
}

// DuplicateMeal inserts a copy of meal id right after it. The copy and each
// of its foods get fresh ids.
func (w *Workspace) DuplicateMeal(id int) (Meal, error) {
	i, err := w.mealIndex(id)
	if err != nil {
		return Meal{}, err
	}
	dup := cloneMeal(w.meals[i])
	w.lastMealID++
	dup.ID = w.lastMealID
	for j := range dup.Foods {
		w.lastFoodID++
		dup.Foods[j].ID = w.lastFoodID
	}
	w.meals = append(w.meals, Meal{})
	copy(w.meals[i+2:], w.meals[i+1:])
	w.meals[i+1] = dup
	return cloneMeal(dup), nil
}

func (w *Workspace) AddFoodToMeal(mealID int, f MealFood) (MealFood, error) {
	i, err := w.mealIndex(mealID)
	if err != nil {
		return MealFood{}, err
	}
	if err := f.validate(); err != nil {
		return MealFood{}, err
	}
	id, err := nextID(f.ID, w.lastFoodID)
	if err != nil {
		return MealFood{}, err
	}
	f.ID = id
	w.lastFoodID = id
	w.meals[i].Foods = append(w.meals[i].Foods, f)
	return f, nil
}

func (w *Workspace) RemoveFoodFromMeal(mealID, foodID int) error {
	i, j, err := w.foodIndex(mealID, foodID)
	if err != nil {
		return err
	}
	foods := w.meals[i].Foods
	w.meals[i].Foods = append(foods[:j], foods[j+1:]...)
	return nil
}

func (w *Workspace) UpdateFoodQuantity(mealID, foodID int, quantityG float64) (MealFood, error) {
	if err := nonNegative("quantity_g", quantityG); err != nil {
		return MealFood{}, err
	}
	i, j, err := w.foodIndex(mealID, foodID)
	if err != nil {
		return MealFood{}, err
	}
	w.meals[i].Foods[j].QuantityG = quantityG
	return w.meals[i].Foods[j], nil
}

// replaceFood swaps the food at (mealID, foodID) for f, keeping its id.
func (w *Workspace) replaceFood(mealID, foodID int, f MealFood) (MealFood, error) {
	if err := f.validate(); err != nil {
		return MealFood{}, err
	}
	i, j, err := w.foodIndex(mealID, foodID)
	if err != nil {
		return MealFood{}, err
	}
	f.ID = foodID
	w.meals[i].Foods[j] = f
	return f, nil
}

func (w *Workspace) mealIndex(id int) (int, error) {
	for i := range w.meals {
		if w.meals[i].ID == id {
			return i, nil
		}
	}
	return -1, &NotFoundError{Kind: "meal", ID: id}
}

func (w *Workspace) foodIndex(mealID, foodID int) (int, int, error) {
	i, err := w.mealIndex(mealID)
	if err != nil {
		return -1, -1, err
	}
	for j, f := range w.meals[i].Foods {
		if f.ID == foodID {
			return i, j, nil
		}
	}
	return -1, -1, &NotFoundError{Kind: "food", ID: foodID}
}

// snapshot and restore move the meal collection in and out of history. Id
// counters are not part of a snapshot, so undo never reissues an id.
func (w *Workspace) snapshot() []Meal {
	return cloneMeals(w.meals)
}

func (w *Workspace) restore(meals []Meal) {
	w.meals = cloneMeals(meals)
}

func nextID(requested, last int) (int, error) {
	if requested == 0 {
		return last + 1, nil
	}
	if requested <= last {
		return 0, fmt.Errorf("%w: %d (ids must be greater than %d)", ErrDuplicateID, requested, last)
	}
	return requested, nil
}

func cloneMeal(m Meal) Meal {
	foods := make([]MealFood, len(m.Foods))
	copy(foods, m.Foods)
	m.Foods = foods
	return m
}

func cloneMeals(meals []Meal) []Meal {
	out := make([]Meal, len(meals))
	for i, m := range meals {
		out[i] = cloneMeal(m)
	}
	return out
}
