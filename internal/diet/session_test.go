package diet

import (
	"errors"
	"reflect"
	"testing"
)

// seedSession returns a session with one breakfast meal holding one food.
func seedSession(t *testing.T, opts ...SessionOption) (*Session, Meal) {
	t.Helper()
	s := NewSession(opts...)
	m, err := s.AddMeal(Meal{Label: "Breakfast", MealType: "breakfast", Foods: []MealFood{rice(100)}})
	if err != nil {
		t.Fatal(err)
	}
	return s, m
}

/* ─── Undo / redo state machine ──────────────────────────────────────── */

// TestSession_UndoRedoRoundTrip verifies undo followed by redo restores the
// exact pre-undo state.
func TestSession_UndoRedoRoundTrip(t *testing.T) {
	s, m := seedSession(t)
	if _, err := s.AddFoodToMeal(m.ID, chicken(120)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateFoodQuantity(m.ID, m.Foods[0].ID, 250); err != nil {
		t.Fatal(err)
	}
	before := s.Meals()

	if !s.Undo() {
		t.Fatal("Undo() = false, want true")
	}
	if reflect.DeepEqual(s.Meals(), before) {
		t.Fatal("undo did not change state")
	}
	if !s.Redo() {
		t.Fatal("Redo() = false, want true")
	}
	if got := s.Meals(); !reflect.DeepEqual(got, before) {
		t.Errorf("after undo+redo = %+v, want %+v", got, before)
	}
	if s.CanRedo() {
		t.Error("CanRedo() = true at head")
	}
}

// TestSession_UndoToEmptyAndBack walks the full stack down and back up.
func TestSession_UndoToEmptyAndBack(t *testing.T) {
	s, m := seedSession(t)
	if _, err := s.DuplicateMeal(m.ID); err != nil {
		t.Fatal(err)
	}
	head := s.Meals()

	if !s.Undo() || !s.Undo() {
		t.Fatal("expected two undo steps")
	}
	if len(s.Meals()) != 0 {
		t.Errorf("after undoing everything, %d meals remain", len(s.Meals()))
	}
	if s.Undo() {
		t.Error("Undo() = true with nothing to undo")
	}
	if !s.Redo() || !s.Redo() {
		t.Fatal("expected two redo steps")
	}
	if s.Redo() {
		t.Error("Redo() = true at head")
	}
	if !reflect.DeepEqual(s.Meals(), head) {
		t.Errorf("after redoing everything = %+v, want %+v", s.Meals(), head)
	}
}

// TestSession_NewMutationTruncatesRedo verifies a mutation after undo discards
// the redo branch.
func TestSession_NewMutationTruncatesRedo(t *testing.T) {
	s, m := seedSession(t)
	if _, err := s.AddFoodToMeal(m.ID, chicken(100)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddFoodToMeal(m.ID, chicken(200)); err != nil {
		t.Fatal(err)
	}
	s.Undo()
	s.Undo()
	if !s.CanRedo() {
		t.Fatal("CanRedo() = false after undo")
	}

	label := "Early breakfast"
	if _, err := s.UpdateMeal(m.ID, MealPatch{Label: &label}); err != nil {
		t.Fatal(err)
	}
	if s.CanRedo() {
		t.Error("CanRedo() = true after new mutation")
	}
	after := s.Meals()
	if s.Redo() {
		t.Error("Redo() = true after new mutation")
	}
	if !reflect.DeepEqual(s.Meals(), after) {
		t.Error("no-op redo changed state")
	}
}

// TestSession_FailedMutationNotRecorded verifies errors leave both workspace
// and history untouched.
func TestSession_FailedMutationNotRecorded(t *testing.T) {
	s, m := seedSession(t)
	before := s.Meals()

	if err := s.RemoveFoodFromMeal(m.ID, 999); !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if !reflect.DeepEqual(s.Meals(), before) {
		t.Error("failed mutation changed state")
	}

	s.Undo() // undoes AddMeal
	if s.Undo() {
		t.Error("failed mutation was recorded in history")
	}
}

// TestSession_HistoryLimit verifies the oldest entries are evicted once the
// limit is exceeded, without breaking undo of the newest ones.
func TestSession_HistoryLimit(t *testing.T) {
	s, m := seedSession(t, WithHistoryLimit(3))
	for q := 110.0; q <= 150; q += 10 {
		if _, err := s.UpdateFoodQuantity(m.ID, m.Foods[0].ID, q); err != nil {
			t.Fatal(err)
		}
	}
	undone := 0
	for s.Undo() {
		undone++
	}
	if undone != 3 {
		t.Errorf("undo steps = %d, want 3", undone)
	}
	meal, _ := s.Meal(m.ID)
	if got := meal.Foods[0].QuantityG; got != 120 {
		t.Errorf("oldest reachable quantity = %v, want 120", got)
	}
}

// TestSession_IDsNotReusedAfterUndo verifies undoing an add does not free its id.
func TestSession_IDsNotReusedAfterUndo(t *testing.T) {
	s, _ := seedSession(t)
	second, _ := s.AddMeal(Meal{Label: "Lunch"})
	s.Undo()
	third, err := s.AddMeal(Meal{Label: "Lunch again"})
	if err != nil {
		t.Fatal(err)
	}
	if third.ID == second.ID {
		t.Errorf("id %d reused after undo", third.ID)
	}
}

/* ─── Presets & substitution ─────────────────────────────────────────── */

// TestSession_ApplyPresetIsOneUndoStep verifies a preset lands as a batch and
// a single undo removes all of it.
func TestSession_ApplyPresetIsOneUndoStep(t *testing.T) {
	s, m := seedSession(t)
	before := s.Meals()
	preset := MealPreset{Name: "Oats bowl", Foods: []PresetFood{
		{Name: "Oats", QuantityG: 60, ProteinPer100g: 13, CarbsPer100g: 68, FatsPer100g: 7, FiberPer100g: 10},
		{Name: "Milk", QuantityG: 200, ProteinPer100g: 3.4, CarbsPer100g: 5, FatsPer100g: 1},
	}}

	added, err := s.ApplyPreset(m.ID, preset)
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 2 || added[0].ID == 0 || added[1].ID == added[0].ID {
		t.Fatalf("added = %+v", added)
	}
	if !s.Undo() {
		t.Fatal("Undo() = false")
	}
	if !reflect.DeepEqual(s.Meals(), before) {
		t.Errorf("after undoing preset = %+v, want %+v", s.Meals(), before)
	}
}

// TestSession_ApplyPresetAllOrNothing verifies a bad food rolls back the batch.
func TestSession_ApplyPresetAllOrNothing(t *testing.T) {
	s, m := seedSession(t)
	before := s.Meals()
	preset := MealPreset{Foods: []PresetFood{{Name: "ok", QuantityG: 10}, {Name: "bad", QuantityG: -1}}}
	if _, err := s.ApplyPreset(m.ID, preset); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(s.Meals(), before) {
		t.Error("partial preset left in workspace")
	}
}

// TestSession_ReplaceFoodKeepsID verifies a substitution swaps the food in place.
func TestSession_ReplaceFoodKeepsID(t *testing.T) {
	s, m := seedSession(t)
	opt := SubstitutionOption{Name: "Quinoa", EquivalentQuantityG: 130, MacrosPer100g: Macros{Protein: 4.4, Carbs: 21, Fats: 1.9}}
	f, err := s.ReplaceFood(m.ID, m.Foods[0].ID, opt)
	if err != nil {
		t.Fatal(err)
	}
	if f.ID != m.Foods[0].ID || f.Name != "Quinoa" || f.QuantityG != 130 {
		t.Errorf("replaced food = %+v", f)
	}
	s.Undo()
	meal, _ := s.Meal(m.ID)
	if meal.Foods[0].Name != "White rice" {
		t.Errorf("after undo food = %q, want White rice", meal.Foods[0].Name)
	}
}

/* ─── Targets & progress ─────────────────────────────────────────────── */

// TestSession_TargetsAndProgress verifies the pipeline result is stored and
// remaining values are target minus actual.
func TestSession_TargetsAndProgress(t *testing.T) {
	s, _ := seedSession(t)
	if p := s.Progress(); p.Targets != nil || p.Remaining != nil {
		t.Error("progress has targets before they were computed")
	}

	req := TargetRequest{Method: MethodMifflin, Activity: ActivityModerate, AdjustmentKcal: -700, Diet: DietBalanced}
	var missing *MissingInputError
	if _, err := s.ComputeTargets(req); !errors.As(err, &missing) {
		t.Fatalf("expected *MissingInputError without profile, got %v", err)
	}

	if err := s.SetProfile(makeProfile(SexMale)); err != nil {
		t.Fatal(err)
	}
	tg, err := s.ComputeTargets(req)
	if err != nil {
		t.Fatal(err)
	}
	if tg.AdjustmentKcal != -500 {
		t.Errorf("AdjustmentKcal = %d, want clamped -500", tg.AdjustmentKcal)
	}
	if !approx(tg.TargetCalories, 2055.5625, 1e-9) {
		t.Errorf("TargetCalories = %f, want 2055.5625", tg.TargetCalories)
	}

	p := s.Progress()
	if p.Remaining == nil {
		t.Fatal("Remaining = nil after targets computed")
	}
	if want := float64(tg.Macros.CarbsG) - p.Actuals.CarbsG; !approx(p.Remaining.CarbsG, want, 1e-9) {
		t.Errorf("Remaining.CarbsG = %f, want %f", p.Remaining.CarbsG, want)
	}
}

// TestSession_SetProfileClearsTargets verifies stale targets are dropped.
func TestSession_SetProfileClearsTargets(t *testing.T) {
	s := NewSession()
	_ = s.SetProfile(makeProfile(SexFemale))
	if _, err := s.ComputeTargets(TargetRequest{Method: MethodMifflin, Activity: ActivityLight, Diet: DietKetogenic}); err != nil {
		t.Fatal(err)
	}
	_ = s.SetProfile(makeProfile(SexMale))
	if _, ok := s.Targets(); ok {
		t.Error("targets survived a profile change")
	}
}
