package diet

import "errors"

// TargetRequest selects the formula, activity, goal and diet strategy used to
// turn a profile into daily targets.
type TargetRequest struct {
	Method         CalculationMethod `json:"method"`
	Activity       ActivityLevel     `json:"activity_level"`
	AdjustmentKcal int               `json:"adjustment_kcal"`
	Diet           DietType          `json:"diet_type"`
	CustomProfile  *MacroProfile     `json:"custom_profile,omitempty"`
}

// Targets is the output of the calculation pipeline. AdjustmentKcal holds the
// value actually applied, after clamping.
type Targets struct {
	Method         CalculationMethod `json:"method"`
	Activity       ActivityLevel     `json:"activity_level"`
	Diet           DietType          `json:"diet_type"`
	Profile        MacroProfile      `json:"macro_profile"`
	AdjustmentKcal int               `json:"adjustment_kcal"`
	BMR            float64           `json:"bmr"`
	TDEE           float64           `json:"tdee"`
	TargetCalories float64           `json:"target_calories"`
	Macros         MacroTargets      `json:"macros"`
}

// ComputeTargets runs BMR → TDEE → goal → macro split for profile p.
func ComputeTargets(p PatientProfile, req TargetRequest) (Targets, error) {
	macroProfile, err := req.Diet.Profile(req.CustomProfile)
	if err != nil {
		return Targets{}, err
	}
	bmr, err := ComputeBMR(req.Method, p)
	if err != nil {
		return Targets{}, err
	}
	tdee, err := ComputeTDEE(bmr, req.Activity)
	if err != nil {
		return Targets{}, err
	}
	kcal := ComputeTargetCalories(tdee, req.AdjustmentKcal)
	macros, err := ComputeMacroTargets(kcal, macroProfile)
	if err != nil {
		return Targets{}, err
	}
	return Targets{
		Method:         req.Method,
		Activity:       req.Activity,
		Diet:           req.Diet,
		Profile:        macroProfile,
		AdjustmentKcal: ClampGoalAdjustment(req.AdjustmentKcal),
		BMR:            bmr,
		TDEE:           tdee,
		TargetCalories: kcal,
		Macros:         macros,
	}, nil
}

// Progress compares the plan's actual totals with the targets. Remaining is
// nil until targets have been computed; negative values mean "over".
type Progress struct {
	Targets   *Targets        `json:"targets"`
	Actuals   NutrientTotals  `json:"actuals"`
	Remaining *NutrientTotals `json:"remaining"`
}

// MealSummary pairs a meal with its totals.
type MealSummary struct {
	Meal   Meal           `json:"meal"`
	Totals NutrientTotals `json:"totals"`
}

// Session owns one patient's planning state: profile, targets, the meal
// workspace and its undo history. Every workspace mutation goes through the
// history. A Session is single-writer; hosts that share it across goroutines
// must serialise access themselves.
type Session struct {
	profile   *PatientProfile
	targets   *Targets
	workspace *Workspace
	history   *History
}

type SessionOption func(*Session)

// WithHistoryLimit bounds the number of undo steps.
func WithHistoryLimit(n int) SessionOption {
	return func(s *Session) { s.history = NewHistory(n) }
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{workspace: NewWorkspace(), history: NewHistory(DefaultHistoryLimit)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/* ─── Profile & targets ───────────────────────────────────────────────── */

// SetProfile replaces the patient snapshot and drops targets computed from
// the previous one.
func (s *Session) SetProfile(p PatientProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.profile = &p
	s.targets = nil
	return nil
}

func (s *Session) Profile() (PatientProfile, bool) {
	if s.profile == nil {
		return PatientProfile{}, false
	}
	return *s.profile, true
}

func (s *Session) ComputeTargets(req TargetRequest) (Targets, error) {
	if s.profile == nil {
		return Targets{}, &MissingInputError{Method: req.Method, Field: "patient profile"}
	}
	t, err := ComputeTargets(*s.profile, req)
	if err != nil {
		return Targets{}, err
	}
	s.targets = &t
	return t, nil
}

func (s *Session) Targets() (Targets, bool) {
	if s.targets == nil {
		return Targets{}, false
	}
	return *s.targets, true
}

/* ─── Reads ───────────────────────────────────────────────────────────── */

func (s *Session) Meals() []Meal { return s.workspace.Meals() }

func (s *Session) Meal(id int) (Meal, error) { return s.workspace.Meal(id) }

func (s *Session) Totals() NutrientTotals { return s.workspace.Totals() }

func (s *Session) MealSummaries() []MealSummary {
	meals := s.workspace.Meals()
	out := make([]MealSummary, len(meals))
	for i, m := range meals {
		out[i] = MealSummary{Meal: m, Totals: MealTotals(m)}
	}
	return out
}

func (s *Session) Progress() Progress {
	p := Progress{Actuals: s.workspace.Totals()}
	if s.targets != nil {
		t := *s.targets
		p.Targets = &t
		p.Remaining = &NutrientTotals{
			Kcal:     t.TargetCalories - p.Actuals.Kcal,
			ProteinG: float64(t.Macros.ProteinG) - p.Actuals.ProteinG,
			CarbsG:   float64(t.Macros.CarbsG) - p.Actuals.CarbsG,
			FatsG:    float64(t.Macros.FatsG) - p.Actuals.FatsG,
		}
	}
	return p
}

/* ─── Mutations (all undoable) ────────────────────────────────────────── */

// mutate snapshots the workspace, applies fn and records the snapshot. When fn
// fails the workspace is rolled back and nothing is recorded.
func (s *Session) mutate(fn func(w *Workspace) error) error {
	before := s.workspace.snapshot()
	if err := fn(s.workspace); err != nil {
		s.workspace.restore(before)
		return err
	}
	s.history.Record(before)
	return nil
}

func (s *Session) AddMeal(m Meal) (Meal, error) {
	var out Meal
	err := s.mutate(func(w *Workspace) (err error) {
		out, err = w.AddMeal(m)
		return err
	})
	return out, err
}

func (s *Session) RemoveMeal(id int) error {
	return s.mutate(func(w *Workspace) error { return w.RemoveMeal(id) })
}

func (s *Session) UpdateMeal(id int, patch MealPatch) (Meal, error) {
	var out Meal
	err := s.mutate(func(w *Workspace) (err error) {
		out, err = w.UpdateMeal(id, patch)
		return err
	})
	return out, err
}

func (s *Session) DuplicateMeal(id int) (Meal, error) {
	var out Meal
	err := s.mutate(func(w *Workspace) (err error) {
		out, err = w.DuplicateMeal(id)
		return err
	})
	return out, err
}

func (s *Session) AddFoodToMeal(mealID int, f MealFood) (MealFood, error) {
	var out MealFood
	err := s.mutate(func(w *Workspace) (err error) {
		out, err = w.AddFoodToMeal(mealID, f)
		return err
	})
	return out, err
}

func (s *Session) RemoveFoodFromMeal(mealID, foodID int) error {
	return s.mutate(func(w *Workspace) error { return w.RemoveFoodFromMeal(mealID, foodID) })
}

func (s *Session) UpdateFoodQuantity(mealID, foodID int, quantityG float64) (MealFood, error) {
	var out MealFood
	err := s.mutate(func(w *Workspace) (err error) {
		out, err = w.UpdateFoodQuantity(mealID, foodID, quantityG)
		return err
	})
	return out, err
}

// ReplaceFood swaps a food for a chosen substitution, keeping the food id.
func (s *Session) ReplaceFood(mealID, foodID int, opt SubstitutionOption) (MealFood, error) {
	var out MealFood
	err := s.mutate(func(w *Workspace) (err error) {
		out, err = w.replaceFood(mealID, foodID, opt.AsMealFood())
		return err
	})
	return out, err
}

// ApplyPreset adds every preset food to meal mealID as a single undo step.
// If any food is rejected, none are added.
func (s *Session) ApplyPreset(mealID int, preset MealPreset) ([]MealFood, error) {
	added := make([]MealFood, 0, len(preset.Foods))
	err := s.mutate(func(w *Workspace) error {
		for _, pf := range preset.Foods {
			f, err := w.AddFoodToMeal(mealID, pf.mealFood())
			if err != nil {
				return err
			}
			added = append(added, f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

/* ─── History ─────────────────────────────────────────────────────────── */

// Undo restores the state before the last mutation; false means nothing to undo.
func (s *Session) Undo() bool {
	meals, ok := s.history.Undo(s.workspace.snapshot())
	if ok {
		s.workspace.restore(meals)
	}
	return ok
}

// Redo reapplies the last undone mutation; false means already at head.
func (s *Session) Redo() bool {
	meals, ok := s.history.Redo()
	if ok {
		s.workspace.restore(meals)
	}
	return ok
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }

func (s *Session) CanRedo() bool { return s.history.CanRedo() }

/* ─── Substitution ────────────────────────────────────────────────────── */

// SubstituteRequest builds a catalog lookup for food foodID of meal mealID at
// its current quantity.
func (s *Session) SubstituteRequest(mealID, foodID int, basis BasisNutrient, query string, filters SearchFilters) (SubstituteRequest, error) {
	if _, err := ParseBasisNutrient(string(basis)); err != nil {
		return SubstituteRequest{}, err
	}
	m, err := s.workspace.Meal(mealID)
	if err != nil {
		return SubstituteRequest{}, err
	}
	for _, f := range m.Foods {
		if f.ID == foodID {
			if query == "" {
				query = f.Name
			}
			return SubstituteRequest{Original: f, QuantityG: f.QuantityG, Basis: basis, Query: query, Filters: filters}, nil
		}
	}
	return SubstituteRequest{}, &NotFoundError{Kind: "food", ID: foodID}
}

// IsNotFound reports whether err (or anything it wraps) is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
