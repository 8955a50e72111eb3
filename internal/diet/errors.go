package diet

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID          = errors.New("id already in use")
	ErrUnknownMethod        = errors.New("unknown calculation method")
	ErrUnknownActivityLevel = errors.New("unknown activity level")
	ErrUnknownDietType      = errors.New("unknown diet type")
	ErrUnknownBasis         = errors.New("unknown basis nutrient")

	// ErrStaleSearch is returned by SubstituteSearcher when a newer search
	// superseded the one that produced the result. Callers drop the result.
	ErrStaleSearch = errors.New("substitute search superseded by a newer request")
)

// MissingInputError reports that a formula needs a profile field the caller
// did not supply.
type MissingInputError struct {
	Method CalculationMethod
	Field  string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Method, e.Field)
}

// InvalidMacroProfileError reports a macro split that does not add up to 100%.
type InvalidMacroProfileError struct {
	Profile MacroProfile
	Reason  string
}

func (e *InvalidMacroProfileError) Error() string {
	return fmt.Sprintf("invalid macro profile (carbs %.2f%%, protein %.2f%%, fats %.2f%%): %s",
		e.Profile.CarbsPct, e.Profile.ProteinPct, e.Profile.FatsPct, e.Reason)
}

// NotFoundError reports an operation on a meal or food id that is not in the workspace.
type NotFoundError struct {
	Kind string // "meal" or "food"
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// OutOfRangeError reports a numeric input outside its allowed domain.
type OutOfRangeError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s = %g is outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// SearchFailedError wraps a food catalog failure. The workspace is untouched,
// so the caller can simply retry.
type SearchFailedError struct {
	Query string
	Err   error
}

func (e *SearchFailedError) Error() string {
	return fmt.Sprintf("food search %q failed: %v", e.Query, e.Err)
}

func (e *SearchFailedError) Unwrap() error { return e.Err }

// Retryable is always true: a failed search never damages session state.
func (e *SearchFailedError) Retryable() bool { return true }
