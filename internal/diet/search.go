package diet

import (
	"context"
	"sync"
)

// SubstituteRequest describes one substitution lookup against the catalog.
type SubstituteRequest struct {
	Original  MealFood
	QuantityG float64
	Basis     BasisNutrient
	Query     string
	Filters   SearchFilters
}

// SubstituteSearcher runs catalog lookups for the substitution dialog with
// last-request-wins semantics: starting a search cancels the one in flight,
// and a response that resolves after being superseded is discarded with
// ErrStaleSearch. It is safe for concurrent use.
type SubstituteSearcher struct {
	catalog FoodCatalog

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewSubstituteSearcher(catalog FoodCatalog) *SubstituteSearcher {
	return &SubstituteSearcher{catalog: catalog}
}

// Search queries the catalog and runs FindSubstitutes over the hits.
// Catalog errors come back as *SearchFailedError.
func (s *SubstituteSearcher) Search(ctx context.Context, req SubstituteRequest) ([]SubstitutionOption, error) {
	if _, err := ParseBasisNutrient(string(req.Basis)); err != nil {
		return nil, err
	}

	ctx, gen := s.begin(ctx)
	records, err := s.catalog.Search(ctx, req.Query, req.Filters)
	if !s.finish(gen) {
		return nil, ErrStaleSearch
	}
	if err != nil {
		return nil, &SearchFailedError{Query: req.Query, Err: err}
	}

	candidates := make([]SubstitutionCandidate, len(records))
	for i, r := range records {
		candidates[i] = CandidateFromRecord(r)
	}
	return FindSubstitutes(req.Original, req.QuantityG, req.Basis, candidates)
}

// Cancel abandons any in-flight search, e.g. when the dialog closes.
func (s *SubstituteSearcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *SubstituteSearcher) begin(parent context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

// finish releases the context of search gen and reports whether gen is
// still the latest search.
func (s *SubstituteSearcher) finish(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}
