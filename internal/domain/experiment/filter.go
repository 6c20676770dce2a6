package experiment

import (
	"sort"
	"strings"
)

// Matches reports whether exp satisfies every populated filter.
func (f Filters) Matches(exp *Experiment) bool {
	if exp.Deleted() && !f.IncludeDeleted {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, exp.Status) {
		return false
	}
	if len(f.Categories) > 0 {
		if exp.Category == nil || !containsCategory(f.Categories, *exp.Category) {
			return false
		}
	}
	if f.OwnerID != "" && exp.OwnerID != f.OwnerID {
		return false
	}
	if f.CollaboratorID != "" && !exp.HasCollaborator(f.CollaboratorID) {
		return false
	}
	if f.Search != "" && !matchesSearch(exp, f.Search) {
		return false
	}
	return true
}

// Apply returns the experiments matching f, preserving input order.
func (f Filters) Apply(exps []Experiment) []Experiment {
	out := make([]Experiment, 0, len(exps))
	for i := range exps {
		if f.Matches(&exps[i]) {
			out = append(out, exps[i])
		}
	}
	return out
}

func matchesSearch(exp *Experiment, term string) bool {
	q := strings.ToLower(term)
	if strings.Contains(strings.ToLower(exp.Title), q) ||
		strings.Contains(strings.ToLower(exp.Description), q) {
		return true
	}
	for _, tag := range exp.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsCategory(list []Category, c Category) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

// ForkCounts counts direct children per parent id across all experiments.
func ForkCounts(all []Experiment) map[string]int {
	counts := make(map[string]int)
	for _, exp := range all {
		if exp.ForkedFromID != nil {
			counts[*exp.ForkedFromID]++
		}
	}
	return counts
}

// SortExperiments orders exps in place. Ties keep their relative order.
// forkCounts is only consulted for SortMostForked.
func SortExperiments(exps []Experiment, s *Sort, forkCounts map[string]int) {
	if s == nil {
		return
	}
	desc := s.Order != OrderAsc
	cmp := comparator(s.By, forkCounts)
	if cmp == nil {
		return
	}
	sort.SliceStable(exps, func(i, j int) bool {
		c := cmp(&exps[i], &exps[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func comparator(by SortField, forkCounts map[string]int) func(a, b *Experiment) int {
	switch by {
	case SortCreatedAt:
		return func(a, b *Experiment) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortUpdatedAt:
		return func(a, b *Experiment) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case SortTitle:
		return func(a, b *Experiment) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortStatus:
		return func(a, b *Experiment) int { return a.Status.Rank() - b.Status.Rank() }
	case SortMostForked:
		return func(a, b *Experiment) int { return forkCounts[a.ID] - forkCounts[b.ID] }
	}
	return nil
}
