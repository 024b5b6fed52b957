package app

import (
	"strings"

	"golang.org/x/text/cases"

	"mytravel_leads/internal/domain"
)

// ApplyFilter returns the records matching f, preserving source order.
// The text query is a case-insensitive substring match on name and address;
// all other fields are equality filters ANDed together.
func ApplyFilter(in []domain.Accommodation, f domain.Filter) []domain.Accommodation {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(f.Query))
	region := fold.String(strings.TrimSpace(f.Region))

	out := make([]domain.Accommodation, 0, len(in))
	for _, a := range in {
		if f.Category != "" && a.Category != f.Category {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.LeadStatus != "" && a.LeadStatus != f.LeadStatus {
			continue
		}
		if region != "" && fold.String(a.Region) != region {
			continue
		}
		if f.MinPriority != nil && a.Scores.Priority < *f.MinPriority {
			continue
		}
		if q != "" &&
			!strings.Contains(fold.String(a.Name), q) &&
			!strings.Contains(fold.String(a.Address), q) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Paginate slices an already filtered set. Total is the filtered length.
func Paginate(in []domain.Accommodation, pg domain.PageQuery) domain.AccommodationsPage {
	out := domain.AccommodationsPage{Total: len(in), Skip: pg.Skip, Limit: pg.Limit}
	if pg.Skip < 0 {
		out.Skip = 0
	}
	if pg.Limit <= 0 {
		out.Limit = DefaultPageSize
	}
	start := out.Skip
	if start > len(in) {
		start = len(in)
	}
	end := start + out.Limit
	if end > len(in) {
		end = len(in)
	}
	out.Items = make([]domain.Accommodation, end-start)
	copy(out.Items, in[start:end])
	return out
}

const DefaultPageSize = 20
