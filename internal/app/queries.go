package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mytravel_leads/internal/domain"
)

const snapshotKey = "accommodations:snapshot"

func recordKey(id int64) string { return fmt.Sprintf("accommodation:%d", id) }

type QueryService struct {
	repo     domain.AccommodationRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.AccommodationRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) Get(ctx context.Context, id int64) (domain.Accommodation, error) {
	key := recordKey(id)
	var a domain.Accommodation
	if ok, _ := s.cache.Get(ctx, key, &a); ok {
		return a, nil
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Accommodation{}, err
	}
	_ = s.cache.Set(ctx, key, a, int(s.cacheTTL.Seconds()))
	return a, nil
}

// Snapshot returns the whole record set, served from cache when possible.
func (s *QueryService) Snapshot(ctx context.Context) ([]domain.Accommodation, error) {
	var out []domain.Accommodation
	if ok, _ := s.cache.Get(ctx, snapshotKey, &out); ok {
		return out, nil
	}
	rs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	// copy slice so later filtering never aliases the repo's backing array
	out = make([]domain.Accommodation, len(rs))
	copy(out, rs)

	// size guard: very large sets are served straight from the store
	if b, _ := json.Marshal(out); len(b) < 4_000_000 {
		_ = s.cache.Set(ctx, snapshotKey, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *QueryService) List(ctx context.Context, f domain.Filter, pg domain.PageQuery) (domain.AccommodationsPage, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return domain.AccommodationsPage{}, err
	}
	return Paginate(ApplyFilter(all, f), pg), nil
}

// Filtered is the export view: every record matching f, no paging.
func (s *QueryService) Filtered(ctx context.Context, f domain.Filter) ([]domain.Accommodation, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(all, f), nil
}

func (s *QueryService) Dashboard(ctx context.Context) (Summary, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all), nil
}

func (s *QueryService) HotLeads(ctx context.Context, n int) ([]domain.Accommodation, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return TopHotLeads(all, n), nil
}
